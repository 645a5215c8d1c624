package permkit

import (
	"errors"
	"fmt"
	"sync"
)

// Registry holds the capability table for every role.
// It is created at startup and should be treated as immutable after initialization.
type Registry struct {
	mu       sync.RWMutex
	universe Universe
	roles    map[Role]*RoleDefinition
	order    []Role
	fallback Role
	empty    *CapabilitySet
}

// RoleDefinition collects the grants of a single role.
// Grants from Grant, GrantMap and Permissions are unioned into one CapabilitySet.
type RoleDefinition struct {
	role     Role
	steps    []func(*capabilityBuilder)
	prebuilt *CapabilitySet
	compiled *CapabilitySet
	errs     []error
	registry *Registry
}

// NewRegistry creates a new, empty registry over a universe.
func NewRegistry(u Universe) *Registry {
	return &Registry{
		universe: u,
		roles:    make(map[Role]*RoleDefinition),
		empty:    emptyCapabilities(u),
	}
}

// DefineRole starts (or continues) defining a role.
// Returns a RoleDefinition builder for fluent configuration.
//
// Example:
//
//	registry.DefineRole(permkit.RoleFieldCoordinator).
//	    Grant("schedules", "view", "edit", "assign").
//	    Permissions("view:bookings").
//	DefineRole(permkit.RoleClientUser).
//	    Permissions("view:bookings", "create:bookings")
func (r *Registry) DefineRole(role Role) *RoleDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def, ok := r.roles[role]; ok {
		return def
	}
	def := &RoleDefinition{role: role, registry: r}
	r.roles[role] = def
	r.order = append(r.order, role)
	return def
}

// Register installs a CapabilitySet built elsewhere (FromFlatList, FromResourceActionMap)
// for a role, replacing any previous definition.
func (r *Registry) Register(role Role, caps *CapabilitySet) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[role]; !ok {
		r.order = append(r.order, role)
	}
	if caps == nil {
		caps = r.empty
	}
	r.roles[role] = &RoleDefinition{role: role, prebuilt: caps, compiled: caps, registry: r}
	return r
}

// Fallback sets the role whose capabilities unknown roles receive.
// The default is no fallback: unknown roles get an empty CapabilitySet.
func (r *Registry) Fallback(role Role) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = role
	return r
}

// Universe returns the resource/action universe of the registry.
func (r *Registry) Universe() Universe {
	return r.universe
}

// Roles returns all defined roles in definition order.
func (r *Registry) Roles() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Role(nil), r.order...)
}

// HasRole reports whether a role is defined.
func (r *Registry) HasRole(role string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.roles[Role(role)]
	return ok
}

// EffectiveRole returns the role whose capabilities role receives: role itself when
// defined, otherwise the fallback role. Unknown roles without a fallback are returned as is.
func (r *Registry) EffectiveRole(role string) Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.roles[Role(role)]; ok {
		return Role(role)
	}
	if _, ok := r.roles[r.fallback]; ok && r.fallback != "" {
		return r.fallback
	}
	return Role(role)
}

// GetCapabilities returns the CapabilitySet for a role.
// Unknown roles get the fallback role's set, or an empty set when no fallback is defined.
// It never fails.
func (r *Registry) GetCapabilities(role string) *CapabilitySet {
	r.mu.RLock()
	def := r.roles[Role(role)]
	if def == nil && r.fallback != "" {
		def = r.roles[r.fallback]
	}
	if def == nil {
		r.mu.RUnlock()
		return r.empty
	}
	if caps := def.compiled; caps != nil {
		r.mu.RUnlock()
		return caps
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return def.compile()
}

// Validate compiles every role and reports all definition errors
// (malformed patterns, resources or actions outside the universe).
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, role := range r.order {
		def := r.roles[role]
		def.compile()
		for _, err := range def.errs {
			errs = append(errs, fmt.Errorf("role %q: %w", role, err))
		}
	}
	return errors.Join(errs...)
}

// compile must be called with the registry write lock held.
func (d *RoleDefinition) compile() *CapabilitySet {
	if d.compiled != nil {
		return d.compiled
	}
	b := newCapabilityBuilder(d.registry.universe)
	for _, step := range d.steps {
		step(b)
	}
	d.compiled = b.set
	d.errs = b.errs
	return d.compiled
}

func (d *RoleDefinition) addStep(step func(*capabilityBuilder)) *RoleDefinition {
	d.registry.mu.Lock()
	defer d.registry.mu.Unlock()

	if d.prebuilt != nil {
		d.errs = append(d.errs, fmt.Errorf("role %q was registered with a prebuilt capability set", d.role))
		return d
	}
	d.steps = append(d.steps, step)
	d.compiled = nil
	return d
}

// Grant grants actions on a resource. Use "*" as resource for every resource
// and "*" as action for every action.
//
// Example:
//
//	role.Grant("bookings", "view", "create", "edit")
func (d *RoleDefinition) Grant(resource string, actions ...string) *RoleDefinition {
	return d.addStep(func(b *capabilityBuilder) {
		for _, a := range actions {
			b.grant(a, resource)
		}
	})
}

// GrantMap grants a whole resource -> actions map.
func (d *RoleDefinition) GrantMap(grants map[string][]string) *RoleDefinition {
	return d.addStep(func(b *capabilityBuilder) {
		addResourceActionMap(b, grants)
	})
}

// Permissions grants flat "action:resource" patterns.
// Supports wildcards: "action:*", "*:resource", "*:*".
//
// Example:
//
//	role.Permissions("view:*", "create:bookings")
func (d *RoleDefinition) Permissions(patterns ...string) *RoleDefinition {
	return d.addStep(func(b *capabilityBuilder) {
		for _, p := range patterns {
			b.grantPattern(p)
		}
	})
}

// OrgGoverned marks grants whose use must be confirmed by the organization's settings.
// A governed check requires an organization in the PermissionContext.
//
// Example:
//
//	role.Grant("locations", "approve").OrgGoverned("approve:locations")
func (d *RoleDefinition) OrgGoverned(patterns ...string) *RoleDefinition {
	return d.addStep(func(b *capabilityBuilder) {
		for _, p := range patterns {
			b.govern(p)
		}
	})
}

// DefineRole continues defining roles on the registry (fluent API).
func (d *RoleDefinition) DefineRole(role Role) *RoleDefinition {
	return d.registry.DefineRole(role)
}

// Role returns the role being defined.
func (d *RoleDefinition) Role() Role {
	return d.role
}

// DefaultRegistry returns the workforce-management role table.
func DefaultRegistry() *Registry {
	r := NewRegistry(DefaultUniverse())

	r.DefineRole(RoleSuperAdmin).
		Grant(Wildcard, Wildcard).
		DefineRole(RoleInternalAdmin).
		Permissions("view:*", "create:*", "edit:*", "manage:*", "approve:*", "assign:*", "export:*").
		Grant(ResourceUsers, ActionDelete).
		Grant(ResourceStaff, ActionDelete).
		Grant(ResourceLocations, ActionDelete).
		Grant(ResourceBookings, ActionDelete).
		Grant(ResourceSchedules, ActionDelete).
		Grant(ResourceKits, ActionDelete).
		DefineRole(RoleInternalFieldManager).
		Grant(ResourceUsers, ActionView).
		Grant(ResourceStaff, ActionView, ActionEdit, ActionAssign).
		Grant(ResourceLocations, ActionView, ActionCreate, ActionEdit, ActionApprove).
		Grant(ResourceBookings, ActionView, ActionCreate, ActionEdit, ActionApprove).
		Grant(ResourceSchedules, ActionView, ActionCreate, ActionEdit, ActionAssign).
		Grant(ResourceKits, ActionView, ActionAssign).
		Grant(ResourceRegions, ActionView).
		Grant(ResourceReports, ActionView, ActionExport).
		OrgGoverned("approve:locations").
		DefineRole(RoleFieldCoordinator).
		Grant(ResourceUsers, ActionView).
		Grant(ResourceStaff, ActionView, ActionAssign).
		Grant(ResourceLocations, ActionView).
		Grant(ResourceBookings, ActionView, ActionEdit).
		Grant(ResourceSchedules, ActionView, ActionEdit, ActionAssign).
		Grant(ResourceKits, ActionView, ActionAssign).
		DefineRole(RoleBrandAgent).
		Grant(ResourceLocations, ActionView).
		Grant(ResourceBookings, ActionView).
		Grant(ResourceSchedules, ActionView).
		Grant(ResourceKits, ActionView).
		DefineRole(RoleClientManager).
		Permissions(
			"view:bookings", "create:bookings", "edit:bookings", "approve:bookings",
			"view:locations", "view:users", "view:staff",
			"view:reports", "export:reports",
		).
		OrgGoverned("approve:bookings").
		DefineRole(RoleClientUser).
		Permissions("view:bookings", "create:bookings", "view:locations")

	return r
}
