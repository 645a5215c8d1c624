package permkit

// OrgSettingsLookup reports whether an organization's settings confirm a scoped grant
// of perm to role. Implementations typically read an external settings store; a returned
// error is treated as DENY.
type OrgSettingsLookup func(orgID int64, role Role, perm Permission) (bool, error)

// Reason explains an evaluation outcome.
type Reason string

// Decision reasons.
const (
	ReasonDirect          Reason = "direct"
	ReasonWildcard        Reason = "wildcard"
	ReasonMalformed       Reason = "malformed_permission"
	ReasonUnknownResource Reason = "unknown_resource"
	ReasonNotGranted      Reason = "not_granted"
	ReasonMissingContext  Reason = "missing_context"
	ReasonUnknownScope    Reason = "unknown_scope"
	ReasonOrgSettings     Reason = "org_settings_denied"
	ReasonLookupFailed    Reason = "org_settings_lookup_failed"
)

// Decision is the outcome of a single permission check.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Role       string
	Permission string
	Scoped     bool  // scope narrowing was applied
	Err        error // lookup error behind ReasonLookupFailed
}

// CheckRequest is a single permission check.
type CheckRequest struct {
	Permission string
	Context    *PermissionContext
}

// PermissionList is the listing shape returned from the permission boundary.
type PermissionList struct {
	Permissions []string `json:"permissions"`
}

// Evaluator decides ALLOW/DENY for (role, permission, context) triples.
// It holds no mutable state; construct it once and pass it to handlers.
type Evaluator struct {
	registry    *Registry
	orgSettings OrgSettingsLookup
}

// EvaluatorOption configures the Evaluator.
type EvaluatorOption func(*Evaluator)

// WithOrgSettings sets the lookup used to finalize organization-scoped checks.
// Without a lookup, organization-scoped checks are denied.
func WithOrgSettings(lookup OrgSettingsLookup) EvaluatorOption {
	return func(e *Evaluator) {
		e.orgSettings = lookup
	}
}

// NewEvaluator creates a new Evaluator over a registry.
//
// Example:
//
//	evaluator := permkit.NewEvaluator(permkit.DefaultRegistry(),
//	    permkit.WithOrgSettings(store.Lookup(ctx)),
//	)
func NewEvaluator(registry *Registry, opts ...EvaluatorOption) *Evaluator {
	if registry == nil {
		registry = NewRegistry(DefaultUniverse())
	}
	e := &Evaluator{registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithOrgSettings returns a copy of the evaluator bound to another settings lookup,
// typically one bound to the current request's context.
func (e *Evaluator) WithOrgSettings(lookup OrgSettingsLookup) *Evaluator {
	c := *e
	c.orgSettings = lookup
	return &c
}

// Registry returns the evaluator's registry.
func (e *Evaluator) Registry() *Registry {
	return e.registry
}

// Evaluate reports whether role holds permission under the optional context.
//
// Example:
//
//	if evaluator.Evaluate("internal_field_manager", "approve:locations", &pctx) {
//	    // approve
//	}
func (e *Evaluator) Evaluate(role, permission string, pctx *PermissionContext) bool {
	return e.Decide(role, permission, pctx).Allowed
}

// Check evaluates a CheckRequest.
func (e *Evaluator) Check(role string, req CheckRequest) Decision {
	return e.Decide(role, req.Permission, req.Context)
}

// Decide evaluates a permission and explains the outcome.
// It never panics or returns an error: anything ambiguous is a DENY.
func (e *Evaluator) Decide(role, permission string, pctx *PermissionContext) Decision {
	d := Decision{Role: role, Permission: permission}

	perm, err := ParsePermission(permission)
	if err != nil {
		return d.deny(ReasonMalformed)
	}
	if !e.registry.universe.Contains(perm) {
		return d.deny(ReasonUnknownResource)
	}

	caps := e.registry.GetCapabilities(role)
	switch caps.match(perm.Action, perm.Resource) {
	case matchDirect:
		d.Reason = ReasonDirect
	case matchWildcard:
		d.Reason = ReasonWildcard
	default:
		return d.deny(ReasonNotGranted)
	}

	governed := caps.Governed(perm)
	if !perm.IsScoped() && !governed {
		d.Allowed = true
		return d
	}

	d.Scoped = true
	// Organization settings are keyed by the role that granted the capability.
	return e.narrow(d, e.registry.EffectiveRole(role), perm, governed, pctx)
}

// narrow applies scope narrowing to a tentative ALLOW.
func (e *Evaluator) narrow(d Decision, role Role, perm Permission, governed bool, pctx *PermissionContext) Decision {
	var pc PermissionContext
	if pctx != nil {
		pc = *pctx
	}

	checkOrg := governed
	switch perm.Scope {
	case "":
	case ScopeOrganization:
		checkOrg = true
	case ScopeRegion:
		if len(pc.RegionIDs) == 0 {
			return d.deny(ReasonMissingContext)
		}
	case ScopeOwner:
		if pc.ResourceOwnerID == "" {
			return d.deny(ReasonMissingContext)
		}
	default:
		return d.deny(ReasonUnknownScope)
	}

	if checkOrg {
		if pc.OrganizationID == nil {
			return d.deny(ReasonMissingContext)
		}
		if e.orgSettings == nil {
			return d.deny(ReasonOrgSettings)
		}
		ok, err := e.orgSettings(*pc.OrganizationID, role, perm)
		if err != nil {
			d.Err = NewError(ErrSettingsLookup, err.Error()).
				WithRole(string(role)).
				WithPermission(perm.String()).
				WithOrganization(*pc.OrganizationID)
			return d.deny(ReasonLookupFailed)
		}
		if !ok {
			return d.deny(ReasonOrgSettings)
		}
	}

	d.Allowed = true
	return d
}

func (d Decision) deny(reason Reason) Decision {
	d.Allowed = false
	d.Reason = reason
	return d
}

// CanAll reports whether every permission is allowed. An empty list is denied.
func (e *Evaluator) CanAll(role string, permissions []string, pctx *PermissionContext) bool {
	if len(permissions) == 0 {
		return false
	}
	for _, p := range permissions {
		if !e.Evaluate(role, p, pctx) {
			return false
		}
	}
	return true
}

// CanAny reports whether at least one permission is allowed. An empty list is denied.
func (e *Evaluator) CanAny(role string, permissions []string, pctx *PermissionContext) bool {
	for _, p := range permissions {
		if e.Evaluate(role, p, pctx) {
			return true
		}
	}
	return false
}

// PermissionsFor lists the concrete permissions a role holds before scope narrowing.
func (e *Evaluator) PermissionsFor(role string) PermissionList {
	perms := e.registry.GetCapabilities(role).Permissions()
	if perms == nil {
		perms = []string{}
	}
	return PermissionList{Permissions: perms}
}
