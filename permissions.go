package permkit

import (
	"regexp"
	"strings"
)

// Wildcard matches every action or every resource inside a grant pattern.
// It is never valid inside a requested permission.
const Wildcard = "*"

// Permission scopes understood by the evaluator.
const (
	ScopeOrganization = "organization"
	ScopeRegion       = "region"
	ScopeOwner        = "owner"
)

var (
	permissionFormat = regexp.MustCompile(`^[a-z]+:[a-z-]+(:[a-z]+)?$`)
	patternFormat    = regexp.MustCompile(`^([a-z]+|\*):([a-z-]+|\*)$`)
)

// Permission is a parsed "action:resource[:scope]" token.
type Permission struct {
	Action   string
	Resource string
	Scope    string // optional
}

// ParsePermission parses a requested permission.
//
// Examples:
//
//	ParsePermission("view:users")                     // {view users ""}
//	ParsePermission("approve:locations:organization") // {approve locations organization}
//	ParsePermission("manage:*")                       // error, wildcards are grant-only
func ParsePermission(raw string) (Permission, error) {
	if !permissionFormat.MatchString(raw) {
		return Permission{}, NewError(ErrInvalidPermission, "permission must match "+permissionFormat.String()).
			WithPermission(raw)
	}
	parts := strings.SplitN(raw, ":", 3)
	p := Permission{Action: parts[0], Resource: parts[1]}
	if len(parts) == 3 {
		p.Scope = parts[2]
	}
	return p, nil
}

// MustPermission is like ParsePermission but panics on malformed input.
// Intended for package-level permission constants.
func MustPermission(raw string) Permission {
	p, err := ParsePermission(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the permission back to its token form.
func (p Permission) String() string {
	if p.Scope != "" {
		return p.Action + ":" + p.Resource + ":" + p.Scope
	}
	return p.Action + ":" + p.Resource
}

// Key returns the scope-less "action:resource" form used for grants and org settings.
func (p Permission) Key() string {
	return p.Action + ":" + p.Resource
}

// IsScoped reports whether the permission carries a scope suffix.
func (p Permission) IsScoped() bool {
	return p.Scope != ""
}

// splitPattern parses a grant pattern ("view:users", "manage:*", "*:kits").
func splitPattern(pattern string) (action, resource string, err error) {
	if !patternFormat.MatchString(pattern) {
		return "", "", NewError(ErrInvalidPermission, "grant pattern must match "+patternFormat.String()).
			WithPermission(pattern)
	}
	action, resource, _ = strings.Cut(pattern, ":")
	return action, resource, nil
}

// Universe is the fixed set of resources and actions permissions may name.
type Universe struct {
	resources []string
	actions   []string
	resSet    map[string]struct{}
	actSet    map[string]struct{}
}

// NewUniverse creates a Universe from resource and action names.
func NewUniverse(resources, actions []string) Universe {
	u := Universe{
		resources: append([]string(nil), resources...),
		actions:   append([]string(nil), actions...),
		resSet:    make(map[string]struct{}, len(resources)),
		actSet:    make(map[string]struct{}, len(actions)),
	}
	for _, r := range resources {
		u.resSet[r] = struct{}{}
	}
	for _, a := range actions {
		u.actSet[a] = struct{}{}
	}
	return u
}

// Workforce resources.
const (
	ResourceUsers         = "users"
	ResourceOrganizations = "organizations"
	ResourceLocations     = "locations"
	ResourceBookings      = "bookings"
	ResourceSchedules     = "schedules"
	ResourceStaff         = "staff"
	ResourceKits          = "kits"
	ResourceRoles         = "roles"
	ResourceRegions       = "regions"
	ResourceReports       = "reports"
	ResourceSettings      = "settings"
)

// Workforce actions.
const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionManage  = "manage"
	ActionApprove = "approve"
	ActionAssign  = "assign"
	ActionExport  = "export"
)

// DefaultUniverse returns the workforce-management resource and action universe.
func DefaultUniverse() Universe {
	return NewUniverse(
		[]string{
			ResourceUsers, ResourceOrganizations, ResourceLocations, ResourceBookings,
			ResourceSchedules, ResourceStaff, ResourceKits, ResourceRoles,
			ResourceRegions, ResourceReports, ResourceSettings,
		},
		[]string{
			ActionView, ActionCreate, ActionEdit, ActionDelete,
			ActionManage, ActionApprove, ActionAssign, ActionExport,
		},
	)
}

// HasResource reports whether resource is part of the universe.
func (u Universe) HasResource(resource string) bool {
	_, ok := u.resSet[resource]
	return ok
}

// HasAction reports whether action is part of the universe.
func (u Universe) HasAction(action string) bool {
	_, ok := u.actSet[action]
	return ok
}

// Resources returns the resource names in definition order.
func (u Universe) Resources() []string {
	return append([]string(nil), u.resources...)
}

// Actions returns the action names in definition order.
func (u Universe) Actions() []string {
	return append([]string(nil), u.actions...)
}

// Contains reports whether the permission names a defined (action, resource) pair.
func (u Universe) Contains(p Permission) bool {
	return u.HasAction(p.Action) && u.HasResource(p.Resource)
}
