package permkit

import "context"

// Checker provides permission checking for a specific user in a specific request.
// It is created by the Middleware and stored in context for use in handlers.
type Checker struct {
	user      *CurrentUser
	pctx      PermissionContext
	evaluator *Evaluator
}

// NewChecker creates a new Checker for a user.
func NewChecker(user *CurrentUser, pctx PermissionContext, evaluator *Evaluator) *Checker {
	return &Checker{
		user:      user,
		pctx:      pctx.clone(),
		evaluator: evaluator,
	}
}

// UserID returns the user ID this checker is for.
func (c *Checker) UserID() string {
	if c == nil || c.user == nil {
		return ""
	}
	return c.user.ID
}

// Role returns the user's raw role.
func (c *Checker) Role() string {
	if c == nil || c.user == nil {
		return ""
	}
	return c.user.Role
}

// Context returns a copy of the resolved PermissionContext.
func (c *Checker) Context() PermissionContext {
	if c == nil {
		return PermissionContext{}
	}
	return c.pctx.clone()
}

// Can checks a permission against the request's resolved context.
// A nil Checker denies everything.
//
// Example:
//
//	if permkit.CheckerFrom(r.Context()).Can("export:reports") {
//	    // Show the export button
//	}
func (c *Checker) Can(permission string) bool {
	return c.Decide(permission).Allowed
}

// Decide checks a permission and explains the outcome.
func (c *Checker) Decide(permission string) Decision {
	if c == nil || c.user == nil || c.evaluator == nil {
		return Decision{Permission: permission, Reason: ReasonNotGranted}
	}
	pctx := c.pctx.clone()
	return c.evaluator.Decide(c.user.Role, permission, &pctx)
}

// CanIn checks a permission against an explicit context instead of the resolved one.
//
// Example:
//
//	if checker.CanIn("approve:locations", checker.Context().WithOrganization(location.OrgID)) {
//	    // Approve
//	}
func (c *Checker) CanIn(permission string, pctx PermissionContext) bool {
	if c == nil || c.user == nil || c.evaluator == nil {
		return false
	}
	return c.evaluator.Evaluate(c.user.Role, permission, &pctx)
}

// CanAny checks if the user has any of the specified permissions.
func (c *Checker) CanAny(permissions ...string) bool {
	for _, p := range permissions {
		if c.Can(p) {
			return true
		}
	}
	return false
}

// CanAll checks if the user has all of the specified permissions.
// An empty list is denied.
func (c *Checker) CanAll(permissions ...string) bool {
	if len(permissions) == 0 {
		return false
	}
	for _, p := range permissions {
		if !c.Can(p) {
			return false
		}
	}
	return true
}

// Permissions lists the user's permissions before scope narrowing.
func (c *Checker) Permissions() PermissionList {
	if c == nil || c.user == nil || c.evaluator == nil {
		return PermissionList{Permissions: []string{}}
	}
	return c.evaluator.PermissionsFor(c.user.Role)
}

// WithChecker adds a checker to the context.
func WithChecker(ctx context.Context, checker *Checker) context.Context {
	return context.WithValue(ctx, contextKeyChecker, checker)
}

// CheckerFrom retrieves the checker from context.
// Returns nil if not set; a nil Checker denies every check.
func CheckerFrom(ctx context.Context) *Checker {
	if v := ctx.Value(contextKeyChecker); v != nil {
		if c, ok := v.(*Checker); ok {
			return c
		}
	}
	return nil
}
