package permkit

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// Context keys for permkit values.
type contextKey string

const (
	contextKeyUser       contextKey = "permkit:user"
	contextKeyPermission contextKey = "permkit:permission_context"
	contextKeyRequestID  contextKey = "permkit:request_id"
	contextKeyChecker    contextKey = "permkit:checker"
)

var validate = validator.New()

// CurrentUser is the authenticated user as supplied by the session/auth provider.
// Only Role is used for capability lookup; the rest feeds the PermissionContext.
type CurrentUser struct {
	ID             string  `json:"id" validate:"required"`
	Role           string  `json:"role" validate:"required"`
	OrganizationID *int64  `json:"organizationId,omitempty" validate:"omitempty,gt=0"`
	RegionIDs      []int64 `json:"regionIds,omitempty" validate:"omitempty,dive,gt=0"`
}

// Validate checks that the session supplied a usable user.
func (u CurrentUser) Validate() error {
	if err := validate.Struct(u); err != nil {
		return NewError(ErrUnauthenticated, err.Error()).WithRole(u.Role)
	}
	return nil
}

// WithCurrentUser adds the current user to the context.
func WithCurrentUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, contextKeyUser, user)
}

// CurrentUserFrom retrieves the current user from context.
// Returns nil if not set.
func CurrentUserFrom(ctx context.Context) *CurrentUser {
	if v := ctx.Value(contextKeyUser); v != nil {
		if u, ok := v.(*CurrentUser); ok {
			return u
		}
	}
	return nil
}

// WithPermissionContext adds the resolved PermissionContext to the context.
// This is set by middleware and can be retrieved in handlers.
func WithPermissionContext(ctx context.Context, pc PermissionContext) context.Context {
	return context.WithValue(ctx, contextKeyPermission, pc)
}

// PermissionContextFrom retrieves the resolved PermissionContext from context.
func PermissionContextFrom(ctx context.Context) (PermissionContext, bool) {
	if v := ctx.Value(contextKeyPermission); v != nil {
		if pc, ok := v.(PermissionContext); ok {
			return pc, true
		}
	}
	return PermissionContext{}, false
}

// WithRequestID adds a request ID to the context (for log correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
