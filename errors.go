package permkit

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for permkit operations.
//
// Authorization checks never return these; they DENY instead. The sentinels surface from
// construction-time APIs (parsing, registry definitions, stores, configuration) and from the
// HTTP middleware's error handler.
var (
	// ErrInvalidRole is returned when a role identifier is malformed.
	ErrInvalidRole = errors.New("permkit: invalid role")

	// ErrInvalidPermission is returned when a permission or grant pattern is malformed.
	ErrInvalidPermission = errors.New("permkit: invalid permission")

	// ErrUnknownResource is returned when a grant names a resource outside the universe.
	ErrUnknownResource = errors.New("permkit: unknown resource")

	// ErrUnknownAction is returned when a grant names an action outside the universe.
	ErrUnknownAction = errors.New("permkit: unknown action")

	// ErrUnauthenticated is returned when no current user could be resolved.
	ErrUnauthenticated = errors.New("permkit: unauthenticated")

	// ErrForbidden is returned when the current user lacks the required permission.
	ErrForbidden = errors.New("permkit: forbidden")

	// ErrInvalidToken is returned when a session token cannot be verified.
	ErrInvalidToken = errors.New("permkit: invalid token")

	// ErrSettingsLookup is returned when organization settings cannot be read.
	ErrSettingsLookup = errors.New("permkit: organization settings lookup failed")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("permkit: database error")

	// ErrInvalidConfig is returned when configuration is incomplete or inconsistent.
	ErrInvalidConfig = errors.New("permkit: invalid configuration")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err            error  // Underlying sentinel error
	Message        string // Additional context
	Role           string // Role involved (if applicable)
	Permission     string // Permission involved (if applicable)
	OrganizationID *int64 // Organization involved (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Permission != "" {
		msg += " (permission " + strconv.Quote(e.Permission) + ")"
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithRole adds role information to the error.
func (e *Error) WithRole(role string) *Error {
	e.Role = role
	return e
}

// WithPermission adds permission information to the error.
func (e *Error) WithPermission(permission string) *Error {
	e.Permission = permission
	return e
}

// WithOrganization adds organization information to the error.
func (e *Error) WithOrganization(orgID int64) *Error {
	e.OrganizationID = &orgID
	return e
}

// IsForbidden checks if an error is an authorization denial.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthenticated checks if an error is due to a missing or invalid session.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrInvalidToken)
}

// IsInvalidPermission checks if an error is due to a malformed permission.
func IsInvalidPermission(err error) bool {
	return errors.Is(err, ErrInvalidPermission)
}

// IsInvalidRole checks if an error is due to a malformed role.
func IsInvalidRole(err error) bool {
	return errors.Is(err, ErrInvalidRole)
}
