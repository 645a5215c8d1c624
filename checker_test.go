package permkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCheckerBasics tests a checker bound to a user and context
func TestCheckerBasics(t *testing.T) {
	settings := newOrgSettingsFixture()
	settings.set(5, RoleInternalFieldManager, "approve:locations", true)
	e := NewEvaluator(DefaultRegistry(), WithOrgSettings(settings.lookup))

	user := &CurrentUser{ID: "user-1", Role: "internal_field_manager"}
	c := NewChecker(user, PermissionContext{OrganizationID: int64Ptr(5)}, e)

	assert.Equal(t, "user-1", c.UserID())
	assert.Equal(t, "internal_field_manager", c.Role())
	assert.True(t, c.Can("approve:locations"))
	assert.False(t, c.Can("delete:users"))
	assert.True(t, c.CanAll("approve:locations", "view:users"))
	assert.False(t, c.CanAll("approve:locations", "delete:users"))
	assert.False(t, c.CanAll())
	assert.True(t, c.CanAny("delete:users", "view:users"))
	assert.False(t, c.CanAny())

	// Another organization has not confirmed the grant
	assert.False(t, c.CanIn("approve:locations", c.Context().WithOrganization(6)))
	assert.Equal(t, ReasonDirect, c.Decide("approve:locations").Reason)
	assert.Contains(t, c.Permissions().Permissions, "approve:locations")
}

// TestCheckerContextIsCopied tests that callers cannot mutate the bound context
func TestCheckerContextIsCopied(t *testing.T) {
	pc := PermissionContext{OrganizationID: int64Ptr(5)}
	c := NewChecker(&CurrentUser{ID: "u", Role: "client_user"}, pc, NewEvaluator(DefaultRegistry()))

	*pc.OrganizationID = 6
	got := c.Context()
	assert.Equal(t, int64(5), *got.OrganizationID)

	*got.OrganizationID = 7
	assert.Equal(t, int64(5), *c.Context().OrganizationID)
}

// TestCheckerNil tests that a missing checker denies everything
func TestCheckerNil(t *testing.T) {
	c := CheckerFrom(context.Background())
	assert.Nil(t, c)
	assert.False(t, c.Can("view:users"))
	assert.False(t, c.CanAny("view:users"))
	assert.False(t, c.CanIn("view:users", PermissionContext{}))
	assert.Empty(t, c.UserID())
	assert.Empty(t, c.Role())
	assert.True(t, c.Context().IsEmpty())
	assert.NotNil(t, c.Permissions().Permissions)
}

// TestCheckerFromContext tests storing a checker in context
func TestCheckerFromContext(t *testing.T) {
	c := NewChecker(&CurrentUser{ID: "u", Role: "client_user"}, PermissionContext{}, NewEvaluator(DefaultRegistry()))
	ctx := WithChecker(context.Background(), c)
	assert.Same(t, c, CheckerFrom(ctx))
	assert.True(t, CheckerFrom(ctx).Can("view:bookings"))
}
