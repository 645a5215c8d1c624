package permkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextCurrentUser tests storing and retrieving the current user
func TestContextCurrentUser(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, CurrentUserFrom(ctx))

	user := &CurrentUser{ID: "user-1", Role: "client_user"}
	ctx = WithCurrentUser(ctx, user)
	assert.Same(t, user, CurrentUserFrom(ctx))

	// Wrong type under a foreign key is ignored
	ctx = context.WithValue(context.Background(), contextKey("permkit:user"), "not-a-user")
	assert.Nil(t, CurrentUserFrom(ctx))
}

// TestContextPermissionContext tests storing and retrieving the resolved context
func TestContextPermissionContext(t *testing.T) {
	ctx := context.Background()
	_, ok := PermissionContextFrom(ctx)
	assert.False(t, ok)

	pc := PermissionContext{OrganizationID: int64Ptr(5)}
	ctx = WithPermissionContext(ctx, pc)
	got, ok := PermissionContextFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, pc, got)
}

// TestContextRequestID tests storing and retrieving the request ID
func TestContextRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
}

// TestCurrentUserValidate tests session user validation
func TestCurrentUserValidate(t *testing.T) {
	tests := []struct {
		name    string
		user    CurrentUser
		wantErr bool
	}{
		{name: "valid", user: CurrentUser{ID: "u1", Role: "client_user"}},
		{name: "valid with context", user: CurrentUser{ID: "u1", Role: "client_user", OrganizationID: int64Ptr(3), RegionIDs: []int64{1, 2}}},
		{name: "missing id", user: CurrentUser{Role: "client_user"}, wantErr: true},
		{name: "missing role", user: CurrentUser{ID: "u1"}, wantErr: true},
		{name: "zero organization", user: CurrentUser{ID: "u1", Role: "client_user", OrganizationID: int64Ptr(0)}, wantErr: true},
		{name: "negative region", user: CurrentUser{ID: "u1", Role: "client_user", RegionIDs: []int64{1, -2}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsUnauthenticated(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
