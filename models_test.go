package permkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSettingKey tests setting key formatting
func TestSettingKey(t *testing.T) {
	tests := []struct {
		name     string
		orgID    int64
		role     Role
		perm     string
		expected string
	}{
		{"unscoped", 5, RoleInternalFieldManager, "approve:locations", "5:internal_field_manager:approve:locations"},
		{"scope suffix stripped", 5, RoleClientUser, "view:bookings:organization", "5:client_user:view:bookings"},
		{"negative organization", -1, RoleClientManager, "edit:bookings", "-1:client_manager:edit:bookings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSettingKey(tt.orgID, tt.role, MustPermission(tt.perm))
			assert.Equal(t, tt.orgID, key.OrganizationID)
			assert.Equal(t, tt.role, key.Role)
			assert.Equal(t, tt.expected, key.String())
		})
	}
}
