package permkit

import (
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// OrganizationPermissionSetting records whether an organization confirms a
// governed or organization-scoped grant for a role.
// Missing rows mean the organization has not confirmed the grant (DENY).
type OrganizationPermissionSetting struct {
	bun.BaseModel `bun:"table:organization_permission_settings,alias:ops"`

	ID             string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OrganizationID int64     `bun:"organization_id,notnull"`
	Role           string    `bun:"role,notnull"`
	Permission     string    `bun:"permission,notnull"` // "action:resource", scope suffix stripped
	Allowed        bool      `bun:"allowed,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// SettingKey identifies one organization setting.
type SettingKey struct {
	OrganizationID int64
	Role           Role
	Permission     Permission
}

// NewSettingKey creates a SettingKey.
func NewSettingKey(orgID int64, role Role, perm Permission) SettingKey {
	return SettingKey{OrganizationID: orgID, Role: role, Permission: perm}
}

// String returns a stable representation, used for cache keys.
func (k SettingKey) String() string {
	return formatOrgID(k.OrganizationID) + ":" + string(k.Role) + ":" + k.Permission.Key()
}

func formatOrgID(id int64) string {
	return strconv.FormatInt(id, 10)
}
