package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// SettingsReader reads a single organization setting.
// Unset settings must be reported as (false, nil).
type SettingsReader interface {
	Get(ctx context.Context, orgID int64, role Role, perm Permission) (bool, error)
}

// SettingsManager defines the organization settings administration interface
type SettingsManager interface {
	SettingsReader
	Set(ctx context.Context, orgID int64, role Role, perm Permission, allowed bool) error
	Delete(ctx context.Context, orgID int64, role Role, perm Permission) error
	List(ctx context.Context, orgID int64) ([]OrganizationPermissionSetting, error)
}

// OrgSettingsSource binds an OrgSettingsLookup to a request context.
type OrgSettingsSource interface {
	Lookup(ctx context.Context) OrgSettingsLookup
}

// Invalidator drops cached settings of an organization after they change.
type Invalidator interface {
	Invalidate(ctx context.Context, orgID int64) error
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	PoolStats() dbkit.PoolStats
}

// Authorizer defines the permission evaluation interface
type Authorizer interface {
	Evaluate(role, permission string, pctx *PermissionContext) bool
	Decide(role, permission string, pctx *PermissionContext) Decision
	CanAll(role string, permissions []string, pctx *PermissionContext) bool
	CanAny(role string, permissions []string, pctx *PermissionContext) bool
	PermissionsFor(role string) PermissionList
}

var _ Authorizer = (*Evaluator)(nil)
