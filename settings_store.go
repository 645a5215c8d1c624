package permkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// SettingsStore persists organization permission settings through dbkit.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping, so callers can use
// dbkit.IsNotFound / dbkit.IsDuplicate and errors.As(err, *dbkit.Error).
type SettingsStore struct {
	db dbkit.IDB
}

// Compile-time interface checks.
var (
	_ SettingsManager   = (*SettingsStore)(nil)
	_ OrgSettingsSource = (*SettingsStore)(nil)
	_ HealthMonitor     = (*SettingsStore)(nil)
)

// NewSettingsStore creates a new settings store.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := permkit.NewSettingsStore(db)
//	_, err := db.Migrate(ctx, store.Migrations())
func NewSettingsStore(db dbkit.IDB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Migrations returns all database migrations required by the store.
func (s *SettingsStore) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "permkit-001",
			Description: "Create organization_permission_settings table",
			SQL: `
                CREATE TABLE IF NOT EXISTS organization_permission_settings (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    organization_id BIGINT NOT NULL,
                    role TEXT NOT NULL,
                    permission TEXT NOT NULL,
                    allowed BOOLEAN NOT NULL DEFAULT FALSE,
                    created_at TIMESTAMPTZ DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "permkit-002",
			Description: "Add unique index on organization settings",
			SQL: `
                CREATE UNIQUE INDEX IF NOT EXISTS idx_org_permission_settings_key
                ON organization_permission_settings (organization_id, role, permission)`,
		},
	}
}

// Get returns whether the organization confirms perm for role.
// A missing setting is reported as (false, nil).
func (s *SettingsStore) Get(ctx context.Context, orgID int64, role Role, perm Permission) (bool, error) {
	var setting OrganizationPermissionSetting
	err := dbkit.WithErr1(s.db.NewSelect().Model(&setting).
		Where("organization_id = ? AND role = ? AND permission = ?", orgID, string(role), perm.Key()).
		Limit(1).
		Scan(ctx), "GetOrganizationSetting").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return setting.Allowed, nil
}

// Set creates or updates a setting.
//
// Example:
//
//	err := store.Set(ctx, 5, permkit.RoleInternalFieldManager, permkit.MustPermission("approve:locations"), true)
func (s *SettingsStore) Set(ctx context.Context, orgID int64, role Role, perm Permission, allowed bool) error {
	setting := &OrganizationPermissionSetting{
		OrganizationID: orgID,
		Role:           string(role),
		Permission:     perm.Key(),
		Allowed:        allowed,
		UpdatedAt:      time.Now(),
	}

	result, err := s.db.NewInsert().
		Model(setting).
		On("CONFLICT (organization_id, role, permission) DO UPDATE").
		Set("allowed = EXCLUDED.allowed").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	err = dbkit.WithErr(result, err, "SetOrganizationSetting").Err()
	if err != nil {
		return NewError(ErrDatabaseError, err.Error()).
			WithRole(string(role)).
			WithPermission(perm.Key()).
			WithOrganization(orgID)
	}
	return nil
}

// Delete removes a setting, returning the organization to the default (DENY).
func (s *SettingsStore) Delete(ctx context.Context, orgID int64, role Role, perm Permission) error {
	result, err := s.db.NewDelete().Table("organization_permission_settings").
		Where("organization_id = ? AND role = ? AND permission = ?", orgID, string(role), perm.Key()).
		Exec(ctx)
	err = dbkit.WithErr(result, err, "DeleteOrganizationSetting").Err()
	if err != nil {
		return NewError(ErrDatabaseError, err.Error()).
			WithRole(string(role)).
			WithPermission(perm.Key()).
			WithOrganization(orgID)
	}
	return nil
}

// List returns all settings of an organization ordered by role and permission.
func (s *SettingsStore) List(ctx context.Context, orgID int64) ([]OrganizationPermissionSetting, error) {
	var settings []OrganizationPermissionSetting
	err := dbkit.WithErr1(s.db.NewSelect().Model(&settings).
		Where("organization_id = ?", orgID).
		Order("role ASC", "permission ASC").
		Scan(ctx), "ListOrganizationSettings").Err()
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Count returns the number of settings stored for an organization.
func (s *SettingsStore) Count(ctx context.Context, orgID int64) (int, error) {
	return dbkit.Count[OrganizationPermissionSetting](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("organization_id = ?", orgID)
	})
}

// Lookup binds the store to ctx for use by the Evaluator.
func (s *SettingsStore) Lookup(ctx context.Context) OrgSettingsLookup {
	return lookupFromReader(ctx, s)
}

// Health performs a health check of the database connection.
func (s *SettingsStore) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}

	// If we're in a transaction or have a different type, do a basic ping
	err := s.Ping(ctx)
	status := dbkit.HealthStatus{Healthy: err == nil}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

// IsHealthy reports whether the database is reachable.
func (s *SettingsStore) IsHealthy(ctx context.Context) bool {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return s.Ping(ctx) == nil
}

// PoolStats returns connection pool statistics for monitoring.
// Returns zero values if the database instance doesn't support pool statistics.
func (s *SettingsStore) PoolStats() dbkit.PoolStats {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}

// Ping performs a basic connectivity test to the database.
func (s *SettingsStore) Ping(ctx context.Context) error {
	var result int
	return s.db.NewSelect().Model((*struct{})(nil)).ColumnExpr("1").Limit(1).Scan(ctx, &result)
}

func lookupFromReader(ctx context.Context, reader SettingsReader) OrgSettingsLookup {
	return func(orgID int64, role Role, perm Permission) (bool, error) {
		return reader.Get(ctx, orgID, role, perm)
	}
}
