package permkit

import (
	"context"
	"log/slog"
)

// Settings administers organization settings and keeps caches consistent.
// Every write invalidates the organization's cached settings.
type Settings struct {
	manager     SettingsManager
	invalidator Invalidator
	logger      *slog.Logger
}

// NewSettings creates a settings administrator. invalidator may be nil when no cache is used.
//
// Example:
//
//	store := permkit.NewSettingsStore(db)
//	cache := permkit.NewSettingsCache(redisClient, store, 5*time.Minute)
//	settings := permkit.NewSettings(store, cache, logger)
//	err := settings.Set(ctx, 5, permkit.RoleInternalFieldManager, permkit.MustPermission("approve:locations"), true)
func NewSettings(manager SettingsManager, invalidator Invalidator, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{manager: manager, invalidator: invalidator, logger: logger}
}

// Set confirms (allowed=true) or refuses a governed grant for an organization.
func (s *Settings) Set(ctx context.Context, orgID int64, role Role, perm Permission, allowed bool) error {
	if err := s.manager.Set(ctx, orgID, role, perm, allowed); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "permkit org setting updated",
		slog.Int64("organization_id", orgID),
		slog.String("role", role.String()),
		slog.String("permission", perm.Key()),
		slog.Bool("allowed", allowed),
	)
	s.invalidate(ctx, orgID)
	return nil
}

// Delete removes a setting, returning the grant to the default (DENY).
func (s *Settings) Delete(ctx context.Context, orgID int64, role Role, perm Permission) error {
	if err := s.manager.Delete(ctx, orgID, role, perm); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "permkit org setting removed",
		slog.Int64("organization_id", orgID),
		slog.String("role", role.String()),
		slog.String("permission", perm.Key()),
	)
	s.invalidate(ctx, orgID)
	return nil
}

// List returns all settings of an organization.
func (s *Settings) List(ctx context.Context, orgID int64) ([]OrganizationPermissionSetting, error) {
	return s.manager.List(ctx, orgID)
}

func (s *Settings) invalidate(ctx context.Context, orgID int64) {
	if s.invalidator == nil {
		return
	}
	// Stale entries expire with the cache TTL.
	if err := s.invalidator.Invalidate(ctx, orgID); err != nil {
		s.logger.WarnContext(ctx, "permkit settings cache invalidation failed",
			slog.Int64("organization_id", orgID),
			slog.Any("error", err),
		)
	}
}
