// Package permkit provides role-based access control for multi-tenant workforce applications.
//
// PermKit decides ALLOW/DENY for a (role, permission, context) triple. Every check is a
// pure function over an immutable role table; organization settings are consulted through
// an injected lookup, never through hidden globals.
//
// # Core Concepts
//
// Role: an identifier for a class of users with a fixed baseline of permissions.
// Built-in roles: super_admin, internal_admin, internal_field_manager, field_coordinator,
// brand_agent, client_manager, client_user.
//
// Permission: an "action:resource" or "action:resource:scope" token, e.g. "view:users" or
// "approve:locations:organization". Tokens must match ^[a-z]+:[a-z-]+(:[a-z]+)?$.
//
// CapabilitySet: the resources and actions a role may use. Built either from a
// resource -> actions map (FromResourceActionMap) or from flat grant patterns (FromFlatList);
// both share one evaluator.
//
// PermissionContext: request-scoped organization, regions and resource owner, derived from
// the session and the request path (path wins).
//
// # Key Features
//
//   - Fail closed: malformed permissions, unknown roles, missing context and lookup failures DENY
//   - Wildcard grants: "manage:*", "*:kits" and "*:*", restricted to the defined universe
//   - Scope narrowing: organization, region and owner scopes, plus org-governed grants
//   - Organization settings stored with dbkit/bun and cached in Redis
//   - net/http middleware with JWT sessions, slog logging and Prometheus decision metrics
//
// # Basic Usage
//
//	// 1. Define your roles (at application startup)
//	registry := permkit.NewRegistry(permkit.DefaultUniverse())
//
//	registry.DefineRole(permkit.RoleFieldCoordinator).
//	    Grant("schedules", "view", "edit", "assign").
//	    Permissions("view:bookings", "view:locations").
//	DefineRole(permkit.RoleInternalFieldManager).
//	    Grant("locations", "view", "approve").
//	    OrgGoverned("approve:locations")
//
//	// Or use the built-in table
//	registry = permkit.DefaultRegistry()
//
//	// 2. Wire organization settings
//	store := permkit.NewSettingsStore(db)
//	db.Migrate(ctx, store.Migrations())
//
//	// 3. Evaluate
//	evaluator := permkit.NewEvaluator(registry, permkit.WithOrgSettings(store.Lookup(ctx)))
//
//	pctx := permkit.ResolveContextFromPath("/organizations/5/locations/9")
//	if evaluator.Evaluate("internal_field_manager", "approve:locations", &pctx) {
//	    // organization 5 confirmed manager-level approval
//	}
//
// # Middleware Usage
//
//	mw := permkit.NewMiddleware(evaluator,
//	    permkit.WithUserExtractor(permkit.JWTUserExtractor(permkit.HMACKeyFunc(secret))),
//	    permkit.WithOrgSettingsSource(permkit.NewSettingsCache(redisClient, store, 5*time.Minute)),
//	)
//
//	router.With(mw.RequirePermission("approve:locations")).
//	    Post("/organizations/{orgID}/locations/{id}/approve", approveHandler)
//
//	router.With(mw.RequireAny("view:bookings", "manage:bookings")).
//	    Get("/bookings", listBookingsHandler)
//
//	router.Get("/me/permissions", mw.PermissionsHandler().ServeHTTP)
//
// # Organization Settings
//
// Organization-scoped checks (scope suffix "organization", or grants marked OrgGoverned)
// require an organization in the context and a confirming setting. Unset settings DENY.
package permkit
