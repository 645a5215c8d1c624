package permkit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Middleware provides HTTP middleware for permission checking.
// Denials map to 401 when no user could be resolved and 403 otherwise.
type Middleware struct {
	evaluator    *Evaluator
	getUser      UserExtractor
	settings     OrgSettingsSource
	errorHandler func(http.ResponseWriter, *http.Request, error)
	logger       *slog.Logger
	metrics      *Metrics
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := permkit.NewMiddleware(evaluator,
//	    permkit.WithUserExtractor(permkit.JWTUserExtractor(permkit.HMACKeyFunc(secret))),
//	    permkit.WithOrgSettingsSource(settingsCache),
//	    permkit.WithLogger(logger),
//	)
func NewMiddleware(evaluator *Evaluator, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		evaluator:    evaluator,
		getUser:      defaultGetUser,
		errorHandler: defaultErrorHandler,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserExtractor sets a custom function to resolve the current user from a request.
func WithUserExtractor(fn UserExtractor) MiddlewareOption {
	return func(m *Middleware) {
		if fn != nil {
			m.getUser = fn
		}
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

// WithOrgSettingsSource sets where organization-scoped checks are confirmed.
// The source is bound to each request's context.
func WithOrgSettingsSource(src OrgSettingsSource) MiddlewareOption {
	return func(m *Middleware) {
		m.settings = src
	}
}

// WithLogger sets the logger used for denials and lookup failures.
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records every decision in metrics.
func WithMetrics(metrics *Metrics) MiddlewareOption {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func defaultGetUser(r *http.Request) (*CurrentUser, error) {
	if u := CurrentUserFrom(r.Context()); u != nil {
		return u, nil
	}
	return nil, NewError(ErrUnauthenticated, "no current user in context")
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsUnauthenticated(err):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	case IsForbidden(err):
		writeJSONError(w, http.StatusForbidden, "forbidden")
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message, "code": status})
}

// ResolveRequestContext merges the session context of user with the context
// derived from the request path. Path fields win.
func ResolveRequestContext(r *http.Request, user *CurrentUser) PermissionContext {
	var session PermissionContext
	if user != nil {
		session = ContextFromUser(*user)
	}
	return MergeContext(session, ResolveContextFromPath(r.URL.Path))
}

// Evaluator returns the evaluator bound to the organization settings of ctx.
// Handlers use it for checks that go beyond route-level middleware.
func (m *Middleware) Evaluator(ctx context.Context) *Evaluator {
	if m.settings == nil {
		return m.evaluator
	}
	return m.evaluator.WithOrgSettings(m.settings.Lookup(ctx))
}

// withUser stores the user, the resolved context and a bound Checker in ctx.
func (m *Middleware) withUser(ctx context.Context, user *CurrentUser, pctx PermissionContext) context.Context {
	ctx = WithCurrentUser(ctx, user)
	ctx = WithPermissionContext(ctx, pctx)
	return WithChecker(ctx, NewChecker(user, pctx, m.Evaluator(ctx)))
}

type requireMode int

const (
	requireAll requireMode = iota
	requireAny
)

// RequirePermission creates middleware that requires a single permission.
//
// Example:
//
//	router.With(mw.RequirePermission("approve:locations")).
//	    Post("/organizations/{orgID}/locations/{id}/approve", approveHandler)
func (m *Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return m.require(requireAll, []string{permission})
}

// RequireAll creates middleware that requires every listed permission.
func (m *Middleware) RequireAll(permissions ...string) func(http.Handler) http.Handler {
	return m.require(requireAll, permissions)
}

// RequireAny creates middleware that requires at least one listed permission.
//
// Example:
//
//	router.With(mw.RequireAny("view:bookings", "manage:bookings")).
//	    Get("/bookings", listBookingsHandler)
func (m *Middleware) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	return m.require(requireAny, permissions)
}

func (m *Middleware) require(mode requireMode, permissions []string) func(http.Handler) http.Handler {
	perms := append([]string(nil), permissions...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user, err := m.getUser(r)
			if err != nil || user == nil {
				if err == nil {
					err = NewError(ErrUnauthenticated, "no current user")
				}
				m.errorHandler(w, r, err)
				return
			}

			pctx := ResolveRequestContext(r, user)
			decision, ok := m.decide(ctx, mode, user.Role, perms, &pctx)
			if !ok {
				m.logDenial(ctx, user, decision)
				m.errorHandler(w, r, NewError(ErrForbidden, "missing required permission").
					WithRole(user.Role).
					WithPermission(decision.Permission))
				return
			}

			next.ServeHTTP(w, r.WithContext(m.withUser(ctx, user, pctx)))
		})
	}
}

// decide returns the deciding Decision: the first denial for requireAll,
// the first allow (or the last denial) for requireAny.
func (m *Middleware) decide(ctx context.Context, mode requireMode, role string, perms []string, pctx *PermissionContext) (Decision, bool) {
	if len(perms) == 0 {
		return Decision{Role: role, Reason: ReasonNotGranted}, false
	}
	ev := m.Evaluator(ctx)
	var last Decision
	for _, p := range perms {
		last = ev.Decide(role, p, pctx)
		m.metrics.Observe(last)
		if mode == requireAll && !last.Allowed {
			return last, false
		}
		if mode == requireAny && last.Allowed {
			return last, true
		}
	}
	return last, mode == requireAll
}

func (m *Middleware) logDenial(ctx context.Context, user *CurrentUser, d Decision) {
	attrs := []any{
		slog.String("user_id", user.ID),
		slog.String("role", d.Role),
		slog.String("permission", d.Permission),
		slog.String("reason", string(d.Reason)),
	}
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if d.Err != nil {
		m.logger.WarnContext(ctx, "permkit org settings lookup failed", append(attrs, slog.Any("error", d.Err))...)
		return
	}
	m.logger.InfoContext(ctx, "permkit permission denied", attrs...)
}

// LoadUser creates middleware that loads the current user and the resolved
// PermissionContext into the request context without enforcing anything.
// Use this when permission checks happen in the handler.
//
// Example:
//
//	router.With(mw.LoadUser()).Get("/dashboard", dashboardHandler)
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    if permkit.CheckerFrom(r.Context()).Can("view:reports") {
//	        // Show reports
//	    }
//	}
func (m *Middleware) LoadUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := m.getUser(r)
			if err != nil || user == nil {
				// No user, continue without one
				next.ServeHTTP(w, r)
				return
			}

			ctx := m.withUser(r.Context(), user, ResolveRequestContext(r, user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PermissionsHandler serves the current user's permissions as
// {"permissions": [...]} for client-side rendering decisions.
func (m *Middleware) PermissionsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.getUser(r)
		if err != nil || user == nil {
			if err == nil {
				err = NewError(ErrUnauthenticated, "no current user")
			}
			m.errorHandler(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.evaluator.PermissionsFor(user.Role))
	})
}

// InjectRequestID creates middleware that copies the X-Request-ID header into the context.
func (m *Middleware) InjectRequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-Request-ID"); id != "" {
				r = r.WithContext(WithRequestID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
