package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/platform/httpx"
	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

// DecisionRecorder observes authorization outcomes, e.g. for metrics.
type DecisionRecorder interface {
	ObserveDecision(category, action string, allowed bool)
}

// Middleware wires policy authorization into HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Metrics DecisionRecorder
}

type filterContextKey struct{}

// Require authorizes a single-resource check: the target id is read from
// the named chi URL parameter.
func (m Middleware) Require(category policy.Category, action policy.Action, idParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resourceID, err := strconv.ParseInt(chi.URLParam(r, idParam), 10, 64)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid resource id")
				return
			}
			m.authorize(w, r, next, category, action, resourceID)
		})
	}
}

// RequireCreate authorizes the category-global CREATE capability.
func (m Middleware) RequireCreate(category policy.Category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.authorize(w, r, next, category, policy.ActionCreate, 0)
		})
	}
}

// WithListFilter resolves the row-level scope filter for list queries and
// stores it in the request context for repositories to apply.
func (m Middleware) WithListFilter(category policy.Category, action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set, ok := m.permissionSet(w, r)
			if !ok {
				return
			}
			filter, err := set.ListFilter(category, action)
			if err != nil {
				m.logError(r, "resolve list filter", err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			ctx := context.WithValue(r.Context(), filterContextKey{}, filter)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FilterFromContext extracts the scope filter placed by WithListFilter.
func FilterFromContext(ctx context.Context) (policy.Filter, bool) {
	filter, ok := ctx.Value(filterContextKey{}).(policy.Filter)
	return filter, ok
}

// SubjectID returns the authenticated user id carried by the session.
func SubjectID(ctx context.Context) (int64, bool) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (m Middleware) authorize(w http.ResponseWriter, r *http.Request, next http.Handler, category policy.Category, action policy.Action, resourceID int64) {
	set, ok := m.permissionSet(w, r)
	if !ok {
		return
	}
	verdict, err := set.Authorize(category, action, resourceID)
	if err != nil {
		// Unknown category is a caller bug, not a deny.
		m.logError(r, "authorize", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if m.Metrics != nil {
		m.Metrics.ObserveDecision(string(category), string(action), verdict.Allowed)
	}
	if verdict.Reason == policy.ReasonCreateResourceScope && m.Logger != nil {
		m.Logger.Warn("resource-scoped CREATE grant ignored",
			slog.String("category", string(category)),
			slog.String("path", r.URL.Path))
	}
	if !verdict.Allowed {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	next.ServeHTTP(w, r)
}

func (m Middleware) permissionSet(w http.ResponseWriter, r *http.Request) (*policy.Set, bool) {
	userID, ok := SubjectID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return nil, false
	}
	set, err := m.Service.PermissionSet(r.Context(), userID)
	if err != nil {
		// Invalid permission data must surface as a failure, never pass
		// for an ordinary deny.
		m.logError(r, "load permission set", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, false
	}
	return set, true
}

func (m Middleware) logError(r *http.Request, msg string, err error) {
	if m.Logger == nil {
		return
	}
	m.Logger.Error(msg, slog.Any("error", err), slog.String("path", r.URL.Path))
}
