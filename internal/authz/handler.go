package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/platform/httpx"
	"github.com/taskdeck/taskdeck/internal/policy"
)

// Handler exposes the caller's resolved grants for introspection.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers authz routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.showPermissions)
}

type grantView struct {
	Category string   `json:"category"`
	Action   string   `json:"action"`
	Scopes   []string `json:"scopes"`
}

func (h *Handler) showPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := SubjectID(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	set, err := h.service.PermissionSet(r.Context(), userID)
	if err != nil {
		h.logger.Error("load permission set", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	grants := make([]grantView, 0)
	for _, category := range set.Categories() {
		for _, action := range []policy.Action{policy.ActionRead, policy.ActionWrite, policy.ActionCreate} {
			scopes := set.ScopesFor(category, action)
			if len(scopes) == 0 {
				continue
			}
			view := grantView{Category: string(category), Action: string(action)}
			for _, scope := range scopes {
				view.Scopes = append(view.Scopes, scope.String())
			}
			grants = append(grants, view)
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "grants": grants})
}
