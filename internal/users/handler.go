package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskdeck/taskdeck/internal/authz"
	"github.com/taskdeck/taskdeck/internal/platform/httpx"
	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

// Handler wires HTTP endpoints for user management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authz.WithListFilter(policy.CategoryUser, policy.ActionRead)).Get("/", h.list)
	r.With(h.authz.RequireCreate(policy.CategoryUser)).Post("/", h.create)
	r.With(h.authz.Require(policy.CategoryUser, policy.ActionRead, "id")).Get("/{id}", h.get)
	r.With(h.authz.Require(policy.CategoryUser, policy.ActionWrite, "id")).Put("/{id}/permissions", h.updatePermissions)
}

type userView struct {
	ID                  int64     `json:"id"`
	Username            string    `json:"username"`
	IsActive            bool      `json:"is_active"`
	PermissionEquipment string    `json:"permission_equipment"`
	PermissionUser      string    `json:"permission_user"`
	PermissionTodo      string    `json:"permission_todo"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toView(user User) userView {
	return userView{
		ID:                  user.ID,
		Username:            user.Username,
		IsActive:            user.IsActive,
		PermissionEquipment: user.PermissionEquipment,
		PermissionUser:      user.PermissionUser,
		PermissionTodo:      user.PermissionTodo,
		CreatedAt:           user.CreatedAt,
		UpdatedAt:           user.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := authz.FilterFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	users, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, toView(user))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*user))
}

type createRequest struct {
	Username            string `json:"username" validate:"required,min=3"`
	Password            string `json:"password" validate:"required,min=8"`
	PermissionEquipment string `json:"permission_equipment"`
	PermissionUser      string `json:"permission_user"`
	PermissionTodo      string `json:"permission_todo"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actorID, _ := authz.SubjectID(r.Context())
	user, err := h.service.Create(r.Context(), actorID, CreateInput{
		Username:            req.Username,
		Password:            req.Password,
		PermissionEquipment: req.PermissionEquipment,
		PermissionUser:      req.PermissionUser,
		PermissionTodo:      req.PermissionTodo,
	})
	if err != nil {
		h.respondError(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(*user))
}

type permissionsRequest struct {
	PermissionEquipment string `json:"permission_equipment"`
	PermissionUser      string `json:"permission_user"`
	PermissionTodo      string `json:"permission_todo"`
}

func (h *Handler) updatePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req permissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	actorID, _ := authz.SubjectID(r.Context())
	user, err := h.service.UpdatePermissions(r.Context(), actorID, id, PermissionInput{
		Equipment: req.PermissionEquipment,
		User:      req.PermissionUser,
		Todo:      req.PermissionTodo,
	})
	if err != nil {
		h.respondError(w, "update permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*user))
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "username already taken")
	case errors.Is(err, policy.ErrMalformedField),
		errors.Is(err, policy.ErrInvalidScopeForAction),
		errors.Is(err, policy.ErrScopeCategoryMismatch):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Permission Field", err.Error())
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
