package todos

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

// Handler wires HTTP endpoints for tasks.
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

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authz.WithListFilter(policy.CategoryTodo, policy.ActionRead)).Get("/", h.list)
	r.With(h.authz.RequireCreate(policy.CategoryTodo)).Post("/", h.create)
	r.With(h.authz.Require(policy.CategoryTodo, policy.ActionRead, "id")).Get("/{id}", h.get)
	r.With(h.authz.Require(policy.CategoryTodo, policy.ActionWrite, "id")).Put("/{id}", h.update)
	r.With(h.authz.Require(policy.CategoryTodo, policy.ActionWrite, "id")).Post("/{id}/complete", h.complete)
	r.With(h.authz.Require(policy.CategoryTodo, policy.ActionWrite, "id")).Delete("/{id}", h.remove)
}

type todoView struct {
	ID        int64     `json:"id"`
	Person    int64     `json:"person"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func toView(item Todo) todoView {
	return todoView{
		ID:        item.ID,
		Person:    item.Person,
		Title:     item.Title,
		Completed: item.Completed,
		CreatedAt: item.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := authz.FilterFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, pagination, err := h.service.List(r.Context(), filter, page, perPage)
	if err != nil {
		h.logger.Error("list todos", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	views := make([]todoView, 0, len(items))
	for _, item := range items {
		views = append(views, toView(item))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"todos": views, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid todo id")
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get todo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*item))
}

type createRequest struct {
	Title string `json:"title" validate:"required"`
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
	item, err := h.service.Create(r.Context(), actorID, req.Title)
	if err != nil {
		h.respondError(w, "create todo", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(*item))
}

type updateRequest struct {
	Title     string `json:"title" validate:"required"`
	Completed bool   `json:"completed"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid todo id")
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actorID, _ := authz.SubjectID(r.Context())
	item, err := h.service.Update(r.Context(), actorID, id, req.Title, req.Completed)
	if err != nil {
		h.respondError(w, "update todo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*item))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid todo id")
		return
	}
	actorID, _ := authz.SubjectID(r.Context())
	item, err := h.service.Complete(r.Context(), actorID, id)
	if err != nil {
		h.respondError(w, "complete todo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*item))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid todo id")
		return
	}
	actorID, _ := authz.SubjectID(r.Context())
	if err := h.service.Delete(r.Context(), actorID, id); err != nil {
		h.respondError(w, "delete todo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "todo not found")
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
