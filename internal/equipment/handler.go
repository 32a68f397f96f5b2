package equipment

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskdeck/taskdeck/internal/authz"
	"github.com/taskdeck/taskdeck/internal/platform/httpx"
	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

// Handler wires HTTP endpoints for equipment management.
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

// MountRoutes registers equipment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authz.WithListFilter(policy.CategoryEquipment, policy.ActionRead)).Get("/", h.list)
	r.With(h.authz.RequireCreate(policy.CategoryEquipment)).Post("/", h.create)
	r.With(h.authz.Require(policy.CategoryEquipment, policy.ActionRead, "id")).Get("/{id}", h.get)
	r.With(h.authz.Require(policy.CategoryEquipment, policy.ActionWrite, "id")).Put("/{id}", h.update)
}

type equipmentView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Status       Status `json:"status"`
	AssignedTo   *int64 `json:"assigned_to,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

func toView(item Equipment) equipmentView {
	return equipmentView{
		ID:           item.ID,
		Name:         item.Name,
		SerialNumber: item.SerialNumber,
		Status:       item.Status,
		AssignedTo:   item.AssignedTo,
		Notes:        item.Notes,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := authz.FilterFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list equipment", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	views := make([]equipmentView, 0, len(items))
	for _, item := range items {
		views = append(views, toView(item))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"equipment": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid equipment id")
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get equipment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*item))
}

type createRequest struct {
	Name         string `json:"name" validate:"required"`
	SerialNumber string `json:"serial_number"`
	Notes        string `json:"notes"`
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
	item, err := h.service.Create(r.Context(), actorID, CreateInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Notes:        req.Notes,
	})
	if err != nil {
		h.respondError(w, "create equipment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(*item))
}

type updateRequest struct {
	Name       string `json:"name" validate:"required"`
	Status     string `json:"status" validate:"required"`
	AssignedTo *int64 `json:"assigned_to"`
	Notes      string `json:"notes"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid equipment id")
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
	item, err := h.service.Update(r.Context(), actorID, id, UpdateInput{
		Name:       req.Name,
		Status:     Status(req.Status),
		AssignedTo: req.AssignedTo,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(w, "update equipment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*item))
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "equipment not found")
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "serial number already registered")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrAssignmentRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
