package equipment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	ListEquipment(ctx context.Context, filter policy.Filter) ([]Equipment, error)
	GetEquipment(ctx context.Context, id int64) (*Equipment, error)
	CreateEquipment(ctx context.Context, input CreateInput) (*Equipment, error)
	UpdateEquipment(ctx context.Context, id int64, input UpdateInput) (*Equipment, error)
}

// Service coordinates asset operations.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the assets visible through the caller's scope filter.
func (s *Service) List(ctx context.Context, filter policy.Filter) ([]Equipment, error) {
	return s.repo.ListEquipment(ctx, filter)
}

// Get fetches one asset.
func (s *Service) Get(ctx context.Context, id int64) (*Equipment, error) {
	return s.repo.GetEquipment(ctx, id)
}

// Create registers a new asset.
func (s *Service) Create(ctx context.Context, actorID int64, input CreateInput) (*Equipment, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, errors.New("equipment: name required")
	}
	item, err := s.repo.CreateEquipment(ctx, input)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "equipment.create", item.ID, map[string]any{"name": item.Name})
	return item, nil
}

// Update rewrites an asset's mutable fields. A CHECKED_OUT status must
// carry an assignee and any other status clears it.
func (s *Service) Update(ctx context.Context, actorID, id int64, input UpdateInput) (*Equipment, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, errors.New("equipment: name required")
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Status == StatusCheckedOut {
		if input.AssignedTo == nil {
			return nil, ErrAssignmentRequired
		}
	} else {
		input.AssignedTo = nil
	}

	item, err := s.repo.UpdateEquipment(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "equipment.update", id, map[string]any{
		"name":   input.Name,
		"status": string(input.Status),
	})
	return item, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "equipment",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
