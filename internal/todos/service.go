package todos

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
	ListTodos(ctx context.Context, filter policy.Filter, limit, offset int) ([]Todo, error)
	CountTodos(ctx context.Context, filter policy.Filter) (int, error)
	GetTodo(ctx context.Context, id int64) (*Todo, error)
	CreateTodo(ctx context.Context, person int64, title string) (*Todo, error)
	UpdateTodo(ctx context.Context, id int64, title string, completed bool) (*Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
}

// Service coordinates task operations.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns one page of the tasks visible through the caller's scope
// filter, along with pagination metadata.
func (s *Service) List(ctx context.Context, filter policy.Filter, page, perPage int) ([]Todo, shared.Pagination, error) {
	total, err := s.repo.CountTodos(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	items, err := s.repo.ListTodos(ctx, filter, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, p, nil
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id int64) (*Todo, error) {
	return s.repo.GetTodo(ctx, id)
}

// Create opens a new task owned by the calling subject.
func (s *Service) Create(ctx context.Context, actorID int64, title string) (*Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("todos: title required")
	}
	item, err := s.repo.CreateTodo(ctx, actorID, title)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "todos.create", item.ID, map[string]any{"title": item.Title})
	return item, nil
}

// Update rewrites a task's title and completion flag.
func (s *Service) Update(ctx context.Context, actorID, id int64, title string, completed bool) (*Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("todos: title required")
	}
	item, err := s.repo.UpdateTodo(ctx, id, title, completed)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "todos.update", id, map[string]any{"completed": completed})
	return item, nil
}

// Complete marks a task as done, keeping its title.
func (s *Service) Complete(ctx context.Context, actorID, id int64) (*Todo, error) {
	current, err := s.repo.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.UpdateTodo(ctx, id, current.Title, true)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "todos.complete", id, nil)
	return item, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.DeleteTodo(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "todos.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "todo",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
