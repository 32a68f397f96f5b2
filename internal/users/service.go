package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter policy.Filter) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, username, passwordHash string, fields map[policy.Category]string) (*User, error)
	UpdatePermissions(ctx context.Context, id int64, fields map[policy.Category]string) (*User, error)
}

// CacheInvalidator drops a subject's cached permission set.
type CacheInvalidator interface {
	Invalidate(userID int64)
}

// Service handles user management business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
	cache CacheInvalidator
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, cache CacheInvalidator) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Username            string
	Password            string
	PermissionEquipment string
	PermissionUser      string
	PermissionTodo      string
}

// PermissionInput carries replacement permission fields.
type PermissionInput struct {
	Equipment string
	User      string
	Todo      string
}

func (p PermissionInput) fields() map[policy.Category]string {
	return map[policy.Category]string{
		policy.CategoryEquipment: p.Equipment,
		policy.CategoryUser:      p.User,
		policy.CategoryTodo:      p.Todo,
	}
}

// List returns the users visible through the caller's scope filter.
func (s *Service) List(ctx context.Context, filter policy.Filter) ([]User, error) {
	return s.repo.ListUsers(ctx, filter)
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// Create registers a new account. The permission fields are parsed up
// front so an account with unloadable permissions can never be stored.
func (s *Service) Create(ctx context.Context, actorID int64, input CreateInput) (*User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, errors.New("users: username required")
	}
	fields := PermissionInput{
		Equipment: input.PermissionEquipment,
		User:      input.PermissionUser,
		Todo:      input.PermissionTodo,
	}.fields()
	if _, err := policy.Build(fields); err != nil {
		return nil, fmt.Errorf("users: validate permissions: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, username, string(hashed), fields)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "users.create", user.ID, map[string]any{"username": user.Username})
	return user, nil
}

// UpdatePermissions replaces a user's permission fields. The new fields
// must parse as a whole before anything is written; on success the
// subject's cached permission set is invalidated so the next query
// rebuilds from the stored rows.
func (s *Service) UpdatePermissions(ctx context.Context, actorID, userID int64, input PermissionInput) (*User, error) {
	fields := input.fields()
	if _, err := policy.Build(fields); err != nil {
		return nil, fmt.Errorf("users: validate permissions: %w", err)
	}

	user, err := s.repo.UpdatePermissions(ctx, userID, fields)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	s.recordAudit(ctx, actorID, "users.permissions.update", userID, map[string]any{
		"permission_equipment": input.Equipment,
		"permission_user":      input.User,
		"permission_todo":      input.Todo,
	})
	return user, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
