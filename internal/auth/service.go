package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

// PermissionResolver builds the permission set for a subject. Resolving
// at login time means an account with unparseable permission data cannot
// authenticate at all.
type PermissionResolver interface {
	PermissionSet(ctx context.Context, userID int64) (*policy.Set, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo        Repository
	permissions PermissionResolver
}

// NewService constructs a new Service.
func NewService(repo Repository, permissions PermissionResolver) *Service {
	return &Service{repo: repo, permissions: permissions}
}

// Authenticate validates username/password credentials and resolves the
// subject's permission set. A permission parse failure is returned as-is
// so callers can tell misconfiguration apart from bad credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, *policy.Set, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	set, err := s.permissions.PermissionSet(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: resolve permissions: %w", err)
	}
	return user, set, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
