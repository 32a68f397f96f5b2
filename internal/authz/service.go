package authz

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/taskdeck/taskdeck/internal/policy"
)

// Service resolves and caches per-subject permission sets. Sets are
// immutable; a cache entry is always replaced wholesale so concurrent
// evaluations never observe a half-built set.
type Service struct {
	repo   Repository
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[int64]*policy.Set
	group singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		cache:  make(map[int64]*policy.Set),
	}
}

// PermissionSet returns the subject's permission set, loading and parsing
// the raw fields on a cache miss. A parse failure is a data error: it is
// logged and returned, never downgraded to an empty (deny-all) set.
func (s *Service) PermissionSet(ctx context.Context, userID int64) (*policy.Set, error) {
	s.mu.RLock()
	set, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		return set, nil
	}

	value, err, _ := s.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		fields, err := s.repo.PermissionFields(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("authz: load permission fields for user %d: %w", userID, err)
		}
		set, err := policy.Build(fields)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("invalid permission data",
					slog.Int64("user_id", userID),
					slog.Any("error", err))
			}
			return nil, fmt.Errorf("authz: build permission set for user %d: %w", userID, err)
		}
		s.mu.Lock()
		s.cache[userID] = set
		s.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*policy.Set), nil
}

// Invalidate drops the cached set for a subject. Callers invoke it on
// every permission change; the next query rebuilds from the stored rows.
func (s *Service) Invalidate(userID int64) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}
