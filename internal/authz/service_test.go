package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/policy"
)

type stubRepo struct {
	fields map[int64]map[policy.Category]string
	calls  int
	err    error
}

func (s *stubRepo) PermissionFields(ctx context.Context, userID int64) (map[policy.Category]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	fields, ok := s.fields[userID]
	if !ok {
		return nil, context.Canceled
	}
	return fields, nil
}

func TestPermissionSetCachesPerSubject(t *testing.T) {
	repo := &stubRepo{fields: map[int64]map[policy.Category]string{
		1: {policy.CategoryTodo: "READ(*)|CREATE(true)"},
	}}
	service := NewService(repo, nil)

	first, err := service.PermissionSet(context.Background(), 1)
	require.NoError(t, err)
	second, err := service.PermissionSet(context.Background(), 1)
	require.NoError(t, err)

	assert.Same(t, first, second, "cached set must be reused")
	assert.Equal(t, 1, repo.calls)

	verdict, err := first.Authorize(policy.CategoryTodo, policy.ActionRead, 42)
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}

func TestPermissionSetParseErrorSurfaces(t *testing.T) {
	repo := &stubRepo{fields: map[int64]map[policy.Category]string{
		1: {policy.CategoryTodo: "REED(*)"},
	}}
	service := NewService(repo, nil)

	set, err := service.PermissionSet(context.Background(), 1)
	require.Nil(t, set)
	require.ErrorIs(t, err, policy.ErrMalformedField)

	// A failed build must not poison the cache with a deny-all set.
	repo.fields[1][policy.CategoryTodo] = "READ(1)"
	set, err = service.PermissionSet(context.Background(), 1)
	require.NoError(t, err)
	verdict, err := set.Authorize(policy.CategoryTodo, policy.ActionRead, 1)
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}

func TestInvalidateDropsCachedSet(t *testing.T) {
	repo := &stubRepo{fields: map[int64]map[policy.Category]string{
		1: {policy.CategoryTodo: "READ(1)"},
	}}
	service := NewService(repo, nil)

	old, err := service.PermissionSet(context.Background(), 1)
	require.NoError(t, err)

	repo.fields[1][policy.CategoryTodo] = "READ(2)"
	service.Invalidate(1)

	rebuilt, err := service.PermissionSet(context.Background(), 1)
	require.NoError(t, err)
	assert.NotSame(t, old, rebuilt)
	assert.Equal(t, 2, repo.calls)

	verdict, err := rebuilt.Authorize(policy.CategoryTodo, policy.ActionRead, 2)
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}
