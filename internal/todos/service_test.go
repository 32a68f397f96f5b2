package todos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

type fakeRepo struct {
	items  map[int64]*Todo
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]*Todo{}, nextID: 1}
}

func (f *fakeRepo) ListTodos(_ context.Context, filter policy.Filter, limit, offset int) ([]Todo, error) {
	var out []Todo
	for id := int64(1); id < f.nextID; id++ {
		item, ok := f.items[id]
		if !ok || !filter.Match(item.ID) {
			continue
		}
		out = append(out, *item)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CountTodos(_ context.Context, filter policy.Filter) (int, error) {
	count := 0
	for _, item := range f.items {
		if filter.Match(item.ID) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) GetTodo(_ context.Context, id int64) (*Todo, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) CreateTodo(_ context.Context, person int64, title string) (*Todo, error) {
	item := &Todo{ID: f.nextID, Person: person, Title: title}
	f.items[item.ID] = item
	f.nextID++
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) UpdateTodo(_ context.Context, id int64, title string, completed bool) (*Todo, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	item.Title = title
	item.Completed = completed
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) DeleteTodo(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func TestCreateAssignsOwnerToActor(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	item, err := svc.Create(context.Background(), 42, "write release notes")
	require.NoError(t, err)
	assert.Equal(t, int64(42), item.Person)
	assert.False(t, item.Completed)
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), 42, "   ")
	require.Error(t, err)
}

func TestCompleteKeepsTitle(t *testing.T) {
	repo := newFakeRepo()
	seed, err := repo.CreateTodo(context.Background(), 1, "ship it")
	require.NoError(t, err)

	svc := NewService(repo, nil)
	item, err := svc.Complete(context.Background(), 1, seed.ID)
	require.NoError(t, err)
	assert.True(t, item.Completed)
	assert.Equal(t, "ship it", item.Title)
}

func TestDeleteMissingTodo(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	err := svc.Delete(context.Background(), 1, 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListHonoursScopeFilter(t *testing.T) {
	repo := newFakeRepo()
	for _, title := range []string{"a", "b", "c"} {
		_, err := repo.CreateTodo(context.Background(), 1, title)
		require.NoError(t, err)
	}

	svc := NewService(repo, nil)

	items, pagination, err := svc.List(context.Background(), policy.Filter{All: true}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 3, pagination.Total)

	items, _, err = svc.List(context.Background(), policy.Filter{IDs: []int64{2}}, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Title)
}

func TestListPaginates(t *testing.T) {
	repo := newFakeRepo()
	for i := 0; i < 5; i++ {
		_, err := repo.CreateTodo(context.Background(), 1, "task")
		require.NoError(t, err)
	}

	svc := NewService(repo, nil)
	items, pagination, err := svc.List(context.Background(), policy.Filter{All: true}, 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, 3, pagination.TotalPages)
}
