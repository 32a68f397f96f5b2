package equipment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

type fakeRepo struct {
	items  map[int64]*Equipment
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]*Equipment{}, nextID: 1}
}

func (f *fakeRepo) ListEquipment(_ context.Context, filter policy.Filter) ([]Equipment, error) {
	var out []Equipment
	for _, item := range f.items {
		if filter.Match(item.ID) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetEquipment(_ context.Context, id int64) (*Equipment, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) CreateEquipment(_ context.Context, input CreateInput) (*Equipment, error) {
	item := &Equipment{
		ID:           f.nextID,
		Name:         input.Name,
		SerialNumber: input.SerialNumber,
		Status:       StatusAvailable,
		Notes:        input.Notes,
	}
	f.items[item.ID] = item
	f.nextID++
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) UpdateEquipment(_ context.Context, id int64, input UpdateInput) (*Equipment, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	item.Name = input.Name
	item.Status = input.Status
	item.AssignedTo = input.AssignedTo
	item.Notes = input.Notes
	copied := *item
	return &copied, nil
}

func TestCreateStartsAvailable(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	item, err := svc.Create(context.Background(), 1, CreateInput{Name: "Drill Press", SerialNumber: "DP-100"})
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, item.Status)
	assert.Nil(t, item.AssignedTo)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), 1, CreateInput{Name: "  "})
	require.Error(t, err)
}

func TestUpdateCheckedOutNeedsAssignee(t *testing.T) {
	repo := newFakeRepo()
	seed, err := repo.CreateEquipment(context.Background(), CreateInput{Name: "Laptop"})
	require.NoError(t, err)

	svc := NewService(repo, nil)
	_, err = svc.Update(context.Background(), 1, seed.ID, UpdateInput{Name: "Laptop", Status: StatusCheckedOut})
	require.ErrorIs(t, err, ErrAssignmentRequired)
}

func TestUpdateClearsAssigneeWhenReturned(t *testing.T) {
	repo := newFakeRepo()
	seed, err := repo.CreateEquipment(context.Background(), CreateInput{Name: "Laptop"})
	require.NoError(t, err)

	svc := NewService(repo, nil)
	holder := int64(7)
	out, err := svc.Update(context.Background(), 1, seed.ID, UpdateInput{Name: "Laptop", Status: StatusCheckedOut, AssignedTo: &holder})
	require.NoError(t, err)
	require.NotNil(t, out.AssignedTo)

	out, err = svc.Update(context.Background(), 1, seed.ID, UpdateInput{Name: "Laptop", Status: StatusAvailable, AssignedTo: &holder})
	require.NoError(t, err)
	assert.Nil(t, out.AssignedTo)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	repo := newFakeRepo()
	seed, err := repo.CreateEquipment(context.Background(), CreateInput{Name: "Scanner"})
	require.NoError(t, err)

	svc := NewService(repo, nil)
	_, err = svc.Update(context.Background(), 1, seed.ID, UpdateInput{Name: "Scanner", Status: "LOST"})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListHonoursScopeFilter(t *testing.T) {
	repo := newFakeRepo()
	for _, name := range []string{"A", "B", "C"} {
		_, err := repo.CreateEquipment(context.Background(), CreateInput{Name: name})
		require.NoError(t, err)
	}

	svc := NewService(repo, nil)
	items, err := svc.List(context.Background(), policy.Filter{IDs: []int64{1, 3}})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
