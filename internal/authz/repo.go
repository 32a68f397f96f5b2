package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

// Repository loads raw permission field strings for a subject. The rows
// remain the source of truth; permission sets are rebuilt from them.
type Repository interface {
	PermissionFields(ctx context.Context, userID int64) (map[policy.Category]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// PermissionFields fetches the per-category permission strings of a user.
func (r *PGRepository) PermissionFields(ctx context.Context, userID int64) (map[policy.Category]string, error) {
	var equipment, user, todo string
	err := r.pool.QueryRow(ctx,
		`SELECT permission_equipment, permission_user, permission_todo FROM users WHERE id = $1`,
		userID,
	).Scan(&equipment, &user, &todo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return map[policy.Category]string{
		policy.CategoryEquipment: equipment,
		policy.CategoryUser:      user,
		policy.CategoryTodo:      todo,
	}, nil
}

var _ Repository = (*PGRepository)(nil)
