package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

const userColumns = `id, username, is_active, permission_equipment, permission_user, permission_todo, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns the users visible through the scope filter.
func (r *Repository) ListUsers(ctx context.Context, filter policy.Filter) ([]User, error) {
	if !filter.All && len(filter.IDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM users`, userColumns)
	if clause := filter.InClause("id"); clause != "" {
		query += " WHERE " + clause
	}
	query += " ORDER BY id"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUser fetches one user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns), id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new account with its permission fields.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string, fields map[policy.Category]string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, is_active, permission_equipment, permission_user, permission_todo)
		 VALUES ($1, $2, TRUE, $3, $4, $5)
		 RETURNING `+userColumns,
		username, passwordHash,
		fields[policy.CategoryEquipment], fields[policy.CategoryUser], fields[policy.CategoryTodo],
	)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

// UpdatePermissions replaces all three permission fields at once. The
// row is always rewritten wholesale so a reader never sees a mix of old
// and new categories.
func (r *Repository) UpdatePermissions(ctx context.Context, id int64, fields map[policy.Category]string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET permission_equipment = $2, permission_user = $3, permission_todo = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id,
		fields[policy.CategoryEquipment], fields[policy.CategoryUser], fields[policy.CategoryTodo],
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Username, &user.IsActive,
		&user.PermissionEquipment, &user.PermissionUser, &user.PermissionTodo,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}
