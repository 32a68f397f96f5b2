package todos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/shared"
)

const todoColumns = `id, person, title, completed, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTodos returns one page of the tasks visible through the scope filter.
func (r *Repository) ListTodos(ctx context.Context, filter policy.Filter, limit, offset int) ([]Todo, error) {
	if !filter.All && len(filter.IDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM todos`, todoColumns)
	if clause := filter.InClause("id"); clause != "" {
		query += " WHERE " + clause
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Todo
	for rows.Next() {
		item, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountTodos counts the tasks visible through the scope filter.
func (r *Repository) CountTodos(ctx context.Context, filter policy.Filter) (int, error) {
	if !filter.All && len(filter.IDs) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(*) FROM todos`
	if clause := filter.InClause("id"); clause != "" {
		query += " WHERE " + clause
	}
	var total int
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// GetTodo fetches one task by id.
func (r *Repository) GetTodo(ctx context.Context, id int64) (*Todo, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM todos WHERE id = $1`, todoColumns), id)
	item, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// CreateTodo inserts a new open task owned by person.
func (r *Repository) CreateTodo(ctx context.Context, person int64, title string) (*Todo, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO todos (person, title, completed)
		 VALUES ($1, $2, FALSE)
		 RETURNING `+todoColumns,
		person, title,
	)
	item, err := scanTodo(row)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateTodo rewrites the title and completion flag of a task.
func (r *Repository) UpdateTodo(ctx context.Context, id int64, title string, completed bool) (*Todo, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE todos
		 SET title = $2, completed = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+todoColumns,
		id, title, completed,
	)
	item, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// DeleteTodo removes a task.
func (r *Repository) DeleteTodo(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTodo(row pgx.Row) (Todo, error) {
	var item Todo
	err := row.Scan(
		&item.ID, &item.Person, &item.Title, &item.Completed,
		&item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}
