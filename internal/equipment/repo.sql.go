package equipment

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

const equipmentColumns = `id, name, serial_number, status, assigned_to, notes, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListEquipment returns the assets visible through the scope filter.
func (r *Repository) ListEquipment(ctx context.Context, filter policy.Filter) ([]Equipment, error) {
	if !filter.All && len(filter.IDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM equipment`, equipmentColumns)
	if clause := filter.InClause("id"); clause != "" {
		query += " WHERE " + clause
	}
	query += " ORDER BY id"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Equipment
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetEquipment fetches one asset by id.
func (r *Repository) GetEquipment(ctx context.Context, id int64) (*Equipment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM equipment WHERE id = $1`, equipmentColumns), id)
	item, err := scanEquipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// CreateEquipment inserts a new asset in the AVAILABLE state.
func (r *Repository) CreateEquipment(ctx context.Context, input CreateInput) (*Equipment, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO equipment (name, serial_number, status, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+equipmentColumns,
		input.Name, input.SerialNumber, StatusAvailable, input.Notes,
	)
	item, err := scanEquipment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return &item, nil
}

// UpdateEquipment rewrites the mutable fields of an asset.
func (r *Repository) UpdateEquipment(ctx context.Context, id int64, input UpdateInput) (*Equipment, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE equipment
		 SET name = $2, status = $3, assigned_to = $4, notes = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+equipmentColumns,
		id, input.Name, input.Status, input.AssignedTo, input.Notes,
	)
	item, err := scanEquipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanEquipment(row pgx.Row) (Equipment, error) {
	var item Equipment
	err := row.Scan(
		&item.ID, &item.Name, &item.SerialNumber, &item.Status,
		&item.AssignedTo, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}
