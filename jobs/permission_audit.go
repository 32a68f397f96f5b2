package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/taskdeck/taskdeck/internal/jobs"
	"github.com/taskdeck/taskdeck/internal/policy"
)

// PermissionAuditJob walks the users table and re-parses every stored
// permission field. A row that fails to parse would lock its subject out
// at the next login, so each one is logged with enough detail to repair
// it by hand.
type PermissionAuditJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPermissionAuditJob initialises the audit scan handler.
func NewPermissionAuditJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *PermissionAuditJob {
	return &PermissionAuditJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the audit scan.
func (j *PermissionAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("permission audit: handler not configured")
	}
	var payload PermissionAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = 500
	}

	start := time.Now()
	tracker := j.Metrics.Track(TaskPermissionAuditScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting permission audit scan", slog.Int("batch_size", payload.BatchSize))

	scanned, malformed, err := j.scan(ctx, payload.BatchSize)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed permission audit scan",
		slog.Int("users", scanned),
		slog.Int("malformed_fields", malformed),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *PermissionAuditJob) scan(ctx context.Context, batchSize int) (int, int, error) {
	if j.Pool == nil {
		return 0, 0, errors.New("permission audit: pool not configured")
	}

	logger := j.logger()
	scanned := 0
	malformed := 0
	var afterID int64

	for {
		rows, err := j.Pool.Query(ctx,
			`SELECT id, username, permission_equipment, permission_user, permission_todo
			 FROM users
			 WHERE id > $1
			 ORDER BY id
			 LIMIT $2`,
			afterID, batchSize,
		)
		if err != nil {
			return scanned, malformed, err
		}

		type userRow struct {
			id       int64
			username string
			fields   map[policy.Category]string
		}
		var batch []userRow
		for rows.Next() {
			var row userRow
			row.fields = make(map[policy.Category]string, 3)
			var equipmentField, userField, todoField string
			if err := rows.Scan(&row.id, &row.username, &equipmentField, &userField, &todoField); err != nil {
				rows.Close()
				return scanned, malformed, err
			}
			row.fields[policy.CategoryEquipment] = equipmentField
			row.fields[policy.CategoryUser] = userField
			row.fields[policy.CategoryTodo] = todoField
			batch = append(batch, row)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return scanned, malformed, err
		}
		if len(batch) == 0 {
			return scanned, malformed, nil
		}

		for _, row := range batch {
			scanned++
			afterID = row.id
			for category, field := range row.fields {
				if _, err := policy.Build(map[policy.Category]string{category: field}); err != nil {
					malformed++
					j.Metrics.AddMalformedFields(string(category), 1)
					logger.Warn("malformed permission field",
						slog.Int64("user_id", row.id),
						slog.String("username", row.username),
						slog.String("category", string(category)),
						slog.String("field", field),
						slog.Any("error", err),
					)
				}
			}
		}
	}
}

func (j *PermissionAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPermissionAuditScan))
	}
	return slog.Default().With(slog.String("job", TaskPermissionAuditScan))
}
