package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPermissionAuditScan re-parses every stored permission field and
	// reports rows that no longer load.
	TaskPermissionAuditScan = "policy:audit_scan"
)

// PermissionAuditPayload bounds one audit scan run.
type PermissionAuditPayload struct {
	BatchSize int `json:"batch_size"`
}

// NewPermissionAuditTask constructs an Asynq task for a full audit scan.
func NewPermissionAuditTask(payload PermissionAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPermissionAuditScan, data), nil
}
