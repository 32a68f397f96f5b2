package users

import (
	"time"

	"github.com/taskdeck/taskdeck/internal/policy"
)

// User represents a managed user account with its raw permission fields.
// The string fields are the persisted source of truth for the subject's
// permission set.
type User struct {
	ID                  int64
	Username            string
	IsActive            bool
	PermissionEquipment string
	PermissionUser      string
	PermissionTodo      string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PermissionFields groups the raw fields by category for parsing.
func (u User) PermissionFields() map[policy.Category]string {
	return map[policy.Category]string{
		policy.CategoryEquipment: u.PermissionEquipment,
		policy.CategoryUser:      u.PermissionUser,
		policy.CategoryTodo:      u.PermissionTodo,
	}
}
