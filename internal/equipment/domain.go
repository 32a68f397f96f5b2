package equipment

import (
	"errors"
	"time"
)

// Status enumerates the lifecycle states of a tracked asset.
type Status string

const (
	// StatusAvailable means the asset can be checked out.
	StatusAvailable Status = "AVAILABLE"
	// StatusCheckedOut means the asset is assigned to a user.
	StatusCheckedOut Status = "CHECKED_OUT"
	// StatusMaintenance marks the asset as temporarily out of service.
	StatusMaintenance Status = "MAINTENANCE"
	// StatusRetired marks the asset as permanently withdrawn.
	StatusRetired Status = "RETIRED"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusCheckedOut, StatusMaintenance, StatusRetired:
		return true
	}
	return false
}

// Equipment models a tracked asset.
type Equipment struct {
	ID           int64
	Name         string
	SerialNumber string
	Status       Status
	AssignedTo   *int64
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput describes a new asset.
type CreateInput struct {
	Name         string
	SerialNumber string
	Notes        string
}

// UpdateInput describes changes to an existing asset.
type UpdateInput struct {
	Name       string
	Status     Status
	AssignedTo *int64
	Notes      string
}

// ErrInvalidStatus indicates an unknown status value.
var ErrInvalidStatus = errors.New("equipment: invalid status")

// ErrAssignmentRequired indicates CHECKED_OUT without an assignee.
var ErrAssignmentRequired = errors.New("equipment: checked out asset needs an assignee")
