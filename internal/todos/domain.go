package todos

import "time"

// Todo models one task row. Person is the id of the owning user.
type Todo struct {
	ID        int64
	Person    int64
	Title     string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
