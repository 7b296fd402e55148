package storage

import "time"

// Import describes one load of raw meter rows into the database.
type Import struct {
	ID         int64
	Source     string
	RowCount   int
	ImportedAt time.Time
}
