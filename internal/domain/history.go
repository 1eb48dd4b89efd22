package domain

import "time"

// IngestHistoryEntry is an append-only record of a status transition during
// an ingest run: one row at run start (processing) and one at terminal
// success or failure.
type IngestHistoryEntry struct {
	ID          int64
	SourceID    string
	TenantID    string
	Status      IngestStatus
	Detail      string
	TriggeredAt time.Time
}
