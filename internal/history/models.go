package history

import "time"

// Outcome is the terminal state of one ingest candidate.
type Outcome string

const (
	OutcomeMoved  Outcome = "moved"
	OutcomeFailed Outcome = "failed"
)

// Run is one recorded ingest run.
type Run struct {
	ID              string
	SourcePath      string
	DestinationRoot string
	StartedAt       time.Time
	FinishedAt      *time.Time
	SuccessCount    int
	FailCount       int
	BytesMoved      int64
}

// Move is one recorded candidate outcome within a run.
type Move struct {
	ID         int64
	RunID      string
	SourcePath string
	DestPath   string
	Outcome    Outcome
	Detail     string
	Bytes      int64
	CreatedAt  time.Time
}
