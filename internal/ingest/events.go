package ingest

// EventKind discriminates the events a running ingest emits.
type EventKind string

const (
	// EventLog carries a human-readable progress line.
	EventLog EventKind = "log"
	// EventMoved reports one candidate landing in its session.
	EventMoved EventKind = "moved"
	// EventFailed reports one candidate ending in a failure record.
	EventFailed EventKind = "failed"
	// EventProgress carries the completion fraction after each candidate,
	// regardless of its outcome.
	EventProgress EventKind = "progress"
)

// Event is one notification from the worker. Events are emitted
// synchronously from the worker goroutine; consumers that drive a UI must
// marshal onto their own execution context.
type Event struct {
	Kind    EventKind
	Message string

	// Progress fields, set on EventProgress.
	Index   int
	Total   int
	Percent float64

	// File fields, set on EventMoved / EventFailed.
	Source string
	Dest   string
	Bytes  int64
}

// Result aggregates a completed ingest run. It is immutable once returned.
type Result struct {
	Total      int
	Succeeded  int
	Failed     int
	BytesMoved int64
	// Errors holds one human-readable message per failure, in candidate
	// order. A fatal precondition leaves a single explanatory entry.
	Errors []string
}
