// Package ingest moves photos from a source tree into date-organized
// Capture One session folders. A batch runs to completion on one worker
// goroutine; per-candidate failures are recorded and skipped, and only the
// two run-level preconditions (missing source, unresolvable destination
// label) abort a run.
package ingest
