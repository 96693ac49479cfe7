// Package history keeps an audit trail of ingest runs in SQLite: one row per
// run and one row per candidate outcome. It exists for inspection after the
// fact, not for crash resume; recording is best-effort and the engine runs
// fine without it.
package history
