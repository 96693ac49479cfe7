package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"hopper/internal/config"
	"hopper/internal/exifdate"
	"hopper/internal/fileutil"
	"hopper/internal/history"
	"hopper/internal/logging"
	"hopper/internal/pathplan"
	"hopper/internal/session"
	"hopper/internal/volume"
)

// ErrSourceMissing is the fatal precondition for an invalid or absent
// source root.
var ErrSourceMissing = errors.New("source path is invalid or does not exist")

// maxCollisionAttempts bounds the numeric-suffix search for a free
// destination filename.
const maxCollisionAttempts = 10000

// Engine orchestrates one ingest batch: walk the source tree, filter by
// extension, resolve each file's capture date, place it in a session folder
// on the destination volume. Exactly one batch runs at a time; the caller
// upholds that (the CLI holds a file lock).
type Engine struct {
	cfg      *config.Store
	volumes  volume.Enumerator
	dates    *exifdate.Extractor
	sessions *session.Locator
	store    *history.Store // optional; nil disables recording
	logger   *slog.Logger
}

// NewEngine wires an engine from its collaborators. store may be nil.
func NewEngine(cfg *config.Store, volumes volume.Enumerator, dates *exifdate.Extractor, store *history.Store, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		volumes:  volumes,
		dates:    dates,
		sessions: session.NewLocator(cfg.TemplatePath(), logger),
		store:    store,
		logger:   logging.NewComponentLogger(logger, "ingest"),
	}
}

// Handle exposes a running ingest: a stream of events and the final result.
type Handle struct {
	events chan Event
	done   chan struct{}
	result *Result
	err    error
}

// Events returns the event stream. It is closed when the run completes; the
// final result is then available from Wait.
func (h *Handle) Events() <-chan Event { return h.events }

// Wait blocks until the run completes and returns its result. The error is
// non-nil only for the fatal run-level preconditions; per-file failures are
// reported through the result counters instead.
func (h *Handle) Wait() (*Result, error) {
	<-h.done
	return h.result, h.err
}

// Start launches the batch on a worker goroutine and returns immediately.
func (e *Engine) Start(ctx context.Context) *Handle {
	h := &Handle{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		h.result, h.err = e.run(ctx, func(ev Event) {
			select {
			case h.events <- ev:
			case <-ctx.Done():
			}
		})
		close(h.events)
	}()
	return h
}

// Run executes the batch synchronously, discarding events. Intended for
// tests and embedding.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	return e.run(ctx, func(Event) {})
}

func (e *Engine) run(ctx context.Context, emit func(Event)) (*Result, error) {
	result := &Result{}

	source := e.cfg.SourcePath()
	if source == "" {
		return fatal(result, ErrSourceMissing)
	}
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return fatal(result, ErrSourceMissing)
	}

	label := e.cfg.DestinationVolumeLabel()
	root, err := volume.Resolve(ctx, e.volumes, label)
	if err != nil {
		return fatal(result, fmt.Errorf("resolve destination volume: %w", err))
	}

	e.logf(emit, "Source: %s", source)
	e.logf(emit, "Destination: %s (volume %q)", root, label)

	candidates, err := e.scan(source)
	if err != nil {
		return fatal(result, fmt.Errorf("scan source tree: %w", err))
	}
	result.Total = len(candidates)
	e.logf(emit, "Found %d files to process", len(candidates))

	runID := e.beginHistory(ctx, source, root)

	patterns := pathplan.Patterns{
		YearFormat:    e.cfg.YearFormat(),
		MonthFormat:   e.cfg.MonthFormat(),
		SessionFormat: e.cfg.SessionFormat(),
	}

	for idx, candidate := range candidates {
		dest, bytes, procErr := e.processCandidate(root, candidate, patterns)
		name := filepath.Base(candidate)
		if procErr != nil {
			result.Failed++
			msg := fmt.Sprintf("failed: %s: %v", name, procErr)
			result.Errors = append(result.Errors, msg)
			e.logger.Warn("candidate failed", logging.String("file", candidate), logging.Error(procErr))
			emit(Event{Kind: EventFailed, Message: msg, Source: candidate})
			e.recordMove(ctx, runID, history.Move{
				SourcePath: candidate,
				Outcome:    history.OutcomeFailed,
				Detail:     procErr.Error(),
			})
		} else {
			result.Succeeded++
			result.BytesMoved += bytes
			msg := fmt.Sprintf("moved: %s -> %s (%s)", name, dest, humanize.IBytes(uint64(bytes)))
			e.logger.Info("candidate moved",
				logging.String("file", name),
				logging.String("dest", dest),
				logging.Int64("bytes", bytes))
			emit(Event{Kind: EventMoved, Message: msg, Source: candidate, Dest: dest, Bytes: bytes})
			e.recordMove(ctx, runID, history.Move{
				SourcePath: candidate,
				DestPath:   dest,
				Outcome:    history.OutcomeMoved,
				Bytes:      bytes,
			})
		}

		emit(Event{
			Kind:    EventProgress,
			Index:   idx + 1,
			Total:   len(candidates),
			Percent: float64(idx+1) / float64(len(candidates)) * 100,
		})
	}

	e.finishHistory(ctx, runID, result)
	e.logf(emit, "Ingest complete: %d moved, %d failed", result.Succeeded, result.Failed)
	return result, nil
}

// fatal records the single run-level explanation and short-circuits with
// zero files processed.
func fatal(result *Result, err error) (*Result, error) {
	result.Errors = append(result.Errors, err.Error())
	return result, err
}

func (e *Engine) logf(emit func(Event), format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.logger.Info(msg)
	emit(Event{Kind: EventLog, Message: msg})
}

// scan walks the source tree and returns every file whose extension is in
// the allowlist, in traversal order. No ordering guarantee is made.
func (e *Engine) scan(source string) ([]string, error) {
	allowed := map[string]struct{}{}
	for _, ext := range e.cfg.Extensions() {
		allowed[ext] = struct{}{}
	}

	var candidates []string
	err := filepath.WalkDir(source, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToUpper(filepath.Ext(entry.Name()))
		if _, ok := allowed[ext]; ok {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// processCandidate runs one file through the per-candidate states: date,
// session, collision-free name, move. Any error is a per-file failure.
func (e *Engine) processCandidate(root, candidate string, patterns pathplan.Patterns) (string, int64, error) {
	captured, err := e.dates.Extract(candidate)
	if err != nil {
		return "", 0, err
	}

	seg := pathplan.Build(captured, patterns)
	folder, err := e.sessions.LocateOrCreate(root, seg)
	if err != nil {
		return "", 0, fmt.Errorf("locate session: %w", err)
	}

	dest, err := resolveCollision(folder.CapturePath, filepath.Base(candidate))
	if err != nil {
		return "", 0, err
	}

	bytes, err := fileutil.MoveFile(candidate, dest)
	if err != nil {
		return "", 0, fmt.Errorf("move file: %w", err)
	}
	return dest, bytes, nil
}

// resolveCollision finds a free destination filename, appending _N before
// the extension until one is available or the attempt bound is hit.
func resolveCollision(dir, name string) (string, error) {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; n < maxCollisionAttempts; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", name, maxCollisionAttempts)
}

// History recording is best-effort: failures are logged and never affect
// the run.
func (e *Engine) beginHistory(ctx context.Context, source, root string) string {
	if e.store == nil {
		return ""
	}
	runID, err := e.store.BeginRun(ctx, source, root)
	if err != nil {
		e.logger.Warn("record run start", logging.Error(err))
		return ""
	}
	e.logger.Debug("history run opened", logging.String(logging.FieldRunID, runID))
	return runID
}

func (e *Engine) recordMove(ctx context.Context, runID string, move history.Move) {
	if e.store == nil || runID == "" {
		return
	}
	if err := e.store.RecordMove(ctx, runID, move); err != nil {
		e.logger.Warn("record move", logging.String(logging.FieldRunID, runID), logging.Error(err))
	}
}

func (e *Engine) finishHistory(ctx context.Context, runID string, result *Result) {
	if e.store == nil || runID == "" {
		return
	}
	if err := e.store.FinishRun(ctx, runID, result.Succeeded, result.Failed, result.BytesMoved); err != nil {
		e.logger.Warn("record run finish", logging.String(logging.FieldRunID, runID), logging.Error(err))
	}
}
