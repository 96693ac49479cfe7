package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"hopper/internal/exifdate"
	"hopper/internal/history"
	"hopper/internal/ingest"
	"hopper/internal/logging"
	"hopper/internal/preflight"
	"hopper/internal/volume"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Move photos from the configured source into session folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger := ctx.loggerValue()
			out := cmd.OutOrStdout()

			stateDir := cfg.StateDir()
			if err := os.MkdirAll(stateDir, 0o755); err != nil {
				return fmt.Errorf("create state directory: %w", err)
			}

			lock := flock.New(filepath.Join(stateDir, "hopper.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire ingest lock: %w", err)
			}
			if !ok {
				return errors.New("another ingest run is already active")
			}
			defer func() { _ = lock.Unlock() }()

			enum := volume.SystemEnumerator()
			printPreflight(cmd, cfg.SourcePath(), cfg.DestinationVolumeLabel(), enum)

			var store *history.Store
			if !noHistory {
				store, err = history.Open(filepath.Join(stateDir, "history.db"))
				if err != nil {
					logger.Warn("history database unavailable, run will not be recorded", logging.Error(err))
					store = nil
				} else {
					defer store.Close()
				}
			}

			extractor := exifdate.NewExtractor(exifdate.EXIFReader{}, logger)
			engine := ingest.NewEngine(cfg, enum, extractor, store, logger)
			handle := engine.Start(cmd.Context())

			interactive := isTerminal(os.Stdout.Fd())
			var bar *progressbar.ProgressBar
			for ev := range handle.Events() {
				switch ev.Kind {
				case ingest.EventLog:
					fmt.Fprintln(out, ev.Message)
				case ingest.EventMoved, ingest.EventFailed:
					if !interactive {
						fmt.Fprintln(out, ev.Message)
					}
				case ingest.EventProgress:
					if interactive {
						if bar == nil {
							bar = progressbar.Default(int64(ev.Total), "Moving photos")
						}
						_ = bar.Set(ev.Index)
					}
				}
			}
			result, runErr := handle.Wait()
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(out)
			}
			if runErr != nil {
				return runErr
			}

			printSummary(out, result)
			if result.Failed > 0 {
				fmt.Fprintln(out, "Failures:")
				for _, msg := range result.Errors {
					fmt.Fprintf(out, "  %s\n", msg)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording this run in the history database")
	return cmd
}

// printPreflight renders the advisory checks when the destination volume is
// currently resolvable; an unresolvable label is left for the engine to
// report as the run's fatal error.
func printPreflight(cmd *cobra.Command, sourcePath, label string, enum volume.Enumerator) {
	root, err := volume.Resolve(cmd.Context(), enum, label)
	if err != nil {
		return
	}
	out := cmd.OutOrStdout()
	for _, res := range preflight.ForIngest(sourcePath, root) {
		status := "OK"
		if !res.Passed {
			status = "WARN"
		}
		fmt.Fprintf(out, "  %-22s [%s] %s\n", res.Name+":", status, res.Detail)
	}
}

func printSummary(out io.Writer, result *ingest.Result) {
	printer := message.NewPrinter(language.English)
	rows := [][]string{
		{"Files found", printer.Sprintf("%d", result.Total)},
		{"Moved", printer.Sprintf("%d", result.Succeeded)},
		{"Failed", printer.Sprintf("%d", result.Failed)},
		{"Data moved", humanize.IBytes(uint64(result.BytesMoved))},
	}
	fmt.Fprintln(out, renderTable(
		[]string{"METRIC", "VALUE"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
