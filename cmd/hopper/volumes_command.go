package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hopper/internal/volume"
)

func newVolumesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volumes",
		Short: "List attached volumes by label",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()

			volumes, err := volume.SystemEnumerator().Volumes(cmd.Context())
			if err != nil {
				return fmt.Errorf("enumerate volumes: %w", err)
			}

			configured := cfg.DestinationVolumeLabel()
			rows := make([][]string, 0, len(volumes))
			for _, vol := range volumes {
				marker := ""
				if configured != "" && vol.Label == configured {
					marker = "destination"
				}
				rows = append(rows, []string{vol.Label, vol.MountPath, marker})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"LABEL", "MOUNT", ""},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.AddCommand(newVolumesWatchCommand(ctx))
	return cmd
}

func newVolumesWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report labelled volumes attaching and detaching until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger := ctx.loggerValue()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events := make(chan volume.Event, 8)
			watcher := volume.NewWatcher(logger)
			if err := watcher.Start(runCtx, events); err != nil {
				return fmt.Errorf("start volume watcher: %w", err)
			}
			defer watcher.Stop()

			configured := cfg.DestinationVolumeLabel()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Watching for volume changes (Ctrl-C to stop)")
			for {
				select {
				case <-runCtx.Done():
					return nil
				case ev := <-events:
					line := fmt.Sprintf("%-7s %s (%s)", ev.Action, ev.Label, ev.Device)
					if configured != "" && ev.Label == configured {
						line += "  <- configured destination"
					}
					fmt.Fprintln(out, line)
				}
			}
		},
	}
}
