package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/cli"
	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/display"
	"github.com/raainshe/homepanel/internal/logging"
	"github.com/raainshe/homepanel/internal/notify"
	"github.com/raainshe/homepanel/internal/tui"
)

// NewSnapshotCommand creates the snapshot command
func NewSnapshotCommand(ctx context.Context, services *Services) *cobra.Command {
	var jsonOutput bool
	var showStats bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "📊 Sample every subsystem once",
		Long:  "Sample temperature, memory, the game server, downloads and the IP address once and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(ctx, cmd.OutOrStdout(), services, jsonOutput, showStats)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "output in JSON format")
	cmd.Flags().BoolVarP(&showStats, "stats", "s", false, "show probe cache statistics")

	return cmd
}

func runSnapshot(ctx context.Context, out io.Writer, services *Services, jsonOutput, showStats bool) error {
	cfg := services.Config
	snap := services.Probes.Snapshot(ctx)

	// Evaluate only; a one-shot snapshot never notifies.
	a := alert.NewEngine(cfg.Alert, notify.NewLog(nil)).Evaluate(snap)

	if err := cli.PrintSnapshot(out, snap, a, cfg.Alert, jsonOutput); err != nil {
		return err
	}
	if showStats && !jsonOutput {
		cli.PrintCacheStats(out, services.Probes.Stats())
	}
	return nil
}

// NewPreviewCommand creates the preview command
func NewPreviewCommand(ctx context.Context, services *Services) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "🖥️  Show the screen the panel would draw now",
		Long:  "Run one selection pass and render the chosen screen in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := previewScreen(ctx, services, time.Now())
			fmt.Fprintln(cmd.OutOrStdout(), display.PanelView(c.Screen))
			fmt.Fprintf(cmd.OutOrStdout(), "screen: %s\n", c.Kind)
			return nil
		},
	}
}

func previewScreen(ctx context.Context, services *Services, now time.Time) dashboard.Candidate {
	snap := services.Probes.Snapshot(ctx)
	text, age := services.Activity.Peek()

	return services.Selector.Select(dashboard.Input{
		Snapshot:     snap,
		Alert:        alert.NewEngine(services.Config.Alert, notify.NewLog(nil)).Evaluate(snap),
		ActivityText: text,
		ActivityAge:  age,
	}, now)
}

// NewWatchCommand creates the watch command
func NewWatchCommand(ctx context.Context, services *Services) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "🌟 Mirror the panel in the terminal",
		Long:  "Run the update loop with the terminal as the display. Alerts are logged, not sent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var panel *Panel
			program := tui.New(ctx, func(ctx context.Context) (dashboard.Candidate, bool) {
				return panel.Loop.Refresh(ctx)
			})

			// Keep log lines off the alternate screen.
			logging.GetLogger().SetOutput(io.Discard)

			panel = services.NewPanel(program, notify.NewLog(nil))
			if err := panel.Loop.Start(ctx); err != nil {
				return fmt.Errorf("failed to start update loop: %w", err)
			}
			defer panel.Loop.Stop()

			return program.Run()
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand(version, buildTime, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "📋 Show version information",
		Long:  "Display version, build time, and git commit information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🖥️  Homepanel\n")
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Built: %s\n", buildTime)
			fmt.Fprintf(out, "Commit: %s\n", gitCommit)
		},
	}
}
