package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/raainshe/homepanel/cmd"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/logging"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Shutting down gracefully...")
		cancel()
	}()

	services := &cmd.Services{}
	rootCmd := createRootCommand(ctx, services)

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Command failed: %v\n", err)
		cleanup(services)
		os.Exit(1)
	}

	cleanup(services)
}

// createRootCommand creates the main Cobra root command
func createRootCommand(ctx context.Context, services *cmd.Services) *cobra.Command {
	var configFile string
	var logLevel string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "homepanel",
		Short: "🖥️  Homepanel - home server status panel",
		Long: `🖥️  Homepanel - home server status panel

Homepanel samples the host (temperature, memory, IP address), a Minecraft
container and a qBittorrent instance, picks one screen to show on a small
display, and notifies the admin when thresholds are crossed.

Examples:
  homepanel daemon         # Run the panel and the Discord bot
  homepanel watch          # Mirror the panel in the terminal
  homepanel preview        # Render the screen the panel would show now
  homepanel snapshot -j    # Sample every subsystem once as JSON`,
		Version:       fmt.Sprintf("%s (built: %s, commit: %s)", version, buildTime, gitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if c.Name() == "version" {
				return nil
			}
			return initializeServices(services, configFile, logLevel, verbose)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error) - default: from config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (shows all logs)")

	rootCmd.AddCommand(
		cmd.NewDaemonCommand(ctx, services),
		cmd.NewStatusCommand(),
		cmd.NewStopCommand(),
		cmd.NewSnapshotCommand(ctx, services),
		cmd.NewPreviewCommand(ctx, services),
		cmd.NewWatchCommand(ctx, services),
		cmd.NewVersionCommand(version, buildTime, gitCommit),
	)

	return rootCmd
}

// initializeServices loads configuration, starts logging and builds the
// shared services
func initializeServices(services *cmd.Services, configFile, logLevel string, verbose bool) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.Initialize(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Set log level based on flags
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if logLevel != "" {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		logger.SetLevel(level)
	}

	if err := services.Init(cfg); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"display":   cfg.Display.Driver,
		"container": cfg.Probes.ContainerName,
		"discord":   cfg.Discord.BotToken != "",
		"mqtt":      cfg.MQTT.Enabled,
	}).Debug("✅ All services initialized successfully")
	return nil
}

// cleanup gracefully shuts down all services
func cleanup(services *cmd.Services) {
	if services == nil || services.Config == nil {
		return
	}

	mainLogger := logging.GetLogger()
	mainLogger.Info("🧹 Cleaning up services...")

	services.Cleanup()

	mainLogger.Info("✅ Cleanup completed")
	logging.Shutdown()
}
