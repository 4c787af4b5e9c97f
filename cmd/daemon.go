package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/bot"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/display"
	"github.com/raainshe/homepanel/internal/logging"
	"github.com/raainshe/homepanel/internal/notify"
)

const (
	pidFile = "homepanel.pid"
)

type daemonOptions struct {
	pidFile string
}

// NewDaemonCommand creates the daemon command
func NewDaemonCommand(ctx context.Context, services *Services) *cobra.Command {
	var opts daemonOptions

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the status panel",
		Long: `Run the always-on status panel.

The daemon will:
- Sample temperature, memory, the game server, downloads and the IP address
- Draw the selected screen on the configured display
- Notify the admin when temperature or memory cross their thresholds
- Serve Discord slash commands when a bot token is configured
- Handle graceful shutdown on SIGINT/SIGTERM`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(ctx, services, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.pidFile, "pid-file", "p", pidFile, "PID file location")

	return cmd
}

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		Long:  "Check if the Homepanel daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid, ok := runningPID(pidFile); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Daemon is running (PID: %d)\n", pid)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "❌ Daemon is not running")
			return nil
		},
	}
}

// NewStopCommand creates the stop command
func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		Long:  "Stop the running Homepanel daemon gracefully",
		RunE: func(cmd *cobra.Command, args []string) error {
			return stopDaemon(pidFile)
		},
	}
}

func displayBanner() {
	fmt.Printf(`
    ╔══════════════════════════════════════════════╗
    ║                                              ║
    ║   🖥️  Homepanel                              ║
    ║   Home server status panel                   ║
    ║                                              ║
    ║   PID:  %-6d                               ║
    ║   Time: %s                  ║
    ║                                              ║
    ╚══════════════════════════════════════════════╝
`, os.Getpid(), time.Now().Format("2006-01-02 15:04:05"))
}

func runDaemon(ctx context.Context, services *Services, opts daemonOptions) error {
	cfg := services.Config

	// Check if daemon is already running
	if pid, ok := runningPID(opts.pidFile); ok {
		return fmt.Errorf("daemon is already running (PID %d, PID file: %s)", pid, opts.pidFile)
	}

	logger := logging.GetLogger()

	var session *discordgo.Session
	if cfg.Discord.BotToken != "" {
		s, err := bot.NewSession(cfg)
		if err != nil {
			return err
		}
		session = s
	}

	var mqttClient mqtt.Client
	if cfg.MQTT.Enabled {
		client, err := notify.ConnectMQTT(cfg.MQTT, logging.GetNotifyLogger())
		if err != nil {
			logger.WithError(err).Warn("MQTT notifications disabled")
		} else {
			mqttClient = client
			defer client.Disconnect(250)
		}
	}

	drawer, err := display.New(cfg.Display, nil)
	if err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}

	var messenger notify.DirectMessenger
	if session != nil {
		messenger = session
	}
	var publisher notify.Publisher
	if mqttClient != nil {
		publisher = mqttClient
	}

	panel := services.NewPanel(drawer, buildNotifier(cfg, messenger, publisher))
	defer panel.Close()

	// Create context for graceful shutdown
	daemonCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Create PID file
	if err := createPIDFile(opts.pidFile); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer removePIDFile(opts.pidFile)

	displayBanner()

	logger.WithFields(map[string]interface{}{
		"pid_file": opts.pidFile,
		"driver":   drawer.Name(),
	}).Info("Starting Homepanel daemon")

	if err := panel.Loop.Start(daemonCtx); err != nil {
		return fmt.Errorf("failed to start update loop: %w", err)
	}

	var discordBot *bot.Bot
	if session != nil {
		discordBot = bot.NewBot(cfg, session, services.Probes, services.Activity, panel.Loop)
		if err := discordBot.Start(); err != nil {
			return fmt.Errorf("failed to start Discord bot: %w", err)
		}
	}

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.WithFields(map[string]interface{}{
		"discord": discordBot != nil,
		"mqtt":    mqttClient != nil,
		"pid":     os.Getpid(),
	}).Info("Daemon started successfully")

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case <-daemonCtx.Done():
		logger.Info("Received shutdown context")
	}

	logger.Info("Shutting down daemon...")

	if discordBot != nil {
		if err := discordBot.Stop(); err != nil {
			logger.WithError(err).Error("Error stopping Discord bot")
		}
	}

	logger.Info("Daemon stopped successfully")
	return nil
}

// buildNotifier fans alerts out to every configured transport. The log is
// always included so an alert leaves a trace even when delivery fails.
func buildNotifier(cfg *config.Config, messenger notify.DirectMessenger, publisher notify.Publisher) alert.Notifier {
	notifiers := notify.Multi{notify.NewLog(nil)}
	if messenger != nil && cfg.Discord.AdminUserID != "" {
		notifiers = append(notifiers, notify.NewDiscord(messenger, cfg.Discord.AdminUserID))
	}
	if publisher != nil {
		notifiers = append(notifiers, notify.NewMQTT(publisher, cfg.MQTT.Topic))
	}
	return notifiers
}

// runningPID returns the PID recorded in pidFile if that process is alive
func runningPID(pidFile string) (int, bool) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}

	// Send signal 0 to check if process is running
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}
	return pid, true
}

// createPIDFile creates a PID file with the current process ID
func createPIDFile(pidFile string) error {
	data := fmt.Sprintf("%d\n", os.Getpid())
	return os.WriteFile(pidFile, []byte(data), 0644)
}

// removePIDFile removes the PID file
func removePIDFile(pidFile string) {
	os.Remove(pidFile)
}

func stopDaemon(pidFile string) error {
	pid, ok := runningPID(pidFile)
	if !ok {
		return fmt.Errorf("daemon is not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	// Send SIGTERM for graceful shutdown
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM: %w", err)
	}

	fmt.Printf("🔄 Sent SIGTERM to daemon (PID: %d)\n", pid)
	fmt.Println("Waiting for graceful shutdown...")

	// Wait for process to exit (up to 10 seconds)
	for i := 0; i < 10; i++ {
		time.Sleep(1 * time.Second)
		if err := process.Signal(syscall.Signal(0)); err != nil {
			removePIDFile(pidFile)
			fmt.Println("✅ Daemon stopped successfully")
			return nil
		}
	}

	fmt.Println("⚠️  Daemon not responding, sending SIGKILL...")
	if err := process.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to send SIGKILL: %w", err)
	}

	removePIDFile(pidFile)
	fmt.Println("✅ Daemon force stopped")
	return nil
}
