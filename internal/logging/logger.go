package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/raainshe/homepanel/internal/config"
)

// Component represents different parts of the application for contextualized logging
type Component string

const (
	ComponentMain        Component = "main"
	ComponentConfig      Component = "config"
	ComponentCache       Component = "cache"
	ComponentProbe       Component = "probe"
	ComponentAlert       Component = "alert"
	ComponentDisplay     Component = "display"
	ComponentLoop        Component = "update_loop"
	ComponentNotify      Component = "notify"
	ComponentDiscordBot  Component = "discord_bot"
	ComponentQBittorrent Component = "qbittorrent"
)

// Logger wraps logrus.Logger with a component context
type Logger struct {
	*logrus.Logger
	config    *config.LoggingConfig
	component Component
	closer    io.Closer
}

// loggerInstance holds the global logger instance
var loggerInstance *Logger

// Initialize sets up the global logger with the provided configuration
func Initialize(cfg *config.LoggingConfig) (*Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	var writers []io.Writer
	var closer io.Closer

	if cfg.ToStdout {
		writers = append(writers, os.Stdout)
	}

	// Add file writer with rotation
	if cfg.File != "" {
		logDir := filepath.Dir(cfg.File)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory '%s': %w", logDir, err)
			}
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,    // megabytes
			MaxBackups: cfg.MaxBackups, // number of backup files
			MaxAge:     cfg.MaxAge,     // days
			Compress:   cfg.Compress,   // compress rotated files
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	logger.SetOutput(io.MultiWriter(writers...))

	if cfg.ToStdout && len(writers) == 1 {
		// Human-readable format for stdout-only (journald)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	appLogger := &Logger{
		Logger:    logger,
		config:    cfg,
		component: ComponentMain,
		closer:    closer,
	}

	loggerInstance = appLogger

	if level <= logrus.InfoLevel {
		appLogger.Info("Logger initialized successfully")
	}

	return appLogger, nil
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	if loggerInstance == nil {
		// Create a fallback logger if not initialized
		fallbackLogger := logrus.New()
		fallbackLogger.SetLevel(logrus.InfoLevel)
		fallbackLogger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})

		return &Logger{
			Logger:    fallbackLogger,
			component: ComponentMain,
		}
	}
	return loggerInstance
}

// NewDiscard returns a logger that drops everything. Used by tests and by
// one-shot commands that print their own output.
func NewDiscard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l, component: ComponentMain}
}

// WithComponent creates a new logger instance with a specific component context
func (l *Logger) WithComponent(component Component) *Logger {
	return &Logger{
		Logger:    l.Logger,
		config:    l.config,
		component: component,
		closer:    l.closer,
	}
}

// Component returns the component this logger is tagged with
func (l *Logger) Component() Component {
	return l.component
}

// WithField adds a field to the logger entry and ensures component is included
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"component": l.component,
		key:         value,
	})
}

// WithFields adds multiple fields to the logger entry and ensures component is included
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	merged := make(logrus.Fields, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["component"] = l.component
	return l.Logger.WithFields(merged)
}

// WithError adds an error field to the logger entry and ensures component is included
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"component": l.component,
		"error":     err,
	})
}

func (l *Logger) entry() *logrus.Entry {
	return l.Logger.WithField("component", l.component)
}

// Debug logs a debug message with component context
func (l *Logger) Debug(args ...interface{}) { l.entry().Debug(args...) }

// Debugf logs a formatted debug message with component context
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry().Debugf(format, args...) }

// Info logs an info message with component context
func (l *Logger) Info(args ...interface{}) { l.entry().Info(args...) }

// Infof logs a formatted info message with component context
func (l *Logger) Infof(format string, args ...interface{}) { l.entry().Infof(format, args...) }

// Warn logs a warning message with component context
func (l *Logger) Warn(args ...interface{}) { l.entry().Warn(args...) }

// Warnf logs a formatted warning message with component context
func (l *Logger) Warnf(format string, args ...interface{}) { l.entry().Warnf(format, args...) }

// Error logs an error message with component context
func (l *Logger) Error(args ...interface{}) { l.entry().Error(args...) }

// Errorf logs a formatted error message with component context
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry().Errorf(format, args...) }

// Convenience functions for getting component-specific loggers

func GetConfigLogger() *Logger      { return GetLogger().WithComponent(ComponentConfig) }
func GetCacheLogger() *Logger       { return GetLogger().WithComponent(ComponentCache) }
func GetProbeLogger() *Logger       { return GetLogger().WithComponent(ComponentProbe) }
func GetAlertLogger() *Logger       { return GetLogger().WithComponent(ComponentAlert) }
func GetDisplayLogger() *Logger     { return GetLogger().WithComponent(ComponentDisplay) }
func GetLoopLogger() *Logger        { return GetLogger().WithComponent(ComponentLoop) }
func GetNotifyLogger() *Logger      { return GetLogger().WithComponent(ComponentNotify) }
func GetDiscordLogger() *Logger     { return GetLogger().WithComponent(ComponentDiscordBot) }
func GetQBittorrentLogger() *Logger { return GetLogger().WithComponent(ComponentQBittorrent) }

// SetLogLevel changes the log level at runtime
func SetLogLevel(levelStr string) error {
	logger := GetLogger()
	level, err := logrus.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", levelStr, err)
	}

	logger.Logger.SetLevel(level)
	logger.Debugf("Log level changed to: %s", level.String())
	return nil
}

// LogCommand logs a chat command handled by the foreground interface
func LogCommand(command, user string, options map[string]interface{}) {
	GetDiscordLogger().WithFields(logrus.Fields{
		"command": command,
		"user":    user,
		"options": options,
	}).Info("Discord command executed")
}

// LogAlertDispatched logs an operator notification that was sent
func LogAlertDispatched(key string, suppressedFor string) {
	GetAlertLogger().WithFields(logrus.Fields{
		"action":   "alert_dispatched",
		"key":      key,
		"cooldown": suppressedFor,
	}).Warn("Operator alert dispatched")
}

// Shutdown closes the rotating file writer, if any
func Shutdown() {
	logger := GetLogger()
	if logger.closer != nil {
		logger.Debug("Shutting down logging system")
		logger.closer.Close()
	}
}
