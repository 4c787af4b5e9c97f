// Package notify delivers operator notifications over Discord, MQTT or the
// log.
package notify

import (
	"context"

	"go.uber.org/multierr"

	"github.com/raainshe/homepanel/internal/logging"
)

// Notifier delivers a message to the operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Multi sends to every notifier and combines their errors.
type Multi []Notifier

// Notify implements Notifier. All notifiers are tried even if one fails.
func (m Multi) Notify(ctx context.Context, text string) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.Notify(ctx, text))
	}
	return err
}

// Log writes notifications to the log. It is the fallback when no remote
// transport is configured.
type Log struct {
	logger *logging.Logger
}

// NewLog creates a log notifier.
func NewLog(logger *logging.Logger) *Log {
	if logger == nil {
		logger = logging.GetNotifyLogger()
	}
	return &Log{logger: logger}
}

// Notify implements Notifier.
func (l *Log) Notify(_ context.Context, text string) error {
	l.logger.WithField("text", text).Warn("Operator notification")
	return nil
}
