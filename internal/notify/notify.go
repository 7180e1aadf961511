// Package notify is the user-facing notification surface. Cart operations
// never let errors escape to the caller unexplained; they convert them into
// notifications here.
package notify

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier delivers a user-facing message. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the contextual logger. It is the
// default sink when no UI layer is attached.
type LogNotifier struct{}

// NewLogNotifier returns a Notifier backed by zctx logging.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the message at a level matching the notification level.
func (n *LogNotifier) Notify(ctx context.Context, level Level, message string) {
	lg := zctx.From(ctx).With(zap.String("notification", string(level)))
	switch level {
	case LevelError:
		lg.Error(message)
	case LevelWarning:
		lg.Warn(message)
	default:
		lg.Info(message)
	}
}
