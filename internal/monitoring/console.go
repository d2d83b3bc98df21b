package monitoring

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prana-run/prana/internal/middleware"
)

// ConsoleLogger is a middleware that writes one structured log line per
// lifecycle event, in the teacher's zerolog idiom.
type ConsoleLogger struct {
	log zerolog.Logger
}

// NewConsoleLogger wraps an existing zerolog.Logger as a middleware.
func NewConsoleLogger(log zerolog.Logger) *ConsoleLogger {
	return &ConsoleLogger{log: log.With().Str("component", "execution").Logger()}
}

func (c *ConsoleLogger) Call(ctx context.Context, event middleware.Event, data map[string]any, next middleware.Next) (map[string]any, error) {
	evt := c.log.Info()
	if event == middleware.EventNodeFailed || event == middleware.EventExecutionFailed {
		evt = c.log.Warn()
	}
	evt.Str("event", string(event)).Fields(data).Msg("lifecycle event")

	return next(ctx, data)
}
