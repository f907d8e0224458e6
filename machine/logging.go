package machine

import (
	"context"
	"log/slog"
	"time"
)

// Logger receives hooks for the lifecycle of each dispatch. Implementations
// must be safe for concurrent use by independent instances.
type Logger interface {
	DispatchStarted(ctx context.Context, instanceID, state string, ev Event)
	EventIgnored(ctx context.Context, instanceID, state string, ev Event)
	TransitionExecuted(ctx context.Context, instanceID, from, to string, ev Event)
	ActionCompleted(ctx context.Context, instanceID string, phase Phase, state string, duration time.Duration, err error)
	DispatchCompleted(ctx context.Context, instanceID, state string, ev Event, duration time.Duration, err error)
}

// SlogLogger implements Logger on top of log/slog.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a slog-backed Logger. A nil logger uses slog.Default.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) DispatchStarted(ctx context.Context, instanceID, state string, ev Event) {
	l.logger.DebugContext(ctx, "dispatch started",
		"instance_id", instanceID,
		"state", state,
		"event", ev.Type,
	)
}

func (l *SlogLogger) EventIgnored(ctx context.Context, instanceID, state string, ev Event) {
	l.logger.DebugContext(ctx, "event ignored",
		"instance_id", instanceID,
		"state", state,
		"event", ev.Type,
	)
}

func (l *SlogLogger) TransitionExecuted(ctx context.Context, instanceID, from, to string, ev Event) {
	l.logger.InfoContext(ctx, "transition executed",
		"instance_id", instanceID,
		"from", from,
		"to", to,
		"event", ev.Type,
	)
}

func (l *SlogLogger) ActionCompleted(
	ctx context.Context,
	instanceID string,
	phase Phase,
	state string,
	duration time.Duration,
	err error,
) {
	fields := []any{
		"instance_id", instanceID,
		"phase", string(phase),
		"state", state,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		l.logger.ErrorContext(ctx, "action failed", append(fields, "error", err)...)
	} else {
		l.logger.DebugContext(ctx, "action completed", fields...)
	}
}

func (l *SlogLogger) DispatchCompleted(
	ctx context.Context,
	instanceID, state string,
	ev Event,
	duration time.Duration,
	err error,
) {
	fields := []any{
		"instance_id", instanceID,
		"state", state,
		"event", ev.Type,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		l.logger.ErrorContext(ctx, "dispatch failed", append(fields, "error", err)...)
	} else {
		l.logger.InfoContext(ctx, "dispatch completed", fields...)
	}
}

// NopLogger discards all hooks. Useful for benchmarks and high-frequency
// machines where logging overhead matters.
type NopLogger struct{}

func (NopLogger) DispatchStarted(context.Context, string, string, Event)    {}
func (NopLogger) EventIgnored(context.Context, string, string, Event)       {}
func (NopLogger) TransitionExecuted(context.Context, string, string, string, Event) {}
func (NopLogger) ActionCompleted(context.Context, string, Phase, string, time.Duration, error) {
}
func (NopLogger) DispatchCompleted(context.Context, string, string, Event, time.Duration, error) {
}
