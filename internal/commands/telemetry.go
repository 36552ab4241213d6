package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// TelemetryStatus is the outcome bucket of one execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo is handed to telemetry callbacks once the command returned.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry is invoked after every execution that passed validation.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// Observer receives command outcomes, typically the metrics recorder.
type Observer interface {
	ObserveCommand(operation, status string)
}

// DefaultTelemetry logs the outcome as command.execute.<status>.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields)
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		if info.Status == TelemetryStatusSuccess {
			entry.Info("command.execute.success", args...)
			return
		}
		entry.Error("command.execute."+string(info.Status), append(args, "error", info.Error)...)
	}
}

// ObserverTelemetry forwards the operation (or command type when no
// operation is set) and status to observer.
func ObserverTelemetry[T command.Message](observer Observer) Telemetry[T] {
	return func(_ context.Context, _ T, info TelemetryInfo) {
		if observer == nil {
			return
		}
		name := info.Operation
		if name == "" {
			name = info.Command
		}
		observer.ObserveCommand(name, string(info.Status))
	}
}

// ChainTelemetry runs every non-nil callback in order.
func ChainTelemetry[T command.Message](callbacks ...Telemetry[T]) Telemetry[T] {
	return func(ctx context.Context, msg T, info TelemetryInfo) {
		for _, cb := range callbacks {
			if cb != nil {
				cb(ctx, msg, info)
			}
		}
	}
}

// WithObserver keeps the logging telemetry and adds observer reporting.
func WithObserver[T command.Message](logger interfaces.Logger, observer Observer) HandlerOption[T] {
	return WithTelemetry(ChainTelemetry(DefaultTelemetry[T](logger), ObserverTelemetry[T](observer)))
}
