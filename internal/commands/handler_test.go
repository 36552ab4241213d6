package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct{}

func (testMessage) Type() string { return "cms.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "cms.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerReportsTelemetry(t *testing.T) {
	var got []TelemetryInfo
	record := func(_ context.Context, _ testMessage, info TelemetryInfo) {
		got = append(got, info)
	}
	execErr := errors.New("boom")
	calls := 0
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		calls++
		if calls == 2 {
			return execErr
		}
		return nil
	}, WithOperation[testMessage]("locales.bootstrap"), WithTelemetry[testMessage](record))

	_ = h.Execute(context.Background(), testMessage{})
	_ = h.Execute(context.Background(), testMessage{})

	if len(got) != 2 {
		t.Fatalf("expected 2 telemetry entries, got %d", len(got))
	}
	if got[0].Status != TelemetryStatusSuccess || got[0].Command != "cms.test.message" || got[0].Operation != "locales.bootstrap" {
		t.Fatalf("unexpected success telemetry %+v", got[0])
	}
	if got[1].Status != TelemetryStatusFailed || !errors.Is(got[1].Error, execErr) {
		t.Fatalf("unexpected failure telemetry %+v", got[1])
	}
}

type observedCommand struct {
	operation string
	status    string
}

type observerStub struct {
	calls []observedCommand
}

func (o *observerStub) ObserveCommand(operation, status string) {
	o.calls = append(o.calls, observedCommand{operation: operation, status: status})
}

func TestWithObserverReportsOutcomes(t *testing.T) {
	observer := &observerStub{}
	fail := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	}, WithObserver[testMessage](nil, observer))

	_ = h.Execute(context.Background(), testMessage{})
	fail = true
	_ = h.Execute(context.Background(), testMessage{})

	want := []observedCommand{
		{operation: "cms.test.message", status: "success"},
		{operation: "cms.test.message", status: "failed"},
	}
	if len(observer.calls) != len(want) || observer.calls[0] != want[0] || observer.calls[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, observer.calls)
	}
}

func TestChainTelemetrySkipsNilCallbacks(t *testing.T) {
	var order []string
	first := func(context.Context, testMessage, TelemetryInfo) { order = append(order, "first") }
	second := func(context.Context, testMessage, TelemetryInfo) { order = append(order, "second") }

	ChainTelemetry[testMessage](first, nil, second)(context.Background(), testMessage{}, TelemetryInfo{})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestIsValidationError(t *testing.T) {
	h := NewHandler[invalidMessage](func(context.Context, invalidMessage) error { return nil })
	if err := h.Execute(context.Background(), invalidMessage{}); !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if IsValidationError(nil) || IsValidationError(wrapExecuteError(errors.New("boom"))) {
		t.Fatal("expected only validation failures to match")
	}
}
