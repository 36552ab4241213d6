package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cms "github.com/goliatone/go-cms-locales"
	"github.com/goliatone/go-cms-locales/cmd/internal/bootstrap"
)

func testModule(t *testing.T) *cms.Module {
	t.Helper()
	cfg := cms.DefaultConfig()
	cfg.Logging.Provider = "noop"
	module, err := cms.New(cfg)
	if err != nil {
		t.Fatalf("cms.New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	return module
}

func TestNewServerServesSeededEvents(t *testing.T) {
	module := testModule(t)
	if err := applySeed(context.Background(), module); err != nil {
		t.Fatalf("applySeed: %v", err)
	}

	server := newServer(module, ":0")
	if server.Addr != ":0" {
		t.Fatalf("expected addr override, got %q", server.Addr)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events/annual-sports-day?locale=ar", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Language"); got != "ar" {
		t.Fatalf("expected Content-Language ar, got %q", got)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	module := testModule(t)
	server := newServer(module, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, module, server) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}

func TestRunUsesModuleBuilder(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	var got bootstrap.Options
	moduleBuilder = func(opts bootstrap.Options) (*cms.Module, error) {
		got = opts
		return testModule(t), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := run(ctx, []string{"-addr", "127.0.0.1:0", "-locales", "en,ur", "-default-locale", "en"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.DefaultLocale != "en" || len(got.Locales) != 2 {
		t.Fatalf("unexpected options %+v", got)
	}
}
