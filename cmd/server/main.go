package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cms "github.com/goliatone/go-cms-locales"
	"github.com/goliatone/go-cms-locales/cmd/internal/bootstrap"
	"github.com/goliatone/go-cms-locales/internal/commands"
	"github.com/goliatone/go-cms-locales/internal/commands/seedcmd"
	"github.com/goliatone/go-cms-locales/internal/logging"
)

const shutdownTimeout = 15 * time.Second

var moduleBuilder = bootstrap.BuildModule

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configFile := fs.String("config", "", "Optional TOML configuration file")
	addr := fs.String("addr", "", "Listen address (overrides CMS_HTTP_ADDR)")
	driver := fs.String("driver", "", "Storage driver: memory, sqlite or postgres")
	dsn := fs.String("dsn", "", "Storage DSN for sql drivers")
	locales := fs.String("locales", "", "Comma separated list of locales (defaults to config locales)")
	defaultLocale := fs.String("default-locale", "", "Default locale used for fallback")
	logLevel := fs.String("log-level", "", "Logging level")
	seedFixtures := fs.Bool("seed", false, "Apply the bundled fixtures before serving")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		ConfigFile:    *configFile,
		Driver:        *driver,
		DSN:           *dsn,
		DefaultLocale: *defaultLocale,
		Locales:       bootstrap.SplitLocales(*locales),
		LogLevel:      *logLevel,
	})
	if err != nil {
		return err
	}
	defer module.Close()

	if *seedFixtures {
		if err := applySeed(ctx, module); err != nil {
			return err
		}
	}

	server := newServer(module, *addr)
	return serve(ctx, module, server)
}

func applySeed(ctx context.Context, module *cms.Module) error {
	container := module.Container()
	logger := commands.CommandLogger(container.LoggerProvider(), "seed")
	handler := seedcmd.NewApplyFixturesHandler(module.Seeder(), logger,
		commands.WithObserver[seedcmd.ApplyFixturesCommand](logger, container.Metrics()),
	)
	if err := handler.Execute(ctx, seedcmd.ApplyFixturesCommand{}); err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}
	return nil
}

func newServer(module *cms.Module, addr string) *http.Server {
	cfg := module.Container().Config
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	handler := module.Handler()
	if cfg.HTTP.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, cfg.HTTP.RequestTimeout, `{"error":"timeout","message":"request timed out"}`)
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func serve(ctx context.Context, module *cms.Module, server *http.Server) error {
	logger := logging.HTTPLogger(module.Container().LoggerProvider())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http.server.listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("http.server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
