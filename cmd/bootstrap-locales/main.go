package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-cms-locales/cmd/internal/bootstrap"
	"github.com/goliatone/go-cms-locales/internal/commands"
	"github.com/goliatone/go-cms-locales/internal/commands/localescmd"
	"github.com/goliatone/go-cms-locales/internal/di"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/internal/logging/gologger"
	"github.com/goliatone/go-cms-locales/internal/runtimeconfig"
)

func main() {
	if err := runBootstrap(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("bootstrap-locales: %v", err)
	}
}

// runBootstrap writes the configured locales straight to the database without
// building the full module, so it can run before the server is deployed.
func runBootstrap(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("bootstrap-locales", flag.ExitOnError)
	configFile := fs.String("config", "", "Optional TOML configuration file")
	driver := fs.String("driver", "", "Storage driver: sqlite or postgres")
	dsn := fs.String("dsn", "", "Storage DSN")
	locales := fs.String("locales", "", "Comma separated list of locales (defaults to config locales)")
	defaultLocale := fs.String("default-locale", "", "Default locale")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := bootstrap.LoadConfig(bootstrap.Options{
		ConfigFile:    *configFile,
		Driver:        *driver,
		DSN:           *dsn,
		DefaultLocale: *defaultLocale,
		Locales:       bootstrap.SplitLocales(*locales),
	})
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Storage.Driver), runtimeconfig.DriverMemory) {
		return fmt.Errorf("a sql storage driver is required, got %q", cfg.Storage.Driver)
	}

	db, err := di.OpenDB(cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := di.EnsureSchema(ctx, db); err != nil {
		return err
	}

	logger := logging.NoOp()
	if strings.EqualFold(cfg.Logging.Provider, "gologger") {
		provider, err := gologger.NewProvider(gologger.FromRuntime(cfg.Logging))
		if err != nil {
			return err
		}
		logger = commands.CommandLogger(provider, "locales")
	}

	handler := localescmd.NewBootstrapLocalesHandler(locale.NewBunRepository(db), logger)
	msg := localescmd.BootstrapLocalesCommand{DefaultLocale: cfg.DefaultLocale, Locales: cfg.I18N.Locales}
	if err := handler.Execute(ctx, msg); err != nil {
		return fmt.Errorf("execute bootstrap command: %w", err)
	}

	result := handler.Result()
	fmt.Fprintf(out, "locales created=%s updated=%s unchanged=%s\n",
		strings.Join(result.Created, ","), strings.Join(result.Updated, ","), strings.Join(result.Unchanged, ","))
	return nil
}
