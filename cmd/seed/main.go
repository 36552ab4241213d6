package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/goliatone/go-cms-locales/cmd/internal/bootstrap"
	"github.com/goliatone/go-cms-locales/internal/commands"
	"github.com/goliatone/go-cms-locales/internal/commands/seedcmd"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runSeed(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func runSeed(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configFile := fs.String("config", "", "Optional TOML configuration file")
	driver := fs.String("driver", "", "Storage driver: sqlite or postgres")
	dsn := fs.String("dsn", "", "Storage DSN")
	directory := fs.String("dir", "", "Fixture directory (defaults to the bundled fixtures)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		ConfigFile: *configFile,
		Driver:     *driver,
		DSN:        *dsn,
	})
	if err != nil {
		return err
	}
	defer module.Close()

	logger := commands.CommandLogger(module.Container().LoggerProvider(), "seed")
	handler := seedcmd.NewApplyFixturesHandler(module.Seeder(), logger)
	if err := handler.Execute(ctx, seedcmd.ApplyFixturesCommand{Directory: *directory}); err != nil {
		return fmt.Errorf("execute seed command: %w", err)
	}

	result := handler.Result()
	fmt.Fprintf(out, "seeded %d documents (%d records), skipped %d\n", len(result.Created), result.Records, len(result.Skipped))
	return nil
}
