package seedcmd

import (
	"context"
	"os"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-locales/internal/commands"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/internal/seed"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

const applyOperation = "seed.apply"

var _ command.Commander[ApplyFixturesCommand] = (*ApplyFixturesHandler)(nil)

// ApplyFixturesHandler runs a seed.Seeder behind the shared command handler.
type ApplyFixturesHandler struct {
	inner  *commands.Handler[ApplyFixturesCommand]
	result seed.Result
}

// NewApplyFixturesHandler creates a handler bound to seeder.
func NewApplyFixturesHandler(seeder *seed.Seeder, logger interfaces.Logger, opts ...commands.HandlerOption[ApplyFixturesCommand]) *ApplyFixturesHandler {
	if seeder == nil {
		panic("seedcmd: seeder is required")
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	h := &ApplyFixturesHandler{}
	exec := func(ctx context.Context, msg ApplyFixturesCommand) error {
		fixtures := seed.Fixtures()
		if dir := strings.TrimSpace(msg.Directory); dir != "" {
			fixtures = os.DirFS(dir)
		}
		result, err := seeder.Apply(ctx, fixtures)
		h.result = result
		if err != nil {
			return err
		}
		logging.WithFields(logger, map[string]any{
			"created_count": len(result.Created),
			"skipped_count": len(result.Skipped),
			"records":       result.Records,
		}).Info("seed.command.apply.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ApplyFixturesCommand]{
		commands.WithLogger[ApplyFixturesCommand](logger),
		commands.WithOperation[ApplyFixturesCommand](applyOperation),
	}
	h.inner = commands.NewHandler(exec, append(handlerOpts, opts...)...)
	return h
}

// Execute satisfies command.Commander.
func (h *ApplyFixturesHandler) Execute(ctx context.Context, msg ApplyFixturesCommand) error {
	return h.inner.Execute(ctx, msg)
}

// Result returns the outcome of the last execution.
func (h *ApplyFixturesHandler) Result() seed.Result {
	return h.result
}
