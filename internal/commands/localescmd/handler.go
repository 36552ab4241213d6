package localescmd

import (
	"context"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-locales/internal/commands"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

const bootstrapOperation = "locales.bootstrap"

var _ command.Commander[BootstrapLocalesCommand] = (*BootstrapLocalesHandler)(nil)

// BootstrapLocalesHandler persists the configured locales through locale.Bootstrap.
type BootstrapLocalesHandler struct {
	inner  *commands.Handler[BootstrapLocalesCommand]
	result locale.BootstrapResult
}

// NewBootstrapLocalesHandler creates a handler bound to repo.
func NewBootstrapLocalesHandler(repo locale.Repository, logger interfaces.Logger, opts ...commands.HandlerOption[BootstrapLocalesCommand]) *BootstrapLocalesHandler {
	if repo == nil {
		panic("localescmd: repository is required")
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	h := &BootstrapLocalesHandler{}
	exec := func(ctx context.Context, msg BootstrapLocalesCommand) error {
		result, err := locale.Bootstrap(ctx, repo, Definitions(msg.DefaultLocale, msg.Locales), locale.WithBootstrapLogger(logger))
		h.result = result
		if err != nil {
			return err
		}
		logging.WithFields(logger, map[string]any{
			"created_count":   len(result.Created),
			"updated_count":   len(result.Updated),
			"unchanged_count": len(result.Unchanged),
			"default_locale":  msg.DefaultLocale,
		}).Info("locales.command.bootstrap.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[BootstrapLocalesCommand]{
		commands.WithLogger[BootstrapLocalesCommand](logger),
		commands.WithOperation[BootstrapLocalesCommand](bootstrapOperation),
	}
	h.inner = commands.NewHandler(exec, append(handlerOpts, opts...)...)
	return h
}

// Execute satisfies command.Commander.
func (h *BootstrapLocalesHandler) Execute(ctx context.Context, msg BootstrapLocalesCommand) error {
	return h.inner.Execute(ctx, msg)
}

// Result returns the outcome of the last execution.
func (h *BootstrapLocalesHandler) Result() locale.BootstrapResult {
	return h.result
}

// Definitions expands codes into locale definitions, reusing the shipped
// display names where a code is known.
func Definitions(defaultCode string, codes []string) []locale.Definition {
	known := map[string]locale.Definition{}
	for _, def := range locale.DefaultDefinitions() {
		known[def.Code] = def
	}
	def := locale.Normalize(defaultCode).String()
	out := make([]locale.Definition, 0, len(codes))
	for _, raw := range codes {
		code := locale.Normalize(raw).String()
		entry, ok := known[code]
		if !ok {
			entry = locale.Definition{Code: code, Name: strings.ToUpper(code)}
		}
		entry.IsDefault = code == def
		out = append(out, entry)
	}
	return out
}
