package commands

import (
	"strings"

	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// CommandLogger returns the cms.commands.<module> logger tagged with the
// command module, e.g. CommandLogger(provider, "seed").
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		return logging.CommandsLogger(provider)
	}
	return logging.WithFields(logging.ModuleLogger(provider, "cms.commands."+name), map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
