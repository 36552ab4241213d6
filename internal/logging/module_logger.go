package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

const (
	rootModule     = "cms"
	localeModule   = "cms.locale"
	resolverModule = "cms.resolver"
	mutationModule = "cms.mutation"
	entriesModule  = "cms.entries"
	formsModule    = "cms.forms"
	httpModule     = "cms.http"
	commandsModule = "cms.commands"
	seedModule     = "cms.seed"
)

const (
	fieldCollection = "collection"
	fieldDocumentID = "document_id"
	fieldLocale     = "locale"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// LocaleLogger returns the logger namespace reserved for locale negotiation and bootstrap.
func LocaleLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, localeModule)
}

// ResolverLogger returns the logger namespace reserved for document resolution.
func ResolverLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, resolverModule)
}

// MutationLogger returns the logger namespace reserved for multi-locale mutations.
func MutationLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, mutationModule)
}

// EntriesLogger returns the logger namespace reserved for collection services.
func EntriesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, entriesModule)
}

// FormsLogger returns the logger namespace reserved for forms and submissions.
func FormsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, formsModule)
}

// HTTPLogger returns the logger namespace reserved for the HTTP adapter.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// CommandsLogger returns the logger namespace reserved for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// SeedLogger returns the logger namespace reserved for fixture seeding.
func SeedLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, seedModule)
}

// WithDocumentContext enriches the logger with the collection, document id and
// locale of the record being processed. Empty values are ignored.
func WithDocumentContext(logger interfaces.Logger, collection, documentID, locale string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(collection); trimmed != "" {
		fields[fieldCollection] = trimmed
	}
	if trimmed := strings.TrimSpace(documentID); trimmed != "" {
		fields[fieldDocumentID] = trimmed
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[fieldLocale] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
