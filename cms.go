package cms

import (
	"net/http"

	"github.com/goliatone/go-cms-locales/internal/di"
	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/entries"
	"github.com/goliatone/go-cms-locales/internal/forms"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/mutation"
	"github.com/goliatone/go-cms-locales/internal/resolver"
	"github.com/goliatone/go-cms-locales/internal/seed"
)

// Record exports one locale variant of a document.
type Record = documents.Record

// Store exports the document store contract consumed by the resolver and coordinator.
type Store = documents.Store

// LocaleSet exports the supported locale set.
type LocaleSet = locale.Set

// ResolveRequest and ResolveResult export the resolver contract.
type (
	ResolveRequest = resolver.Request
	ResolveResult  = resolver.Result
)

// UpdateRequest, DeleteRequest and DeletionResult export the mutation contract.
type (
	UpdateRequest  = mutation.UpdateRequest
	DeleteRequest  = mutation.DeleteRequest
	DeletionResult = mutation.DeletionResult
)

// EntryService exports the collection use-cases.
type EntryService = *entries.Service

// FormService exports the forms use-cases.
type FormService = *forms.Service

// Module represents the top level runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Locales returns the supported locale set loaded at startup.
func (m *Module) Locales() *LocaleSet {
	return m.container.Locales()
}

// Resolver returns the locale-aware document resolver.
func (m *Module) Resolver() *resolver.Resolver {
	return m.container.Resolver()
}

// Coordinator returns the multi-locale mutation coordinator.
func (m *Module) Coordinator() *mutation.Coordinator {
	return m.container.Coordinator()
}

func (m *Module) Entries() EntryService {
	return m.container.EntryService()
}

func (m *Module) Forms() FormService {
	return m.container.FormService()
}

func (m *Module) Seeder() *seed.Seeder {
	return m.container.Seeder()
}

// Handler returns the HTTP API including /metrics.
func (m *Module) Handler() http.Handler {
	return m.container.HTTPHandler()
}

// Close releases resources held by the container.
func (m *Module) Close() error {
	return m.container.Close()
}
