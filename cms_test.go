package cms_test

import (
	"context"
	"errors"
	"testing"

	cms "github.com/goliatone/go-cms-locales"
	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/mutation"
	"github.com/goliatone/go-cms-locales/internal/seed"
)

func newModule(t *testing.T) *cms.Module {
	t.Helper()
	cfg := cms.DefaultConfig()
	cfg.Logging.Provider = "noop"
	module, err := cms.New(cfg)
	if err != nil {
		t.Fatalf("cms.New returned error: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	if _, err := module.Seeder().Apply(context.Background(), seed.Fixtures()); err != nil {
		t.Fatalf("apply fixtures: %v", err)
	}
	return module
}

func TestModuleResolvesWithFallback(t *testing.T) {
	module := newModule(t)

	result, err := module.Resolver().Resolve(context.Background(), cms.ResolveRequest{
		Collection: "events",
		ID:         "science-fair",
		Locale:     "ar",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Record.Locale != "en" || !result.Fallback {
		t.Fatalf("expected fallback to en, got locale %s fallback %t", result.Record.Locale, result.Fallback)
	}
}

func TestModuleUpdateCreatesLocalizationThenDeleteRemovesAll(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()

	found, err := module.Resolver().Resolve(ctx, cms.ResolveRequest{Collection: "events", ID: "science-fair"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	documentID := found.Record.DocumentID

	updated, err := module.Coordinator().Update(ctx, cms.UpdateRequest{
		Collection: "events",
		ID:         documentID,
		Locale:     "ur",
		Fields:     map[string]any{"title": "سائنس میلہ"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Locale != "ur" {
		t.Fatalf("expected ur localization, got %s", updated.Locale)
	}

	deleted, err := module.Coordinator().Delete(ctx, cms.DeleteRequest{Collection: "events", ID: documentID})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.Status != mutation.DeletionVerified || deleted.Removed != 3 {
		t.Fatalf("expected verified removal of 3 variants, got %+v", deleted)
	}

	_, err = module.Resolver().Resolve(ctx, cms.ResolveRequest{Collection: "events", ID: documentID})
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
