package documents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/pkg/testsupport"
)

func storesUnderTest(t *testing.T) map[string]documents.Store {
	t.Helper()
	cached := documents.NewBunStore(testsupport.NewBunDB(t, (*documents.Record)(nil)),
		documents.WithBunCache(newCacheService(t), repocache.NewDefaultKeySerializer()),
	)
	return map[string]documents.Store{
		"memory":    documents.NewMemoryStore(),
		"bun":       documents.NewBunStore(testsupport.NewBunDB(t, (*documents.Record)(nil))),
		"bun+cache": cached,
	}
}

func newCacheService(t *testing.T) repocache.CacheService {
	t.Helper()
	service, err := repocache.NewCacheService(repocache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	return service
}

func mustCreate(t *testing.T, store documents.Store, record *documents.Record) *documents.Record {
	t.Helper()
	created, err := store.Create(context.Background(), record)
	if err != nil {
		t.Fatalf("create %s/%s: %v", record.DocumentID, record.Locale, err)
	}
	return created
}

func date(day int) *time.Time {
	value := time.Date(2025, time.March, day, 9, 0, 0, 0, time.UTC)
	return &value
}

func TestStoreAssignsKeysPerCollection(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			first := mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "doc-a", Locale: "en", Title: "Open day"})
			second := mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "doc-a", Locale: "ar", Title: "يوم مفتوح"})
			other := mustCreate(t, store, &documents.Record{Collection: "forms", DocumentID: "doc-f", Locale: "en"})

			if first.ID != 1 || second.ID != 2 {
				t.Fatalf("expected sequential keys 1,2 got %d,%d", first.ID, second.ID)
			}
			if other.ID != 1 {
				t.Fatalf("expected keys to restart per collection, got %d", other.ID)
			}
			if first.Status != documents.StatusDraft {
				t.Fatalf("expected default draft status, got %q", first.Status)
			}
		})
	}
}

func TestStoreLookupsAreLocaleScoped(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			en := mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "doc-a", Locale: "en", Title: "Open day"})
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "doc-a", Locale: "ar", Title: "يوم مفتوح"})

			got, err := store.FindByKey(ctx, "events", en.ID, "en", nil)
			if err != nil || got.Title != "Open day" {
				t.Fatalf("FindByKey en: %v %+v", err, got)
			}
			if _, err := store.FindByKey(ctx, "events", en.ID, "ar", nil); !documents.IsNotFound(err) {
				t.Fatalf("expected key %d to miss in ar, got %v", en.ID, err)
			}

			got, err = store.FindByDocumentID(ctx, "events", "doc-a", "ar", nil)
			if err != nil || got.Locale != "ar" {
				t.Fatalf("FindByDocumentID ar: %v %+v", err, got)
			}

			_, err = store.FindByDocumentID(ctx, "events", "missing", "en", nil)
			var notFound *documents.NotFoundError
			if !errors.As(err, &notFound) || notFound.Key != "missing" {
				t.Fatalf("expected typed not found error, got %v", err)
			}
		})
	}
}

func TestStoreRejectsDuplicateLocalization(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "doc-a", Locale: "en"})
			_, err := store.Create(context.Background(), &documents.Record{Collection: "events", DocumentID: "doc-a", Locale: "en"})
			if !errors.Is(err, documents.ErrDuplicateLocalization) {
				t.Fatalf("expected ErrDuplicateLocalization, got %v", err)
			}
		})
	}
}

func TestStoreFindManyFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "a", Locale: "en", Slug: "shared", StartAt: date(20)})
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "b", Locale: "ar", Slug: "shared", StartAt: date(5)})
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "c", Locale: "en", Slug: "other", StartAt: date(10),
				Status: documents.StatusPublished, PublishedAt: date(1)})

			bySlug, err := store.FindMany(ctx, "events", documents.Filter{Slug: "shared"}, "", 0)
			if err != nil {
				t.Fatalf("FindMany slug: %v", err)
			}
			if diff := cmp.Diff([]string{"a", "b"}, documentIDs(bySlug)); diff != "" {
				t.Fatalf("slug matches should follow insertion order (-want +got):\n%s", diff)
			}

			sorted, err := store.FindMany(ctx, "events", documents.Filter{
				Sort: []documents.SortField{{Field: "startAt"}},
			}, "", 0)
			if err != nil {
				t.Fatalf("FindMany sorted: %v", err)
			}
			if diff := cmp.Diff([]string{"b", "c", "a"}, documentIDs(sorted)); diff != "" {
				t.Fatalf("sort mismatch (-want +got):\n%s", diff)
			}

			page, err := store.FindMany(ctx, "events", documents.Filter{
				Sort:   []documents.SortField{{Field: "startAt", Desc: true}},
				Offset: 1,
			}, "", 1)
			if err != nil {
				t.Fatalf("FindMany page: %v", err)
			}
			if diff := cmp.Diff([]string{"c"}, documentIDs(page)); diff != "" {
				t.Fatalf("page mismatch (-want +got):\n%s", diff)
			}

			published, err := store.FindMany(ctx, "events", documents.Filter{PublishedOnly: true}, "en", 0)
			if err != nil {
				t.Fatalf("FindMany published: %v", err)
			}
			if diff := cmp.Diff([]string{"c"}, documentIDs(published)); diff != "" {
				t.Fatalf("published mismatch (-want +got):\n%s", diff)
			}

			ranged, err := store.FindMany(ctx, "events", documents.Filter{StartFrom: date(6), StartTo: date(20)}, "", 0)
			if err != nil {
				t.Fatalf("FindMany range: %v", err)
			}
			if diff := cmp.Diff([]string{"a", "c"}, documentIDs(ranged)); diff != "" {
				t.Fatalf("range mismatch (-want +got):\n%s", diff)
			}

			total, err := store.Count(ctx, "events", documents.Filter{}, "en")
			if err != nil || total != 2 {
				t.Fatalf("Count en = %d, %v; want 2", total, err)
			}
		})
	}
}

func TestStorePopulateFiltersRelations(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			created := mustCreate(t, store, &documents.Record{
				Collection: "events", DocumentID: "a", Locale: "en",
				Relations: map[string]any{
					"cover":   map[string]any{"url": "/uploads/cover.jpg"},
					"gallery": []any{"/uploads/1.jpg"},
				},
			})

			bare, err := store.FindByKey(ctx, "events", created.ID, "en", nil)
			if err != nil {
				t.Fatalf("FindByKey: %v", err)
			}
			if len(bare.Relations) != 0 {
				t.Fatalf("expected no relations without populate, got %v", bare.Relations)
			}

			withCover, err := store.FindByKey(ctx, "events", created.ID, "en", []string{"cover"})
			if err != nil {
				t.Fatalf("FindByKey populate: %v", err)
			}
			if _, ok := withCover.Relations["cover"]; !ok || len(withCover.Relations) != 1 {
				t.Fatalf("expected only cover relation, got %v", withCover.Relations)
			}

			all, err := store.FindByDocumentID(ctx, "events", "a", "en", []string{documents.PopulateAll})
			if err != nil || len(all.Relations) != 2 {
				t.Fatalf("expected every relation with *, got %v (%v)", all.Relations, err)
			}
		})
	}
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			created := mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "a", Locale: "en", Title: "Before"})

			created.Title = "After"
			created.Fields = map[string]any{"venue": "Main hall"}
			updated, err := store.Update(ctx, created)
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if updated.Title != "After" {
				t.Fatalf("expected title updated, got %q", updated.Title)
			}

			reloaded, err := store.FindByKey(ctx, "events", created.ID, "en", nil)
			if err != nil {
				t.Fatalf("FindByKey: %v", err)
			}
			if reloaded.Title != "After" || reloaded.Fields["venue"] != "Main hall" {
				t.Fatalf("expected persisted update, got %+v", reloaded)
			}

			_, err = store.Update(ctx, &documents.Record{Collection: "events", ID: 999, DocumentID: "x", Locale: "en"})
			if !documents.IsNotFound(err) {
				t.Fatalf("expected not found updating missing record, got %v", err)
			}
		})
	}
}

func TestStoreDeletes(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "a", Locale: "en"})
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "a", Locale: "ur"})
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "b", Locale: "en", Slug: "keep"})

			removed, err := store.DeleteDocument(ctx, "events", "a")
			if err != nil || removed != 2 {
				t.Fatalf("DeleteDocument = %d, %v; want 2", removed, err)
			}
			remaining, err := store.FindMany(ctx, "events", documents.Filter{DocumentID: "a"}, "", 0)
			if err != nil || len(remaining) != 0 {
				t.Fatalf("expected document a gone, got %d (%v)", len(remaining), err)
			}

			if _, err := store.DeleteWhere(ctx, "events", documents.Filter{}); !errors.Is(err, documents.ErrUnboundedDelete) {
				t.Fatalf("expected ErrUnboundedDelete, got %v", err)
			}

			removed, err = store.DeleteWhere(ctx, "events", documents.Filter{Slug: "keep"})
			if err != nil || removed != 1 {
				t.Fatalf("DeleteWhere = %d, %v; want 1", removed, err)
			}
		})
	}
}

func TestStoreDeleteWhereDropsCachedLookups(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			en := mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "doc-1", Locale: "en", Title: "Fair"})
			mustCreate(t, store, &documents.Record{Collection: "events", DocumentID: "doc-1", Locale: "ar", Title: "معرض"})

			if _, err := store.FindByKey(ctx, "events", en.ID, "en", nil); err != nil {
				t.Fatalf("FindByKey before delete: %v", err)
			}
			if _, err := store.FindByDocumentID(ctx, "events", "doc-1", "ar", nil); err != nil {
				t.Fatalf("FindByDocumentID before delete: %v", err)
			}

			removed, err := store.DeleteWhere(ctx, "events", documents.Filter{DocumentID: "doc-1"})
			if err != nil || removed != 2 {
				t.Fatalf("DeleteWhere = %d, %v; want 2", removed, err)
			}

			if got, err := store.FindByKey(ctx, "events", en.ID, "en", nil); !documents.IsNotFound(err) {
				t.Fatalf("expected key lookup to miss after delete, got %+v (%v)", got, err)
			}
			if got, err := store.FindByDocumentID(ctx, "events", "doc-1", "ar", nil); !documents.IsNotFound(err) {
				t.Fatalf("expected document lookup to miss after delete, got %+v (%v)", got, err)
			}
			if removed, err := store.DeleteWhere(ctx, "events", documents.Filter{DocumentID: "doc-1"}); err != nil || removed != 0 {
				t.Fatalf("second DeleteWhere = %d, %v; want 0", removed, err)
			}
		})
	}
}

func TestMemoryStoreHonoursCancellation(t *testing.T) {
	store := documents.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.FindByKey(ctx, "events", 1, "en", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func documentIDs(records []*documents.Record) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.DocumentID)
	}
	return out
}
