// Package seed loads JSON fixtures into the document store. Each fixture
// document is created once; a document whose slug already exists in the
// collection is skipped on later runs.
package seed

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/identity"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

const schemaFile = "schema.json"

//go:embed fixtures/*.json
var embedded embed.FS

// Fixtures returns the bundled fixture files.
func Fixtures() fs.FS {
	sub, err := fs.Sub(embedded, "fixtures")
	if err != nil {
		panic(err)
	}
	return sub
}

// Fixture is one decoded fixture file.
type Fixture struct {
	File       string     `json:"-"`
	Collection string     `json:"collection"`
	Relations  []string   `json:"relations,omitempty"`
	Documents  []Document `json:"documents"`
}

// Document lists the locale variants of one seeded document.
type Document struct {
	Slug      string                    `json:"slug"`
	Published bool                      `json:"published"`
	Locales   map[string]map[string]any `json:"locales"`
}

// Result reports what Apply did per "collection/slug".
type Result struct {
	Created []string
	Skipped []string
	// Records counts every stored locale variant.
	Records int
}

// Option customises a Seeder.
type Option func(*Seeder)

// WithLogger sets the seeder logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Seeder) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the publish timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) {
		if now != nil {
			s.now = now
		}
	}
}

// Seeder applies fixtures to a document store.
type Seeder struct {
	store   documents.Store
	locales *locale.Set
	schema  *jsonschema.Schema
	logger  interfaces.Logger
	now     func() time.Time
}

// New builds a seeder validating fixtures against the bundled schema.
func New(store documents.Store, locales *locale.Set, opts ...Option) (*Seeder, error) {
	if store == nil || locales == nil {
		panic("seed: store and locales are required")
	}
	raw, err := embedded.ReadFile(path.Join("fixtures", schemaFile))
	if err != nil {
		return nil, err
	}
	schema, err := compileSchema(raw)
	if err != nil {
		return nil, fmt.Errorf("seed: compile schema: %w", err)
	}
	s := &Seeder{
		store:   store,
		locales: locales,
		schema:  schema,
		logger:  logging.NoOp(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Load reads and validates every *.json fixture in fsys, in name order.
func (s *Seeder) Load(fsys fs.FS) ([]Fixture, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	fixtures := make([]Fixture, 0, len(names))
	for _, name := range names {
		if name == schemaFile {
			continue
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		fixture, err := s.decode(name, raw)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}

func (s *Seeder) decode(name string, raw []byte) (Fixture, error) {
	var instance any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&instance); err != nil {
		return Fixture{}, &FixtureError{File: name, Issues: []Issue{{Message: err.Error()}}}
	}
	if err := s.schema.Validate(instance); err != nil {
		return Fixture{}, &FixtureError{File: name, Issues: collectIssues(err)}
	}

	var fixture Fixture
	if err := json.Unmarshal(raw, &fixture); err != nil {
		return Fixture{}, &FixtureError{File: name, Issues: []Issue{{Message: err.Error()}}}
	}
	fixture.File = name
	var issues []Issue
	for i, doc := range fixture.Documents {
		for code := range doc.Locales {
			if !s.locales.Supports(locale.Code(code)) {
				issues = append(issues, Issue{
					Location: fmt.Sprintf("/documents/%d/locales/%s", i, code),
					Message:  "unsupported locale",
				})
			}
		}
	}
	if len(issues) > 0 {
		return Fixture{}, &FixtureError{File: name, Issues: issues}
	}
	return fixture, nil
}

// Apply loads fsys and stores every document not seeded before.
func (s *Seeder) Apply(ctx context.Context, fsys fs.FS) (Result, error) {
	fixtures, err := s.Load(fsys)
	if err != nil {
		return Result{}, err
	}
	var result Result
	for _, fixture := range fixtures {
		for _, doc := range fixture.Documents {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			key := fixture.Collection + "/" + doc.Slug
			logger := logging.WithDocumentContext(s.logger.WithContext(ctx), fixture.Collection, "", "")

			existing, err := s.store.FindMany(ctx, fixture.Collection, documents.Filter{Slug: doc.Slug}, "", 1)
			if err != nil {
				return result, fmt.Errorf("seed: lookup %s: %w", key, err)
			}
			if len(existing) > 0 {
				logger.Debug("seed.document.skipped", "slug", doc.Slug)
				result.Skipped = append(result.Skipped, key)
				continue
			}

			stored, err := s.createDocument(ctx, fixture, doc)
			result.Records += stored
			if err != nil {
				return result, err
			}
			logger.Info("seed.document.created", "slug", doc.Slug, "locales", stored)
			result.Created = append(result.Created, key)
		}
	}
	return result, nil
}

// createDocument stores the variants of doc in locale search order so the
// default locale variant receives the lowest key.
func (s *Seeder) createDocument(ctx context.Context, fixture Fixture, doc Document) (int, error) {
	documentID := identity.SeedDocumentID(fixture.Collection, doc.Slug)
	stored := 0
	for _, code := range s.locales.SearchOrder(s.locales.Default()) {
		data, ok := doc.Locales[code.String()]
		if !ok {
			continue
		}
		record := &documents.Record{
			RowID:      identity.RecordUUID(fixture.Collection, documentID, code.String()),
			Collection: fixture.Collection,
			DocumentID: documentID,
			Locale:     code.String(),
			Slug:       doc.Slug,
			Status:     documents.StatusDraft,
		}
		if err := documents.ApplyFields(record, data, fixture.Relations...); err != nil {
			return stored, fmt.Errorf("seed: %s/%s (%s): %w", fixture.Collection, doc.Slug, code, err)
		}
		if doc.Published {
			now := s.now().UTC()
			record.Status = documents.StatusPublished
			record.PublishedAt = &now
		}
		if _, err := s.store.Create(ctx, record); err != nil {
			return stored, fmt.Errorf("seed: create %s/%s (%s): %w", fixture.Collection, doc.Slug, code, err)
		}
		stored++
	}
	return stored, nil
}
