package locale

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists supported locales.
type Repository interface {
	List(ctx context.Context) ([]*Locale, error)
	GetByCode(ctx context.Context, code string) (*Locale, error)
	Create(ctx context.Context, record *Locale) (*Locale, error)
	Update(ctx context.Context, record *Locale) (*Locale, error)
}

// MemoryRepository stores locales in insertion order.
type MemoryRepository struct {
	mu      sync.RWMutex
	order   []string
	locales map[string]*Locale
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{locales: make(map[string]*Locale)}
}

func (m *MemoryRepository) List(_ context.Context) ([]*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Locale, 0, len(m.order))
	for _, code := range m.order {
		copied := *m.locales[code]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MemoryRepository) GetByCode(_ context.Context, code string) (*Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.locales[strings.ToLower(code)]
	if !ok {
		return nil, &NotFoundError{Code: code}
	}
	copied := *record
	return &copied, nil
}

func (m *MemoryRepository) Create(_ context.Context, record *Locale) (*Locale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(record.Code)
	if _, exists := m.locales[key]; exists {
		return nil, fmt.Errorf("locale repository error: duplicate code %q", record.Code)
	}
	copied := *record
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	m.locales[key] = &copied
	m.order = append(m.order, key)
	out := copied
	return &out, nil
}

func (m *MemoryRepository) Update(_ context.Context, record *Locale) (*Locale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(record.Code)
	if _, exists := m.locales[key]; !exists {
		return nil, &NotFoundError{Code: record.Code}
	}
	copied := *record
	m.locales[key] = &copied
	out := copied
	return &out, nil
}

// NewLocaleRepository builds the go-repository-bun repository for locales.
func NewLocaleRepository(db *bun.DB) repository.Repository[*Locale] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Locale]{
		NewRecord: func() *Locale { return &Locale{} },
		GetID: func(l *Locale) uuid.UUID {
			return l.ID
		},
		SetID: func(l *Locale, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(l *Locale) string {
			return l.Code
		},
	})
}

// BunRepository implements Repository on top of bun with optional caching.
type BunRepository struct {
	repo repository.Repository[*Locale]
}

// NewBunRepository constructs a locale repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache constructs a locale repository with caching support.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewLocaleRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunRepository{repo: base}
}

func (r *BunRepository) List(ctx context.Context) ([]*Locale, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.is_default DESC, ?TableAlias.code ASC")
	}))
	return records, err
}

func (r *BunRepository) GetByCode(ctx context.Context, code string) (*Locale, error) {
	record, err := r.repo.GetByIdentifier(ctx, strings.ToLower(code))
	if err != nil {
		return nil, mapRepositoryError(err, code)
	}
	return record, nil
}

func (r *BunRepository) Create(ctx context.Context, record *Locale) (*Locale, error) {
	return r.repo.Create(ctx, record)
}

func (r *BunRepository) Update(ctx context.Context, record *Locale) (*Locale, error) {
	return r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"name",
			"native_name",
			"rtl",
			"is_active",
			"is_default",
			"updated_at",
		),
	)
}

func mapRepositoryError(err error, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Code: code}
	}
	return fmt.Errorf("locale repository error: %w", err)
}

// LoadSet builds the supported set from active persisted locales.
func LoadSet(ctx context.Context, repo Repository) (*Set, error) {
	records, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	defs := make([]Definition, 0, len(records))
	for _, record := range records {
		if !record.IsActive {
			continue
		}
		defs = append(defs, Definition{
			Code:      record.Code,
			Name:      record.Name,
			IsDefault: record.IsDefault,
		})
	}
	slices.SortStableFunc(defs, func(a, b Definition) int {
		switch {
		case a.IsDefault && !b.IsDefault:
			return -1
		case b.IsDefault && !a.IsDefault:
			return 1
		}
		return 0
	})
	return SetFromDefinitions(defs)
}
