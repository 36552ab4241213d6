package documents

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in insertion order. It is used by tests and
// scaffolding where no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
	nextKey map[string]int64
	now     func() time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the timestamp source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		nextKey: map[string]int64{},
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (m *MemoryStore) FindByKey(ctx context.Context, collection string, key int64, locale string, populate []string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.records {
		if record.Collection == collection && record.ID == key && matchesLocale(record, locale) {
			return record.WithPopulate(populate), nil
		}
	}
	return nil, &NotFoundError{Resource: collection, Key: fmt.Sprintf("%d", key)}
}

func (m *MemoryStore) FindByDocumentID(ctx context.Context, collection, documentID, locale string, populate []string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.records {
		if record.Collection == collection && record.DocumentID == documentID && matchesLocale(record, locale) {
			return record.WithPopulate(populate), nil
		}
	}
	return nil, &NotFoundError{Resource: collection, Key: documentID}
}

func (m *MemoryStore) FindMany(ctx context.Context, collection string, filter Filter, locale string, limit int) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := make([]*Record, 0)
	for _, record := range m.records {
		if record.Collection == collection && matchesLocale(record, locale) && matchesFilter(record, filter) {
			matched = append(matched, record)
		}
	}
	m.mu.RUnlock()

	if len(filter.Sort) > 0 {
		slices.SortStableFunc(matched, func(a, b *Record) int {
			return compareRecords(a, b, filter.Sort)
		})
	}
	if limit > 0 && filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*Record, 0, len(matched))
	for _, record := range matched {
		out = append(out, record.WithPopulate(filter.Populate))
	}
	return out, nil
}

func (m *MemoryStore) Count(ctx context.Context, collection string, filter Filter, locale string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, record := range m.records {
		if record.Collection == collection && matchesLocale(record, locale) && matchesFilter(record, filter) {
			total++
		}
	}
	return total, nil
}

func (m *MemoryStore) Create(ctx context.Context, record *Record) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateIdentity(record); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.records {
		if existing.Collection == record.Collection && existing.DocumentID == record.DocumentID && existing.Locale == record.Locale {
			return nil, fmt.Errorf("%w: %s/%s/%s", ErrDuplicateLocalization, record.Collection, record.DocumentID, record.Locale)
		}
	}

	stored := record.Clone()
	if stored.RowID == uuid.Nil {
		stored.RowID = uuid.New()
	}
	m.nextKey[stored.Collection]++
	stored.ID = m.nextKey[stored.Collection]
	now := m.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if stored.Status == "" {
		stored.Status = StatusDraft
	}
	m.records = append(m.records, stored)
	return stored.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, record *Record) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.records {
		if existing.Collection != record.Collection || existing.ID != record.ID {
			continue
		}
		stored := record.Clone()
		stored.RowID = existing.RowID
		stored.DocumentID = existing.DocumentID
		stored.Locale = existing.Locale
		stored.CreatedAt = existing.CreatedAt
		stored.UpdatedAt = m.now().UTC()
		m.records[i] = stored
		return stored.Clone(), nil
	}
	return nil, &NotFoundError{Resource: record.Collection, Key: record.Key()}
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, collection, documentID string) (int, error) {
	return m.DeleteWhere(ctx, collection, Filter{DocumentID: documentID})
}

func (m *MemoryStore) DeleteWhere(ctx context.Context, collection string, filter Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !filter.Narrows() {
		return 0, ErrUnboundedDelete
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	removed := 0
	for _, record := range m.records {
		if record.Collection == collection && matchesFilter(record, filter) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	clear(m.records[len(kept):])
	m.records = kept
	return removed, nil
}

func validateIdentity(record *Record) error {
	switch {
	case record == nil:
		return ErrInvalidRecord
	case record.Collection == "":
		return fmt.Errorf("%w: collection is required", ErrInvalidRecord)
	case record.DocumentID == "":
		return fmt.Errorf("%w: document id is required", ErrInvalidRecord)
	case record.Locale == "":
		return fmt.Errorf("%w: locale is required", ErrInvalidRecord)
	}
	return nil
}

func matchesLocale(record *Record, locale string) bool {
	return locale == "" || record.Locale == locale
}

func matchesFilter(record *Record, filter Filter) bool {
	if filter.Key != nil && record.ID != *filter.Key {
		return false
	}
	if filter.DocumentID != "" && record.DocumentID != filter.DocumentID {
		return false
	}
	if filter.Slug != "" && record.Slug != filter.Slug {
		return false
	}
	if filter.PublishedOnly && !record.IsPublished() {
		return false
	}
	if filter.StartFrom != nil && (record.StartAt == nil || record.StartAt.Before(*filter.StartFrom)) {
		return false
	}
	if filter.StartTo != nil && (record.StartAt == nil || record.StartAt.After(*filter.StartTo)) {
		return false
	}
	return true
}

func compareRecords(a, b *Record, sort []SortField) int {
	for _, field := range sort {
		var result int
		switch field.Field {
		case "id":
			result = cmp.Compare(a.ID, b.ID)
		case "title":
			result = cmp.Compare(a.Title, b.Title)
		case "slug":
			result = cmp.Compare(a.Slug, b.Slug)
		case "startAt":
			result = compareTimes(a.StartAt, b.StartAt)
		case "endAt":
			result = compareTimes(a.EndAt, b.EndAt)
		case "publishedAt":
			result = compareTimes(a.PublishedAt, b.PublishedAt)
		case "createdAt":
			result = a.CreatedAt.Compare(b.CreatedAt)
		case "updatedAt":
			result = a.UpdatedAt.Compare(b.UpdatedAt)
		}
		if field.Desc {
			result = -result
		}
		if result != 0 {
			return result
		}
	}
	return 0
}

// compareTimes orders nil values last.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
