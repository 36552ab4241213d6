package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const createAttempts = 3

// NewRecordRepository builds the go-repository-bun repository for records.
func NewRecordRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord: func() *Record { return &Record{} },
		GetID: func(r *Record) uuid.UUID {
			return r.RowID
		},
		SetID: func(r *Record, id uuid.UUID) {
			r.RowID = id
		},
		GetIdentifier: func() string {
			return "document_id"
		},
		GetIdentifierValue: func(r *Record) string {
			return r.DocumentID
		},
	})
}

// BunStore implements Store on top of bun. Point lookups and writes go through
// the (optionally cached) repository; list, count and delete queries always
// hit the database so verification reads observe committed state.
type BunStore struct {
	db   *bun.DB
	base repository.Repository[*Record]
	repo repository.Repository[*Record]
	now  func() time.Time
}

// BunOption customises a BunStore.
type BunOption func(*BunStore)

// WithBunCache wraps point lookups and writes with go-repository-cache.
func WithBunCache(cacheService cache.CacheService, serializer cache.KeySerializer) BunOption {
	return func(s *BunStore) {
		if cacheService != nil && serializer != nil {
			s.repo = repositorycache.New(s.base, cacheService, serializer)
		}
	}
}

// WithBunClock overrides the timestamp source.
func WithBunClock(now func() time.Time) BunOption {
	return func(s *BunStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewBunStore constructs a bun-backed store.
func NewBunStore(db *bun.DB, opts ...BunOption) *BunStore {
	if db == nil {
		panic("documents: bun store requires a database")
	}
	base := NewRecordRepository(db)
	store := &BunStore{db: db, base: base, repo: base, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *BunStore) FindByKey(ctx context.Context, collection string, key int64, locale string, populate []string) (*Record, error) {
	return s.findOne(ctx, collection, Filter{Key: &key}, locale, populate, fmt.Sprintf("%d", key))
}

func (s *BunStore) FindByDocumentID(ctx context.Context, collection, documentID, locale string, populate []string) (*Record, error) {
	if documentID == "" {
		return nil, &NotFoundError{Resource: collection}
	}
	return s.findOne(ctx, collection, Filter{DocumentID: documentID}, locale, populate, documentID)
}

// lookupScope names the scope data carrying the lookup identity. The cache
// decorator keys List calls by scope state, not by criteria closures.
const lookupScope = "cms.records.lookup"

func lookupSignature(collection string, filter Filter, locale string) string {
	key := ""
	if filter.Key != nil {
		key = fmt.Sprintf("%d", *filter.Key)
	}
	return strings.Join([]string{collection, locale, key, filter.DocumentID}, "|")
}

func (s *BunStore) findOne(ctx context.Context, collection string, filter Filter, locale string, populate []string, key string) (*Record, error) {
	ctx = repository.WithScopeData(ctx, lookupScope, lookupSignature(collection, filter, locale))
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return applyFilter(q, collection, filter, locale).OrderExpr("?TableAlias.numeric_id ASC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, collection, key)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: collection, Key: key}
	}
	return records[0].WithPopulate(populate), nil
}

func (s *BunStore) FindMany(ctx context.Context, collection string, filter Filter, locale string, limit int) ([]*Record, error) {
	records, _, err := s.base.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		q = applyFilter(q, collection, filter, locale)
		for _, field := range filter.Sort {
			column, ok := sortColumns[field.Field]
			if !ok {
				continue
			}
			if field.Desc {
				q = q.OrderExpr("?TableAlias.? DESC", bun.Ident(column))
			} else {
				q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(column))
			}
		}
		q = q.OrderExpr("?TableAlias.numeric_id ASC")
		if limit > 0 {
			q = q.Limit(limit)
			if filter.Offset > 0 {
				q = q.Offset(filter.Offset)
			}
		}
		return q
	}))
	if err != nil {
		return nil, mapRepositoryError(err, collection, "")
	}
	out := make([]*Record, 0, len(records))
	for _, record := range records {
		out = append(out, record.WithPopulate(filter.Populate))
	}
	return out, nil
}

func (s *BunStore) Count(ctx context.Context, collection string, filter Filter, locale string) (int, error) {
	q := s.db.NewSelect().Model((*Record)(nil))
	total, err := applyFilter(q, collection, filter, locale).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s repository error: %w", collection, err)
	}
	return total, nil
}

func (s *BunStore) Create(ctx context.Context, record *Record) (*Record, error) {
	if err := validateIdentity(record); err != nil {
		return nil, err
	}
	existing, err := s.Count(ctx, record.Collection, Filter{DocumentID: record.DocumentID}, record.Locale)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrDuplicateLocalization, record.Collection, record.DocumentID, record.Locale)
	}

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		key, err := s.nextKey(ctx, record.Collection)
		if err != nil {
			return nil, err
		}
		stored := record.Clone()
		stored.ID = key
		if stored.RowID == uuid.Nil {
			stored.RowID = uuid.New()
		}
		now := s.now().UTC()
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		stored.UpdatedAt = now
		if stored.Status == "" {
			stored.Status = StatusDraft
		}

		created, err := s.repo.Create(ctx, stored)
		if err == nil {
			return created, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("%s repository error: %w", record.Collection, err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%s repository error: allocate numeric key: %w", record.Collection, lastErr)
}

func (s *BunStore) nextKey(ctx context.Context, collection string) (int64, error) {
	var current int64
	err := s.db.NewSelect().
		Model((*Record)(nil)).
		ColumnExpr("COALESCE(MAX(?TableAlias.numeric_id), 0)").
		Where("?TableAlias.collection = ?", collection).
		Scan(ctx, &current)
	if err != nil {
		return 0, fmt.Errorf("%s repository error: next key: %w", collection, err)
	}
	return current + 1, nil
}

func (s *BunStore) Update(ctx context.Context, record *Record) (*Record, error) {
	if record == nil {
		return nil, ErrInvalidRecord
	}
	target := record.Clone()
	if target.RowID == uuid.Nil {
		current, err := s.FindByKey(ctx, record.Collection, record.ID, "", nil)
		if err != nil {
			return nil, err
		}
		target.RowID = current.RowID
	}
	target.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, target,
		repository.UpdateByID(target.RowID.String()),
		repository.UpdateColumns(
			"status",
			"title",
			"slug",
			"published_at",
			"start_at",
			"end_at",
			"fields",
			"relations",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, record.Collection, record.Key())
	}
	return updated, nil
}

func (s *BunStore) DeleteDocument(ctx context.Context, collection, documentID string) (int, error) {
	if documentID == "" {
		return 0, ErrUnboundedDelete
	}
	records, err := s.FindMany(ctx, collection, Filter{DocumentID: documentID}, "", 0)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, record := range records {
		if err := s.repo.Delete(ctx, &Record{RowID: record.RowID}); err != nil {
			if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
				continue
			}
			return removed, fmt.Errorf("%s repository error: %w", collection, err)
		}
		removed++
	}
	return removed, nil
}

// DeleteWhere removes every record matching filter across locales. The delete
// runs through the repository so cached lookups are invalidated; the returned
// count is taken just before the delete.
func (s *BunStore) DeleteWhere(ctx context.Context, collection string, filter Filter) (int, error) {
	if !filter.Narrows() {
		return 0, ErrUnboundedDelete
	}
	matched, err := s.Count(ctx, collection, filter, "")
	if err != nil {
		return 0, err
	}
	if matched == 0 {
		return 0, nil
	}
	if err := s.repo.DeleteWhere(ctx, deleteCriteria(collection, filter)); err != nil {
		return 0, mapRepositoryError(err, collection, filter.DocumentID)
	}
	return matched, nil
}

func deleteCriteria(collection string, filter Filter) repository.DeleteCriteria {
	return func(q *bun.DeleteQuery) *bun.DeleteQuery {
		q = q.Where("?TableAlias.collection = ?", collection)
		if filter.Key != nil {
			q = q.Where("?TableAlias.numeric_id = ?", *filter.Key)
		}
		if filter.DocumentID != "" {
			q = q.Where("?TableAlias.document_id = ?", filter.DocumentID)
		}
		if filter.Slug != "" {
			q = q.Where("?TableAlias.slug = ?", filter.Slug)
		}
		return q
	}
}

func applyFilter(q *bun.SelectQuery, collection string, filter Filter, locale string) *bun.SelectQuery {
	q = q.Where("?TableAlias.collection = ?", collection)
	if locale != "" {
		q = q.Where("?TableAlias.locale = ?", locale)
	}
	if filter.Key != nil {
		q = q.Where("?TableAlias.numeric_id = ?", *filter.Key)
	}
	if filter.DocumentID != "" {
		q = q.Where("?TableAlias.document_id = ?", filter.DocumentID)
	}
	if filter.Slug != "" {
		q = q.Where("?TableAlias.slug = ?", filter.Slug)
	}
	if filter.PublishedOnly {
		q = q.Where("?TableAlias.status = ?", StatusPublished).Where("?TableAlias.published_at IS NOT NULL")
	}
	if filter.StartFrom != nil {
		q = q.Where("?TableAlias.start_at >= ?", filter.StartFrom.UTC())
	}
	if filter.StartTo != nil {
		q = q.Where("?TableAlias.start_at <= ?", filter.StartTo.UTC())
	}
	return q
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
