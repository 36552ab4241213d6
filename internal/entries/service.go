package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/internal/mutation"
	"github.com/goliatone/go-cms-locales/internal/resolver"
	"github.com/goliatone/go-cms-locales/internal/runtimeconfig"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// ErrInvalidQuery is returned when list parameters cannot be parsed.
var ErrInvalidQuery = errors.New("entries: invalid query")

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// ListQuery captures the public list parameters of a collection.
type ListQuery struct {
	Locale   locale.Code
	DateFrom string
	DateTo   string
	// Upcoming restricts results to records starting now or later and
	// replaces any DateFrom bound.
	Upcoming bool
	Page     int
	PageSize int
	Sort     string
	Populate []string
	// Anonymous marks requests without an authenticated actor.
	Anonymous bool
}

// Pagination mirrors the meta block returned alongside list results.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// ListResult holds one page of records.
type ListResult struct {
	Data       []*documents.Record
	Pagination Pagination
	Locale     locale.Code
}

// GetQuery addresses a single record.
type GetQuery struct {
	ID        string
	Locale    locale.Code
	Populate  []string
	Anonymous bool
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used by the upcoming filter.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPublishPolicy sets the publish-state policy (off, public or always).
func WithPublishPolicy(policy string) Option {
	return func(s *Service) {
		s.policy = strings.ToLower(strings.TrimSpace(policy))
	}
}

// WithPageSizes sets the default and maximum page sizes.
func WithPageSizes(def, max int) Option {
	return func(s *Service) {
		if def > 0 {
			s.pageSize = def
		}
		if max > 0 {
			s.maxPageSize = max
		}
	}
}

// WithDefaultPopulate sets the relations returned per collection when the
// request does not name any.
func WithDefaultPopulate(populate map[string][]string) Option {
	return func(s *Service) {
		if populate != nil {
			s.populate = populate
		}
	}
}

// WithDefaultSort sets the sort expression per collection.
func WithDefaultSort(sorts map[string]string) Option {
	return func(s *Service) {
		for collection, expr := range sorts {
			s.sorts[collection] = expr
		}
	}
}

// Service exposes list, read and write use-cases for localized collections.
type Service struct {
	store       documents.Store
	resolver    *resolver.Resolver
	coordinator *mutation.Coordinator
	locales     *locale.Set
	logger      interfaces.Logger
	now         func() time.Time
	policy      string
	pageSize    int
	maxPageSize int
	populate    map[string][]string
	sorts       map[string]string
}

// NewService wires the collection service.
func NewService(store documents.Store, res *resolver.Resolver, coordinator *mutation.Coordinator, opts ...Option) *Service {
	if store == nil || res == nil || coordinator == nil {
		panic("entries: store, resolver and coordinator are required")
	}
	s := &Service{
		store:       store,
		resolver:    res,
		coordinator: coordinator,
		locales:     res.Locales(),
		logger:      logging.NoOp(),
		now:         time.Now,
		policy:      runtimeconfig.PublishPolicyOff,
		pageSize:    defaultPageSize,
		maxPageSize: maxPageSize,
		populate:    map[string][]string{},
		sorts:       map[string]string{"events": "startAt:asc"},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Locales returns the supported locale set.
func (s *Service) Locales() *locale.Set { return s.locales }

// List returns one page of records in the requested locale. Unsupported
// locales list the default locale.
func (s *Service) List(ctx context.Context, collection string, q ListQuery) (*ListResult, error) {
	code := s.normalizeLocale(q.Locale)
	filter := documents.Filter{
		PublishedOnly: s.publishedOnly(q.Anonymous),
		Populate:      s.populateFor(collection, q.Populate),
	}

	if q.DateFrom != "" {
		from, err := documents.ParseTime(q.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: date_from: %v", ErrInvalidQuery, err)
		}
		filter.StartFrom = &from
	}
	if q.DateTo != "" {
		to, err := documents.ParseTime(q.DateTo)
		if err != nil {
			return nil, fmt.Errorf("%w: date_to: %v", ErrInvalidQuery, err)
		}
		filter.StartTo = &to
	}
	if q.Upcoming {
		now := s.now()
		filter.StartFrom = &now
	}

	sortExpr := strings.TrimSpace(q.Sort)
	if sortExpr == "" {
		sortExpr = s.sorts[collection]
	}
	if sortExpr != "" {
		sort, err := documents.ParseSort(sortExpr)
		if err != nil {
			return nil, fmt.Errorf("%w: sort: %v", ErrInvalidQuery, err)
		}
		filter.Sort = sort
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = s.pageSize
	}
	if size > s.maxPageSize {
		size = s.maxPageSize
	}
	filter.Offset = (page - 1) * size

	records, err := s.store.FindMany(ctx, collection, filter, code.String(), size)
	if err != nil {
		return nil, err
	}
	countFilter := filter
	countFilter.Offset = 0
	countFilter.Sort = nil
	total, err := s.store.Count(ctx, collection, countFilter, code.String())
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*documents.Record{}
	}

	return &ListResult{
		Data:   records,
		Locale: code,
		Pagination: Pagination{
			Page:      page,
			PageSize:  size,
			PageCount: (total + size - 1) / size,
			Total:     total,
		},
	}, nil
}

// Get resolves one record with locale fallback.
func (s *Service) Get(ctx context.Context, collection string, q GetQuery) (*resolver.Result, error) {
	return s.resolver.Resolve(ctx, resolver.Request{
		Collection:    collection,
		ID:            q.ID,
		Locale:        s.normalizeLocale(q.Locale),
		Populate:      s.populateFor(collection, q.Populate),
		PublishedOnly: s.publishedOnly(q.Anonymous),
	})
}

// Create stores a new document in code. A slug is derived from the title
// when the payload does not carry one.
func (s *Service) Create(ctx context.Context, collection string, code locale.Code, data map[string]any, populate []string) (*documents.Record, error) {
	code = s.normalizeLocale(code)
	payload := documents.StripKeys(data, "locale")

	record := &documents.Record{
		Collection: collection,
		DocumentID: newDocumentID(),
		Locale:     code.String(),
		Status:     documents.StatusDraft,
	}
	if err := documents.ApplyFields(record, payload, s.populate[collection]...); err != nil {
		return nil, &documents.MutationError{Op: "create", Collection: collection, Locale: code.String(), Err: err}
	}
	if record.Slug == "" {
		record.Slug = slugFor(record.Title, record.DocumentID)
	}

	created, err := s.store.Create(ctx, record)
	if err != nil {
		return nil, &documents.MutationError{Op: "create", Collection: collection, DocumentID: record.DocumentID, Locale: code.String(), Err: err}
	}
	logging.WithDocumentContext(s.logger.WithContext(ctx), collection, created.DocumentID, created.Locale).
		Info("entries.created", "key", created.ID, "slug", created.Slug)

	populated, err := s.store.FindByDocumentID(ctx, collection, created.DocumentID, code.String(), s.populateFor(collection, populate))
	if err != nil {
		return created, nil
	}
	return populated, nil
}

// Update applies data to the code variant of the addressed document. The
// locale and slug keys are ignored.
func (s *Service) Update(ctx context.Context, collection, id string, code locale.Code, data map[string]any) (*documents.Record, error) {
	return s.coordinator.Update(ctx, mutation.UpdateRequest{
		Collection: collection,
		ID:         id,
		Locale:     code,
		Fields:     documents.StripKeys(data, "locale", "slug"),
	})
}

// Delete removes every locale variant of the addressed document.
func (s *Service) Delete(ctx context.Context, collection, id string) (*mutation.DeletionResult, error) {
	return s.coordinator.Delete(ctx, mutation.DeleteRequest{Collection: collection, ID: id})
}

func (s *Service) normalizeLocale(code locale.Code) locale.Code {
	code = locale.Normalize(code.String())
	if code == "" || !s.locales.Supports(code) {
		return s.locales.Default()
	}
	return code
}

func (s *Service) publishedOnly(anonymous bool) bool {
	switch s.policy {
	case runtimeconfig.PublishPolicyAlways:
		return true
	case runtimeconfig.PublishPolicyPublic:
		return anonymous
	default:
		return false
	}
}

func (s *Service) populateFor(collection string, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return s.populate[collection]
}

func newDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// slugFor normalizes title, falling back to the document id when the title
// normalizes to nothing.
func slugFor(title, documentID string) string {
	if normalized, err := slug.Normalize(title); err == nil && normalized != "" {
		return normalized
	}
	return documentID
}
