package resolver

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/identifier"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// Outcomes reported to an Observer.
const (
	OutcomeDirect   = "direct"
	OutcomeFallback = "fallback"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// StepKind names one lookup attempted while resolving.
type StepKind string

const (
	StepKey        StepKind = "key"
	StepDocumentID StepKind = "document_id"
	StepSlug       StepKind = "slug"
)

// Step records one attempted lookup.
type Step struct {
	Kind   StepKind
	Locale locale.Code
	Value  string
}

// Request describes a resolution.
type Request struct {
	Collection string
	ID         string
	// Locale is the negotiated locale; empty means the default locale.
	Locale   locale.Code
	Populate []string
	// PublishedOnly rejects records that are not published at every step.
	PublishedOnly bool
}

// Result is the outcome of a successful resolution.
type Result struct {
	Record    *documents.Record
	Requested locale.Code
	Returned  locale.Code
	Fallback  bool
}

// Observer receives one outcome per Resolve call.
type Observer interface {
	ObserveResolution(collection, outcome string)
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer registers a callback invoked before every lookup.
func WithTracer(trace func(Step)) Option {
	return func(r *Resolver) {
		r.trace = trace
	}
}

// WithObserver registers an outcome observer.
func WithObserver(observer Observer) Option {
	return func(r *Resolver) {
		r.observer = observer
	}
}

// Resolver finds the record addressed by an untyped identifier, trying the
// numeric key, the document id and the slug in the requested locale before
// repeating the same chain in the default locale.
type Resolver struct {
	store    documents.Store
	locales  *locale.Set
	logger   interfaces.Logger
	trace    func(Step)
	observer Observer
}

// New constructs a Resolver.
func New(store documents.Store, locales *locale.Set, opts ...Option) *Resolver {
	if store == nil {
		panic("resolver: store is required")
	}
	if locales == nil {
		panic("resolver: locale set is required")
	}
	r := &Resolver{store: store, locales: locales, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Locales returns the supported locale set.
func (r *Resolver) Locales() *locale.Set { return r.locales }

// Resolve returns the record addressed by req.ID. Store misses and store
// errors fall through to the next step; only cancellation of ctx aborts the
// chain. When every step fails in both locales a *documents.NotFoundError is
// returned.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	requested := req.Locale
	if requested == "" {
		requested = r.locales.Default()
	}
	logger := logging.WithDocumentContext(r.logger.WithContext(ctx), req.Collection, "", requested.String())

	if strings.TrimSpace(req.ID) == "" {
		r.observe(req.Collection, OutcomeNotFound)
		return nil, &documents.NotFoundError{Resource: req.Collection}
	}

	record, err := r.resolveIn(ctx, logger, req, requested)
	if err != nil {
		r.observe(req.Collection, OutcomeError)
		return nil, err
	}
	if record != nil {
		r.observe(req.Collection, OutcomeDirect)
		return &Result{Record: record, Requested: requested, Returned: requested}, nil
	}

	def := r.locales.Default()
	if requested != def {
		record, err = r.resolveIn(ctx, logger, req, def)
		if err != nil {
			r.observe(req.Collection, OutcomeError)
			return nil, err
		}
		if record != nil {
			logger.Debug("resolver.fallback.default_locale", "id", req.ID, "returned", def.String())
			r.observe(req.Collection, OutcomeFallback)
			return &Result{Record: record, Requested: requested, Returned: def, Fallback: true}, nil
		}
	}

	logger.Debug("resolver.not_found", "id", req.ID)
	r.observe(req.Collection, OutcomeNotFound)
	return nil, &documents.NotFoundError{Resource: req.Collection, Key: req.ID}
}

// resolveIn runs the key, document id and slug steps for one locale. A nil
// record with a nil error means every step missed.
func (r *Resolver) resolveIn(ctx context.Context, logger interfaces.Logger, req Request, code locale.Code) (*documents.Record, error) {
	id := identifier.Classify(req.ID)

	if key, ok := id.Int(); ok {
		if record, err := r.byKey(ctx, logger, req, key, code); record != nil || err != nil {
			return record, err
		}
		if record, err := r.byDocumentID(ctx, logger, req, id.String(), code); record != nil || err != nil {
			return record, err
		}
	} else {
		if record, err := r.byDocumentID(ctx, logger, req, id.String(), code); record != nil || err != nil {
			return record, err
		}
		// Opaque values can still carry an integer after trimming, e.g. " 42".
		if key, err := strconv.ParseInt(strings.TrimSpace(id.String()), 10, 64); err == nil {
			if record, err := r.byKey(ctx, logger, req, key, code); record != nil || err != nil {
				return record, err
			}
		}
	}

	return r.bySlug(ctx, logger, req, id.String(), code)
}

func (r *Resolver) byKey(ctx context.Context, logger interfaces.Logger, req Request, key int64, code locale.Code) (*documents.Record, error) {
	r.emit(Step{Kind: StepKey, Locale: code, Value: strconv.FormatInt(key, 10)})
	record, err := r.store.FindByKey(ctx, req.Collection, key, code.String(), req.Populate)
	return r.accept(ctx, logger, req, StepKey, record, err)
}

func (r *Resolver) byDocumentID(ctx context.Context, logger interfaces.Logger, req Request, documentID string, code locale.Code) (*documents.Record, error) {
	r.emit(Step{Kind: StepDocumentID, Locale: code, Value: documentID})
	record, err := r.store.FindByDocumentID(ctx, req.Collection, documentID, code.String(), req.Populate)
	return r.accept(ctx, logger, req, StepDocumentID, record, err)
}

func (r *Resolver) bySlug(ctx context.Context, logger interfaces.Logger, req Request, slug string, code locale.Code) (*documents.Record, error) {
	r.emit(Step{Kind: StepSlug, Locale: code, Value: slug})
	records, err := r.store.FindMany(ctx, req.Collection, documents.Filter{
		Slug:          slug,
		PublishedOnly: req.PublishedOnly,
		Populate:      req.Populate,
	}, code.String(), 1)
	var record *documents.Record
	if len(records) > 0 {
		record = records[0]
	}
	return r.accept(ctx, logger, req, StepSlug, record, err)
}

// accept turns a lookup result into the resolver's three-way outcome: a
// record, a miss (nil, nil) or an abort (nil, ctx error).
func (r *Resolver) accept(ctx context.Context, logger interfaces.Logger, req Request, kind StepKind, record *documents.Record, err error) (*documents.Record, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !documents.IsNotFound(err) {
			logger.Warn("resolver.step.failed", "step", string(kind), "id", req.ID, "error", err)
		}
		return nil, nil
	}
	if record == nil {
		return nil, nil
	}
	if req.PublishedOnly && !record.IsPublished() {
		logger.Trace("resolver.step.unpublished", "step", string(kind), "id", req.ID)
		return nil, nil
	}
	return record, nil
}

func (r *Resolver) emit(step Step) {
	if r.trace != nil {
		r.trace(step)
	}
}

func (r *Resolver) observe(collection, outcome string) {
	if r.observer != nil {
		r.observer.ObserveResolution(collection, outcome)
	}
}
