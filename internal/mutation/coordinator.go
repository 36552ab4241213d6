package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/internal/resolver"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// Deletion methods name the path that removed the last records.
const (
	MethodDocuments = "documents-api"
	MethodQuery     = "query-api"
)

// DeletionStatus reports whether a deletion was confirmed by a read.
type DeletionStatus string

const (
	DeletionVerified    DeletionStatus = "verified"
	DeletionUnconfirmed DeletionStatus = "unconfirmed"
)

// UpdateRequest targets one locale variant of a document.
type UpdateRequest struct {
	Collection string
	ID         string
	Locale     locale.Code
	Fields     map[string]any
}

// DeleteRequest targets a whole document. Locale is accepted for symmetry
// with the other operations and ignored.
type DeleteRequest struct {
	Collection string
	ID         string
	Locale     locale.Code
}

// DeletionResult describes a completed delete.
type DeletionResult struct {
	DocumentID string
	// Record is the variant the identifier resolved to before deletion.
	Record  *documents.Record
	Method  string
	Status  DeletionStatus
	Removed int
}

// Observer receives mutation outcomes.
type Observer interface {
	ObserveUpdate(collection, outcome string)
	ObserveDeletion(collection, method, status string)
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithLocalizationService sets the service used to create missing locale variants.
func WithLocalizationService(svc documents.LocalizationService) Option {
	return func(c *Coordinator) {
		c.localizations = svc
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an outcome observer.
func WithObserver(observer Observer) Option {
	return func(c *Coordinator) {
		c.observer = observer
	}
}

// WithRelationKeys declares which payload keys are relations per collection.
func WithRelationKeys(relations map[string][]string) Option {
	return func(c *Coordinator) {
		if relations != nil {
			c.relations = relations
		}
	}
}

// Coordinator applies updates and deletes across the locale variants of a document.
type Coordinator struct {
	store         documents.Store
	resolver      *resolver.Resolver
	localizations documents.LocalizationService
	locales       *locale.Set
	logger        interfaces.Logger
	observer      Observer
	relations     map[string][]string
}

// New constructs a Coordinator.
func New(store documents.Store, res *resolver.Resolver, opts ...Option) *Coordinator {
	if store == nil {
		panic("mutation: store is required")
	}
	if res == nil {
		panic("mutation: resolver is required")
	}
	c := &Coordinator{
		store:     store,
		resolver:  res,
		locales:   res.Locales(),
		logger:    logging.NoOp(),
		relations: map[string][]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Update applies req.Fields to the req.Locale variant of the addressed
// document, creating that variant from a base record in another locale when
// it does not exist yet.
func (c *Coordinator) Update(ctx context.Context, req UpdateRequest) (*documents.Record, error) {
	code := req.Locale
	if code == "" || !c.locales.Supports(code) {
		code = c.locales.Default()
	}
	logger := logging.WithDocumentContext(c.logger.WithContext(ctx), req.Collection, "", code.String())

	target, err := c.resolver.Target(ctx, req.Collection, req.ID)
	if err != nil {
		if documents.IsNotFound(err) {
			c.observeUpdate(req.Collection, "document_not_found")
			return nil, fmt.Errorf("%w: %s/%s", documents.ErrDocumentNotFound, req.Collection, req.ID)
		}
		return nil, c.rejected(req.Collection, "update", "", code, err)
	}
	logger = logging.WithDocumentContext(logger, "", target.DocumentID, "")

	existing, err := c.store.FindByDocumentID(ctx, req.Collection, target.DocumentID, code.String(), []string{documents.PopulateAll})
	switch {
	case err == nil:
		if err := documents.ApplyFields(existing, req.Fields, c.relations[req.Collection]...); err != nil {
			return nil, c.rejected(req.Collection, "update", target.DocumentID, code, err)
		}
		updated, err := c.store.Update(ctx, existing)
		if err != nil {
			return nil, c.rejected(req.Collection, "update", target.DocumentID, code, err)
		}
		logger.Debug("mutation.update.in_place", "key", updated.ID)
		c.observeUpdate(req.Collection, "updated")
		return updated, nil
	case isAbort(ctx, err):
		return nil, abortErr(ctx, err)
	case !documents.IsNotFound(err):
		return nil, c.rejected(req.Collection, "update", target.DocumentID, code, err)
	}

	base, err := c.findBase(ctx, req.Collection, target.DocumentID, code)
	if err != nil {
		return nil, err
	}
	if base == nil {
		c.observeUpdate(req.Collection, "document_not_found")
		return nil, fmt.Errorf("%w: %s/%s", documents.ErrDocumentNotFound, req.Collection, target.DocumentID)
	}
	if c.localizations == nil {
		c.observeUpdate(req.Collection, "localization_unavailable")
		return nil, unavailable(req.Collection, target.DocumentID, code, documents.ErrLocalizationUnavailable)
	}

	created, err := c.localizations.CreateLocalization(ctx, documents.Locator{
		Collection:   req.Collection,
		DocumentID:   target.DocumentID,
		SourceLocale: base.Locale,
		Locale:       code.String(),
	}, req.Fields)
	if err != nil {
		if isAbort(ctx, err) {
			return nil, abortErr(ctx, err)
		}
		if errors.Is(err, documents.ErrDocumentNotFound) {
			return nil, err
		}
		if errors.Is(err, documents.ErrLocalizationUnavailable) {
			c.observeUpdate(req.Collection, "localization_unavailable")
			return nil, unavailable(req.Collection, target.DocumentID, code, err)
		}
		return nil, c.rejected(req.Collection, "localize", target.DocumentID, code, err)
	}
	logger.Info("mutation.update.localized", "source_locale", base.Locale, "key", created.ID)
	c.observeUpdate(req.Collection, "localized")
	return created, nil
}

// findBase returns the first existing variant in the search order starting at
// code, or nil when the document has no variant at all.
func (c *Coordinator) findBase(ctx context.Context, collection, documentID string, code locale.Code) (*documents.Record, error) {
	for _, candidate := range c.locales.SearchOrder(code) {
		record, err := c.store.FindByDocumentID(ctx, collection, documentID, candidate.String(), nil)
		if err == nil && record != nil {
			return record, nil
		}
		if isAbort(ctx, err) {
			return nil, abortErr(ctx, err)
		}
		if err != nil && !documents.IsNotFound(err) {
			return nil, c.rejected(collection, "update", documentID, code, err)
		}
	}
	// Variants in locales outside the configured set still count as a base.
	records, err := c.store.FindMany(ctx, collection, documents.Filter{DocumentID: documentID}, "", 1)
	if err != nil {
		if isAbort(ctx, err) {
			return nil, abortErr(ctx, err)
		}
		return nil, c.rejected(collection, "update", documentID, code, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Delete removes every locale variant of the addressed document. The cascade
// is verified with a fresh read; leftover records trigger a forced delete by
// document id followed by a second verification.
func (c *Coordinator) Delete(ctx context.Context, req DeleteRequest) (*DeletionResult, error) {
	target, err := c.resolver.Target(ctx, req.Collection, req.ID)
	if err != nil {
		return nil, err
	}
	logger := logging.WithDocumentContext(c.logger.WithContext(ctx), req.Collection, target.DocumentID, "")

	result := &DeletionResult{
		DocumentID: target.DocumentID,
		Record:     target.Record,
		Method:     MethodDocuments,
	}

	removed, cascadeErr := c.store.DeleteDocument(ctx, req.Collection, target.DocumentID)
	if isAbort(ctx, cascadeErr) {
		return nil, abortErr(ctx, cascadeErr)
	}
	result.Removed = removed
	if cascadeErr != nil {
		logger.Warn("mutation.delete.cascade_failed", "error", cascadeErr)
	}

	remaining, verifyErr := c.remaining(ctx, req.Collection, target.DocumentID)
	if isAbort(ctx, verifyErr) {
		return nil, abortErr(ctx, verifyErr)
	}
	if verifyErr != nil {
		if cascadeErr != nil {
			return nil, c.rejected(req.Collection, "delete", target.DocumentID, "", cascadeErr)
		}
		logger.Warn("mutation.delete.unverified", "error", verifyErr)
		return c.finishDelete(req.Collection, result, DeletionUnconfirmed), nil
	}
	if remaining == 0 {
		return c.finishDelete(req.Collection, result, DeletionVerified), nil
	}

	logger.Warn("mutation.delete.force", "remaining", remaining)
	result.Method = MethodQuery
	forced, err := c.store.DeleteWhere(ctx, req.Collection, documents.Filter{DocumentID: target.DocumentID})
	if isAbort(ctx, err) {
		return nil, abortErr(ctx, err)
	}
	if err != nil {
		c.observeDeletion(req.Collection, result.Method, "failed")
		return result, c.rejected(req.Collection, "delete", target.DocumentID, "", errors.Join(documents.ErrDeletionFailed, err))
	}
	result.Removed += forced

	remaining, verifyErr = c.remaining(ctx, req.Collection, target.DocumentID)
	if isAbort(ctx, verifyErr) {
		return nil, abortErr(ctx, verifyErr)
	}
	if verifyErr != nil {
		logger.Warn("mutation.delete.unverified", "error", verifyErr)
		return c.finishDelete(req.Collection, result, DeletionUnconfirmed), nil
	}
	if remaining > 0 {
		logger.Error("mutation.delete.failed", "remaining", remaining)
		c.observeDeletion(req.Collection, result.Method, "failed")
		return result, fmt.Errorf("%w: %d records remain for %s/%s", documents.ErrDeletionFailed, remaining, req.Collection, target.DocumentID)
	}
	return c.finishDelete(req.Collection, result, DeletionVerified), nil
}

func (c *Coordinator) remaining(ctx context.Context, collection, documentID string) (int, error) {
	records, err := c.store.FindMany(ctx, collection, documents.Filter{DocumentID: documentID}, "", 0)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (c *Coordinator) finishDelete(collection string, result *DeletionResult, status DeletionStatus) *DeletionResult {
	result.Status = status
	c.observeDeletion(collection, result.Method, string(status))
	return result
}

func (c *Coordinator) rejected(collection, op, documentID string, code locale.Code, err error) error {
	if op != "delete" {
		c.observeUpdate(collection, "rejected")
	}
	return &documents.MutationError{
		Op:         op,
		Collection: collection,
		DocumentID: documentID,
		Locale:     code.String(),
		Err:        err,
	}
}

// unavailable reports a localization that could not be created. It names the
// locale like a rejected write but is not counted as one.
func unavailable(collection, documentID string, code locale.Code, err error) error {
	return &documents.MutationError{
		Op:         "localize",
		Collection: collection,
		DocumentID: documentID,
		Locale:     code.String(),
		Err:        err,
	}
}

func (c *Coordinator) observeUpdate(collection, outcome string) {
	if c.observer != nil {
		c.observer.ObserveUpdate(collection, outcome)
	}
}

func (c *Coordinator) observeDeletion(collection, method, status string) {
	if c.observer != nil {
		c.observer.ObserveDeletion(collection, method, status)
	}
}

func isAbort(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func abortErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
