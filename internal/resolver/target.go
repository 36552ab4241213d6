package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/identifier"
)

// Target identifies the logical document a mutation addresses.
type Target struct {
	DocumentID string
	// Record is the locale variant the identifier matched first.
	Record *documents.Record
}

// Target resolves id to a document without slug fallback. Numeric keys are
// looked up in every known locale, starting with the default, before the raw
// value is tried as a document id in any locale.
func (r *Resolver) Target(ctx context.Context, collection, id string) (*Target, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &documents.NotFoundError{Resource: collection}
	}
	logger := r.logger.WithContext(ctx)
	classified := identifier.Classify(id)

	if key, ok := classified.Int(); ok {
		for _, code := range r.locales.SearchOrder(r.locales.Default()) {
			r.emit(Step{Kind: StepKey, Locale: code, Value: classified.String()})
			record, err := r.store.FindByKey(ctx, collection, key, code.String(), nil)
			if err == nil && record != nil {
				return &Target{DocumentID: record.DocumentID, Record: record}, nil
			}
			if err := abortOrContinue(ctx, err); err != nil {
				return nil, err
			}
			if err != nil && !documents.IsNotFound(err) {
				logger.Warn("resolver.target.key_failed", "collection", collection, "id", id, "locale", code.String(), "error", err)
			}
		}
	}

	r.emit(Step{Kind: StepDocumentID, Value: classified.String()})
	records, err := r.store.FindMany(ctx, collection, documents.Filter{DocumentID: classified.String()}, "", 1)
	if abort := abortOrContinue(ctx, err); abort != nil {
		return nil, abort
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &documents.NotFoundError{Resource: collection, Key: id}
	}
	return &Target{DocumentID: records[0].DocumentID, Record: records[0]}, nil
}

// abortOrContinue returns a non-nil error only when ctx has been cancelled or
// the store reported a cancellation.
func abortOrContinue(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
