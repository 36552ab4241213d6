package documents

import (
	"context"
)

// Store is the persistence contract for localized records. Lookups that find
// nothing return a *NotFoundError. An empty locale argument matches every locale.
type Store interface {
	FindByKey(ctx context.Context, collection string, key int64, locale string, populate []string) (*Record, error)
	FindByDocumentID(ctx context.Context, collection, documentID, locale string, populate []string) (*Record, error)
	// FindMany returns matches in store iteration order; limit <= 0 means no limit.
	FindMany(ctx context.Context, collection string, filter Filter, locale string, limit int) ([]*Record, error)
	Count(ctx context.Context, collection string, filter Filter, locale string) (int, error)
	Create(ctx context.Context, record *Record) (*Record, error)
	Update(ctx context.Context, record *Record) (*Record, error)
	// DeleteDocument removes every locale variant of a document and returns
	// the number of records the store acknowledged.
	DeleteDocument(ctx context.Context, collection, documentID string) (int, error)
	// DeleteWhere removes every record matching filter regardless of locale.
	DeleteWhere(ctx context.Context, collection string, filter Filter) (int, error)
}

// LocalizationService creates new locale variants of existing documents.
type LocalizationService interface {
	CreateLocalization(ctx context.Context, locator Locator, data map[string]any) (*Record, error)
}
