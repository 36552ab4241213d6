package documents

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record exists under any resolution path.
	ErrNotFound = errors.New("documents: not found")
	// ErrDocumentNotFound is returned when a mutation target has no base record in any locale.
	ErrDocumentNotFound = errors.New("documents: document not found in any locale")
	// ErrLocalizationUnavailable is returned when no localization service is configured.
	ErrLocalizationUnavailable = errors.New("documents: localization service unavailable")
	// ErrMutationRejected is returned when the store refused a write.
	ErrMutationRejected = errors.New("documents: mutation rejected")
	// ErrDeletionFailed is returned when records remain after the forced deletion pass.
	ErrDeletionFailed = errors.New("documents: deletion failed")
	// ErrDuplicateLocalization is returned when a document already has a record in a locale.
	ErrDuplicateLocalization = errors.New("documents: record already exists for document and locale")
	// ErrUnboundedDelete is returned when a delete filter would match a whole collection.
	ErrUnboundedDelete = errors.New("documents: delete filter must name a key, document id or slug")
	// ErrInvalidRecord is returned when a record is missing identity attributes.
	ErrInvalidRecord = errors.New("documents: record is invalid")
)

// NotFoundError describes a missing record.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// Is lets errors.Is match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err describes a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// MutationError carries the locale and document a failed write targeted along
// with the originating store error.
type MutationError struct {
	Op         string
	Collection string
	DocumentID string
	Locale     string
	Err        error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s/%s (locale %s): %v", e.Op, e.Collection, e.DocumentID, e.Locale, e.Err)
}

// Unwrap exposes ErrMutationRejected and the underlying store error.
func (e *MutationError) Unwrap() []error {
	return []error{ErrMutationRejected, e.Err}
}
