package documents

import (
	"context"
	"fmt"
)

// LocalizationOption customises the default localization service.
type LocalizationOption func(*localizationService)

// WithRelationKeys declares which payload keys are relations per collection.
func WithRelationKeys(relations map[string][]string) LocalizationOption {
	return func(s *localizationService) {
		if relations != nil {
			s.relations = relations
		}
	}
}

type localizationService struct {
	store     Store
	relations map[string][]string
}

// NewLocalizationService returns a LocalizationService that derives new
// variants from the base record held by store.
func NewLocalizationService(store Store, opts ...LocalizationOption) LocalizationService {
	if store == nil {
		panic("documents: localization service requires a store")
	}
	svc := &localizationService{store: store, relations: map[string][]string{}}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CreateLocalization copies the structural identity of the base record
// (document id, publication state, schedule and relations) into a new variant
// for locator.Locale and applies data on top. Localized attributes such as
// title, slug and free-form fields are not copied.
func (s *localizationService) CreateLocalization(ctx context.Context, locator Locator, data map[string]any) (*Record, error) {
	if locator.Locale == "" || locator.DocumentID == "" {
		return nil, fmt.Errorf("%w: locator requires document id and locale", ErrInvalidRecord)
	}
	base, err := s.store.FindByDocumentID(ctx, locator.Collection, locator.DocumentID, locator.SourceLocale, []string{PopulateAll})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, locator.DocumentID)
		}
		return nil, err
	}

	variant := &Record{
		DocumentID:  base.DocumentID,
		Collection:  base.Collection,
		Locale:      locator.Locale,
		Status:      base.Status,
		PublishedAt: cloneTime(base.PublishedAt),
		StartAt:     cloneTime(base.StartAt),
		EndAt:       cloneTime(base.EndAt),
		Relations:   cloneMap(base.Relations),
	}
	if err := ApplyFields(variant, data, s.relations[locator.Collection]...); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, variant)
}
