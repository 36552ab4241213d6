package locale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-cms-locales/internal/identity"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// BootstrapResult lists the locale codes touched by Bootstrap.
type BootstrapResult struct {
	Created   []string
	Updated   []string
	Unchanged []string
}

// BootstrapOption customises Bootstrap.
type BootstrapOption func(*bootstrapper)

// WithBootstrapLogger sets the logger used for progress entries.
func WithBootstrapLogger(logger interfaces.Logger) BootstrapOption {
	return func(b *bootstrapper) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBootstrapClock overrides the timestamp source.
func WithBootstrapClock(now func() time.Time) BootstrapOption {
	return func(b *bootstrapper) {
		if now != nil {
			b.now = now
		}
	}
}

type bootstrapper struct {
	logger interfaces.Logger
	now    func() time.Time
}

// Bootstrap makes sure every definition exists in repo and that exactly one
// persisted locale is marked default. Running it repeatedly is safe.
func Bootstrap(ctx context.Context, repo Repository, defs []Definition, opts ...BootstrapOption) (BootstrapResult, error) {
	b := bootstrapper{logger: logging.NoOp(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}

	if _, err := SetFromDefinitions(defs); err != nil {
		return BootstrapResult{}, err
	}

	var result BootstrapResult
	defaultCode := ""
	for _, def := range defs {
		code := string(Normalize(def.Code))
		if def.IsDefault {
			defaultCode = code
		}

		existing, err := repo.GetByCode(ctx, code)
		var notFound *NotFoundError
		switch {
		case errors.As(err, &notFound):
			now := b.now().UTC()
			if _, err := repo.Create(ctx, &Locale{
				ID:         identity.LocaleUUID(code),
				Code:       code,
				Name:       def.Name,
				NativeName: def.NativeName,
				RTL:        def.RTL,
				IsActive:   true,
				IsDefault:  def.IsDefault,
				CreatedAt:  now,
				UpdatedAt:  now,
			}); err != nil {
				return result, fmt.Errorf("locale bootstrap: create %s: %w", code, err)
			}
			b.logger.Info("locale.bootstrap.created", "code", code, "default", def.IsDefault)
			result.Created = append(result.Created, code)
		case err != nil:
			return result, fmt.Errorf("locale bootstrap: lookup %s: %w", code, err)
		default:
			if existing.IsDefault == def.IsDefault && existing.IsActive {
				result.Unchanged = append(result.Unchanged, code)
				continue
			}
			existing.IsDefault = def.IsDefault
			existing.IsActive = true
			existing.UpdatedAt = b.now().UTC()
			if _, err := repo.Update(ctx, existing); err != nil {
				return result, fmt.Errorf("locale bootstrap: update %s: %w", code, err)
			}
			b.logger.Info("locale.bootstrap.updated", "code", code, "default", def.IsDefault)
			result.Updated = append(result.Updated, code)
		}
	}

	// Locales outside defs must not keep a stale default flag.
	records, err := repo.List(ctx)
	if err != nil {
		return result, fmt.Errorf("locale bootstrap: list: %w", err)
	}
	for _, record := range records {
		if !record.IsDefault || strings.EqualFold(record.Code, defaultCode) {
			continue
		}
		record.IsDefault = false
		record.UpdatedAt = b.now().UTC()
		if _, err := repo.Update(ctx, record); err != nil {
			return result, fmt.Errorf("locale bootstrap: clear default %s: %w", record.Code, err)
		}
		b.logger.Warn("locale.bootstrap.default_cleared", "code", record.Code)
		result.Updated = append(result.Updated, record.Code)
	}
	return result, nil
}
