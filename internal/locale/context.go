package locale

import (
	"context"
	"net/http"

	"github.com/goliatone/go-cms-locales/internal/logging"
)

type (
	contextKey  struct{}
	explicitKey struct{}
)

// QueryParam is the query string key carrying an explicit locale.
const QueryParam = "locale"

// WithLocale stores the negotiated locale on ctx.
func WithLocale(ctx context.Context, code Code) context.Context {
	return context.WithValue(ctx, contextKey{}, code)
}

// FromContext returns the negotiated locale stored on ctx, if any.
func FromContext(ctx context.Context) (Code, bool) {
	if ctx == nil {
		return "", false
	}
	code, ok := ctx.Value(contextKey{}).(Code)
	return code, ok && code != ""
}

// WithExplicit marks ctx as carrying a locale the caller asked for by name.
func WithExplicit(ctx context.Context, explicit bool) context.Context {
	return context.WithValue(ctx, explicitKey{}, explicit)
}

// IsExplicit reports whether the negotiated locale came from a supported
// locale query parameter rather than Accept-Language or the default.
func IsExplicit(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	explicit, _ := ctx.Value(explicitKey{}).(bool)
	return explicit
}

// Middleware negotiates the request locale from the locale query parameter and
// the Accept-Language header. The result is stored on the request context,
// written back to the query string and echoed as Content-Language.
func Middleware(negotiator *Negotiator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			raw := Normalize(query.Get(QueryParam))
			code := negotiator.Negotiate(raw.String(), r.Header.Get("Accept-Language"))

			query.Set(QueryParam, code.String())
			r.URL.RawQuery = query.Encode()

			ctx := WithLocale(r.Context(), code)
			ctx = WithExplicit(ctx, raw != "" && raw == code)
			ctx = logging.ContextWithFields(ctx, map[string]any{"locale": code.String()})
			w.Header().Set("Content-Language", code.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
