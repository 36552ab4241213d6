package http

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/goliatone/go-cms-locales/internal/entries"
	"github.com/goliatone/go-cms-locales/internal/forms"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/internal/permissions"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

const defaultUploadMaxBytes = 10 << 20

// API registers the public content and form endpoints.
type API struct {
	basePath       string
	entries        *entries.Service
	forms          *forms.Service
	negotiator     *locale.Negotiator
	auth           *permissions.TokenAuthenticator
	metrics        http.Handler
	collections    []string
	uploadMaxBytes int64
	logger         interfaces.Logger
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API serving collections through svc.
func NewAPI(svc *entries.Service, opts ...Option) *API {
	if svc == nil {
		panic("http: entries service is required")
	}
	api := &API{
		basePath:       "/api",
		entries:        svc,
		negotiator:     locale.NewNegotiator(svc.Locales()),
		uploadMaxBytes: defaultUploadMaxBytes,
		logger:         logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	if api.auth == nil {
		api.auth, _ = permissions.ParseTokens(nil, api.collections...)
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/api").
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithCollections lists the collections served under the base path.
func WithCollections(collections ...string) Option {
	return func(api *API) {
		api.collections = append([]string(nil), collections...)
	}
}

// WithFormService wires the public form endpoints.
func WithFormService(service *forms.Service) Option {
	return func(api *API) {
		api.forms = service
	}
}

// WithAuthenticator sets the bearer token authenticator.
func WithAuthenticator(auth *permissions.TokenAuthenticator) Option {
	return func(api *API) {
		api.auth = auth
	}
}

// WithMetricsHandler mounts handler at /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(api *API) {
		api.metrics = handler
	}
}

// WithUploadLimit caps multipart submission bodies.
func WithUploadLimit(bytes int64) Option {
	return func(api *API) {
		if bytes > 0 {
			api.uploadMaxBytes = bytes
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// Register attaches the endpoints to the provided mux.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}

	base := joinPath(api.basePath, "")

	api.registerCollectionRoutes(mux, base)
	api.registerFormRoutes(mux, base)
	if api.metrics != nil {
		mux.Handle("GET /metrics", api.metrics)
	}
	return nil
}

// Handler returns a mux with every route registered.
func (api *API) Handler() http.Handler {
	mux := http.NewServeMux()
	_ = api.Register(mux)
	return mux
}

func (api *API) wrap(fn http.HandlerFunc) http.Handler {
	return api.authenticate(locale.Middleware(api.negotiator)(fn))
}

func (api *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := api.auth.Public()
		if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "bearer token required"})
				return
			}
			authenticated, ok := api.auth.Authenticate(token)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "invalid token"})
				return
			}
			actor = authenticated
		}
		ctx := permissions.WithActor(r.Context(), actor)
		ctx = logging.ContextWithFields(ctx, map[string]any{"role": string(actor.Role)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (api *API) serves(collection string) bool {
	return slices.Contains(api.collections, collection)
}
