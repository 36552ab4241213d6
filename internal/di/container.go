package di

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-locales/internal/commands"
	"github.com/goliatone/go-cms-locales/internal/commands/localescmd"
	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/entries"
	"github.com/goliatone/go-cms-locales/internal/files"
	"github.com/goliatone/go-cms-locales/internal/forms"
	cmshttp "github.com/goliatone/go-cms-locales/internal/http"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
	"github.com/goliatone/go-cms-locales/internal/logging/gologger"
	"github.com/goliatone/go-cms-locales/internal/metrics"
	"github.com/goliatone/go-cms-locales/internal/mutation"
	"github.com/goliatone/go-cms-locales/internal/notify"
	"github.com/goliatone/go-cms-locales/internal/permissions"
	"github.com/goliatone/go-cms-locales/internal/resolver"
	"github.com/goliatone/go-cms-locales/internal/runtimeconfig"
	"github.com/goliatone/go-cms-locales/internal/seed"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

const bootstrapTimeout = 30 * time.Second

// Container wires the locale set, stores and services for one runtime config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	localeRepo  locale.Repository
	store       documents.Store
	submissions forms.SubmissionRepository
	files       interfaces.FileStore
	pdf         interfaces.PDFRenderer
	mailer      interfaces.Mailer

	locales       *locale.Set
	bootstrap     locale.BootstrapResult
	metrics       *metrics.Recorder
	resolver      *resolver.Resolver
	coordinator   *mutation.Coordinator
	entrySvc      *entries.Service
	formSvc       *forms.Service
	pool          *forms.PoolDispatcher
	authenticator *permissions.TokenAuthenticator
	seeder        *seed.Seeder
	api           *cmshttp.API
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB overrides the database opened from Storage config.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the default cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the provider selected by Logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithDocumentStore overrides the document store.
func WithDocumentStore(store documents.Store) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithFileStore overrides where uploads and PDFs are written.
func WithFileStore(store interfaces.FileStore) Option {
	return func(c *Container) {
		c.files = store
	}
}

// WithPDFRenderer plugs in the HTML to PDF engine used for submissions.
func WithPDFRenderer(renderer interfaces.PDFRenderer) Option {
	return func(c *Container) {
		c.pdf = renderer
	}
}

// WithMailer overrides the notification mailer.
func WithMailer(mailer interfaces.Mailer) Option {
	return func(c *Container) {
		c.mailer = mailer
	}
}

// NewContainer validates cfg, opens storage and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cfg.Cache.TTL,
		metrics:  metrics.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()

	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()
	if err := c.configureLocales(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureServices(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider == nil {
		switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.FromRuntime(c.Config.Logging))
			if err != nil {
				return err
			}
			c.loggerProvider = provider
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "cms.di")
	return nil
}

func (c *Container) configureStorage() error {
	if c.bunDB != nil {
		return nil
	}
	db, err := OpenDB(c.Config.Storage)
	if err != nil {
		return err
	}
	if db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	c.bunDB = db
	c.ownsDB = true
	c.logger.Info("storage.configured", "driver", c.Config.Storage.Driver)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("cache.configure_failed", "error", err)
		} else {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB != nil {
		if c.localeRepo == nil {
			if c.cacheService != nil {
				c.localeRepo = locale.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
			} else {
				c.localeRepo = locale.NewBunRepository(c.bunDB)
			}
		}
		if c.store == nil {
			c.store = documents.NewBunStore(c.bunDB, documents.WithBunCache(c.cacheService, c.keySerializer))
		}
		if c.submissions == nil {
			c.submissions = forms.NewBunSubmissionRepository(c.bunDB)
		}
		return
	}

	if c.localeRepo == nil {
		c.localeRepo = locale.NewMemoryRepository()
	}
	if c.store == nil {
		c.store = documents.NewMemoryStore()
	}
	if c.submissions == nil {
		c.submissions = forms.NewMemorySubmissionRepository()
	}
}

// configureLocales syncs the configured locales into the repository and
// loads the supported set from what was persisted.
func (c *Container) configureLocales(ctx context.Context) error {
	logger := commands.CommandLogger(c.loggerProvider, "locales")
	handler := localescmd.NewBootstrapLocalesHandler(c.localeRepo, logger,
		commands.WithObserver[localescmd.BootstrapLocalesCommand](logger, c.metrics),
	)
	msg := localescmd.BootstrapLocalesCommand{
		DefaultLocale: c.Config.DefaultLocale,
		Locales:       c.Config.I18N.Locales,
	}
	if err := handler.Execute(ctx, msg); err != nil {
		return err
	}
	c.bootstrap = handler.Result()

	set, err := locale.LoadSet(ctx, c.localeRepo)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	c.locales = set
	logging.LocaleLogger(c.loggerProvider).Info("locales.configured",
		"default", set.Default().String(),
		"count", len(set.Codes()),
		"created", len(c.bootstrap.Created),
	)
	return nil
}

func (c *Container) configureServices() error {
	relations := c.Config.Content.Populate

	c.resolver = resolver.New(c.store, c.locales,
		resolver.WithLogger(logging.ResolverLogger(c.loggerProvider)),
		resolver.WithObserver(c.metrics),
	)
	c.coordinator = mutation.New(c.store, c.resolver,
		mutation.WithLocalizationService(documents.NewLocalizationService(c.store, documents.WithRelationKeys(relations))),
		mutation.WithRelationKeys(relations),
		mutation.WithLogger(logging.MutationLogger(c.loggerProvider)),
		mutation.WithObserver(c.metrics),
	)
	c.entrySvc = entries.NewService(c.store, c.resolver, c.coordinator,
		entries.WithLogger(logging.EntriesLogger(c.loggerProvider)),
		entries.WithPublishPolicy(c.Config.EffectivePublishPolicy()),
		entries.WithPageSizes(c.Config.Content.DefaultPageSize, c.Config.Content.MaxPageSize),
		entries.WithDefaultPopulate(relations),
	)

	if err := c.configureForms(); err != nil {
		return err
	}

	auth, err := permissions.ParseTokens(c.Config.HTTP.APITokens, c.Collections()...)
	if err != nil {
		return err
	}
	c.authenticator = auth

	seeder, err := seed.New(c.store, c.locales, seed.WithLogger(logging.SeedLogger(c.loggerProvider)))
	if err != nil {
		return err
	}
	c.seeder = seeder

	c.api = cmshttp.NewAPI(c.entrySvc,
		cmshttp.WithBasePath(c.Config.HTTP.BasePath),
		cmshttp.WithCollections(c.Collections()...),
		cmshttp.WithFormService(c.formSvc),
		cmshttp.WithAuthenticator(c.authenticator),
		cmshttp.WithMetricsHandler(c.metrics.Handler()),
		cmshttp.WithUploadLimit(c.Config.Forms.UploadMaxBytes),
		cmshttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	)
	return nil
}

func (c *Container) configureForms() error {
	logger := logging.FormsLogger(c.loggerProvider)
	if c.files == nil {
		if dir := strings.TrimSpace(c.Config.Forms.UploadDir); dir != "" {
			store, err := files.NewDiskStore(dir)
			if err != nil {
				return err
			}
			c.files = store
		} else {
			c.files = files.NewMemoryStore()
		}
	}
	if c.mailer == nil {
		c.mailer = notify.NewLogMailer(logging.ModuleLogger(c.loggerProvider, "cms.notify"))
	}

	formOpts := []forms.Option{
		forms.WithFileStore(c.files),
		forms.WithMailer(c.mailer),
		forms.WithSender(c.Config.Forms.NotificationSender),
		forms.WithAdminURL(c.Config.HTTP.AdminURL),
		forms.WithRateLimitWindow(c.Config.Forms.RateLimitWindow),
		forms.WithLogger(logger),
		forms.WithObserver(c.metrics),
	}
	if c.pdf != nil {
		formOpts = append(formOpts, forms.WithPDFRenderer(c.pdf))
	}
	if c.Config.Forms.AsyncNotifications && c.Config.Forms.Workers > 0 {
		pool, err := forms.NewPoolDispatcher(c.Config.Forms.Workers, logger)
		if err != nil {
			return err
		}
		c.pool = pool
		formOpts = append(formOpts, forms.WithDispatcher(pool))
	}
	c.formSvc = forms.NewService(c.store, c.locales, c.submissions, formOpts...)
	return nil
}

// Close releases the worker pool and any database the container opened.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	if c.bunDB != nil && c.ownsDB {
		err := c.bunDB.Close()
		c.bunDB = nil
		return err
	}
	return nil
}

// Collections lists the collections served over HTTP, sorted by name.
func (c *Container) Collections() []string {
	out := make([]string, 0, len(c.Config.Content.Populate))
	for name := range c.Config.Content.Populate {
		out = append(out, name)
	}
	if !slices.Contains(out, forms.Collection) {
		out = append(out, forms.Collection)
	}
	slices.Sort(out)
	return out
}

// HTTPHandler returns the API handler mounted on a fresh mux.
func (c *Container) HTTPHandler() http.Handler {
	return c.api.Handler()
}

func (c *Container) API() *cmshttp.API {
	return c.api
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) Logger() interfaces.Logger {
	return c.logger
}

func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

func (c *Container) LocaleRepository() locale.Repository {
	return c.localeRepo
}

func (c *Container) Locales() *locale.Set {
	return c.locales
}

// LocaleBootstrap reports what the startup locale sync changed.
func (c *Container) LocaleBootstrap() locale.BootstrapResult {
	return c.bootstrap
}

func (c *Container) DocumentStore() documents.Store {
	return c.store
}

func (c *Container) Resolver() *resolver.Resolver {
	return c.resolver
}

func (c *Container) Coordinator() *mutation.Coordinator {
	return c.coordinator
}

func (c *Container) EntryService() *entries.Service {
	return c.entrySvc
}

func (c *Container) FormService() *forms.Service {
	return c.formSvc
}

func (c *Container) Metrics() *metrics.Recorder {
	return c.metrics
}

func (c *Container) Seeder() *seed.Seeder {
	return c.seeder
}
