package runtimeconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var ErrDefaultLocaleRequired = errors.New("cms config: default locale is required")
var ErrDefaultLocaleNotSupported = errors.New("cms config: default locale must be listed in i18n locales")
var ErrPublishPolicyInvalid = errors.New("cms config: publish policy is invalid")
var ErrPageSizeInvalid = errors.New("cms config: page size must be positive and not exceed the maximum")
var ErrStorageDriverInvalid = errors.New("cms config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("cms config: storage dsn is required for sql drivers")
var ErrCacheTTLInvalid = errors.New("cms config: cache ttl must be positive when cache is enabled")
var ErrRateLimitWindowInvalid = errors.New("cms config: forms rate limit window must be positive")
var ErrWorkersInvalid = errors.New("cms config: forms workers must be zero or positive")
var ErrLoggingProviderUnknown = errors.New("cms config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("cms config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("cms config: logging format is invalid")

// Publish policies control whether unpublished records are visible to reads.
const (
	PublishPolicyOff    = "off"
	PublishPolicyPublic = "public"
	PublishPolicyAlways = "always"
)

// Storage drivers understood by the container.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config aggregates adapter bindings and behaviour toggles for the content runtime.
// Every field can be overlaid from CMS_* environment variables via LoadEnv.
type Config struct {
	DefaultLocale string        `toml:"default_locale" env:"DEFAULT_LOCALE"`
	I18N          I18NConfig    `toml:"i18n" envPrefix:"I18N_"`
	Content       ContentConfig `toml:"content" envPrefix:"CONTENT_"`
	Storage       StorageConfig `toml:"storage" envPrefix:"STORAGE_"`
	Cache         CacheConfig   `toml:"cache" envPrefix:"CACHE_"`
	Forms         FormsConfig   `toml:"forms" envPrefix:"FORMS_"`
	HTTP          HTTPConfig    `toml:"http" envPrefix:"HTTP_"`
	Logging       LoggingConfig `toml:"logging" envPrefix:"LOGGING_"`
}

// I18NConfig lists the supported locale codes.
type I18NConfig struct {
	Locales []string `toml:"locales" env:"LOCALES" envSeparator:","`
}

// ContentConfig captures read behaviour for localized collections.
type ContentConfig struct {
	PublishPolicy   string `toml:"publish_policy" env:"PUBLISH_POLICY"`
	DefaultPageSize int    `toml:"default_page_size" env:"PAGE_SIZE"`
	MaxPageSize     int    `toml:"max_page_size" env:"MAX_PAGE_SIZE"`
	// Populate lists the relations returned by default per collection.
	Populate map[string][]string `toml:"populate"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `toml:"driver" env:"DRIVER"`
	DSN    string `toml:"dsn" env:"DSN"`
}

// CacheConfig captures repository cache toggles.
type CacheConfig struct {
	Enabled bool          `toml:"enabled" env:"ENABLED"`
	TTL     time.Duration `toml:"ttl" env:"TTL"`
}

// FormsConfig captures submission handling options.
type FormsConfig struct {
	RateLimitWindow    time.Duration `toml:"rate_limit_window" env:"RATE_LIMIT_WINDOW"`
	AsyncNotifications bool          `toml:"async_notifications" env:"ASYNC_NOTIFICATIONS"`
	Workers            int           `toml:"workers" env:"WORKERS"`
	NotificationSender string        `toml:"notification_sender" env:"NOTIFICATION_SENDER"`
	UploadMaxBytes     int64         `toml:"upload_max_bytes" env:"UPLOAD_MAX_BYTES"`
	// UploadDir stores uploads and generated PDFs on disk; empty keeps them in memory.
	UploadDir string `toml:"upload_dir" env:"UPLOAD_DIR"`
}

// HTTPConfig captures listener options for the server binary.
type HTTPConfig struct {
	Addr           string        `toml:"addr" env:"ADDR"`
	BasePath       string        `toml:"base_path" env:"BASE_PATH"`
	RequestTimeout time.Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
	// APITokens lists "token:role" bearer credentials.
	APITokens []string `toml:"api_tokens" env:"API_TOKENS" envSeparator:","`
	AdminURL  string   `toml:"admin_url" env:"ADMIN_URL"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `toml:"provider" env:"PROVIDER"`
	Level     string   `toml:"level" env:"LEVEL"`
	Format    string   `toml:"format" env:"FORMAT"`
	AddSource bool     `toml:"add_source" env:"ADD_SOURCE"`
	Focus     []string `toml:"focus" env:"FOCUS" envSeparator:","`
}

// DefaultConfig returns defaults matching the public deployment: English as
// default locale, Urdu, Arabic and Persian as secondary locales, in-memory storage.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		I18N: I18NConfig{
			Locales: []string{"en", "ur", "ar", "fa"},
		},
		Content: ContentConfig{
			PublishPolicy:   PublishPolicyOff,
			DefaultPageSize: 25,
			MaxPageSize:     100,
			Populate: map[string][]string{
				"events":          {"cover"},
				"admission-forms": {},
				"forms":           {},
			},
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Forms: FormsConfig{
			RateLimitWindow:    time.Hour,
			AsyncNotifications: false,
			Workers:            4,
			NotificationSender: "no-reply@localhost",
			UploadMaxBytes:     10 << 20,
		},
		HTTP: HTTPConfig{
			Addr:           ":1337",
			BasePath:       "/api",
			RequestTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	defaultLocale := strings.ToLower(strings.TrimSpace(cfg.DefaultLocale))
	if defaultLocale == "" {
		return ErrDefaultLocaleRequired
	}
	if !slices.ContainsFunc(cfg.I18N.Locales, func(code string) bool {
		return strings.EqualFold(strings.TrimSpace(code), defaultLocale)
	}) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleNotSupported, defaultLocale)
	}
	switch normalize(cfg.Content.PublishPolicy) {
	case "", PublishPolicyOff, PublishPolicyPublic, PublishPolicyAlways:
	default:
		return fmt.Errorf("%w: %s", ErrPublishPolicyInvalid, cfg.Content.PublishPolicy)
	}
	if cfg.Content.DefaultPageSize <= 0 || (cfg.Content.MaxPageSize > 0 && cfg.Content.DefaultPageSize > cfg.Content.MaxPageSize) {
		return ErrPageSizeInvalid
	}
	switch normalize(cfg.Storage.Driver) {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, normalize(cfg.Storage.Driver))
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverInvalid, cfg.Storage.Driver)
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Forms.RateLimitWindow <= 0 {
		return ErrRateLimitWindowInvalid
	}
	if cfg.Forms.Workers < 0 {
		return ErrWorkersInvalid
	}
	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// EffectivePublishPolicy returns the normalized policy, defaulting to off.
func (cfg Config) EffectivePublishPolicy() string {
	if policy := normalize(cfg.Content.PublishPolicy); policy != "" {
		return policy
	}
	return PublishPolicyOff
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
