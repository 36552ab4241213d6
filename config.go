package cms

import "github.com/goliatone/go-cms-locales/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired     = runtimeconfig.ErrDefaultLocaleRequired
	ErrDefaultLocaleNotSupported = runtimeconfig.ErrDefaultLocaleNotSupported
	ErrPublishPolicyInvalid      = runtimeconfig.ErrPublishPolicyInvalid
	ErrPageSizeInvalid           = runtimeconfig.ErrPageSizeInvalid
	ErrStorageDriverInvalid      = runtimeconfig.ErrStorageDriverInvalid
	ErrStorageDSNRequired        = runtimeconfig.ErrStorageDSNRequired
	ErrCacheTTLInvalid           = runtimeconfig.ErrCacheTTLInvalid
	ErrRateLimitWindowInvalid    = runtimeconfig.ErrRateLimitWindowInvalid
	ErrWorkersInvalid            = runtimeconfig.ErrWorkersInvalid
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	I18NConfig    = runtimeconfig.I18NConfig
	ContentConfig = runtimeconfig.ContentConfig
	StorageConfig = runtimeconfig.StorageConfig
	CacheConfig   = runtimeconfig.CacheConfig
	FormsConfig   = runtimeconfig.FormsConfig
	HTTPConfig    = runtimeconfig.HTTPConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

// DefaultConfig returns the baseline configuration: en default with ur, ar
// and fa, memory storage, go-logger JSON output.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadEnv overlays CMS_* environment variables on cfg and validates it.
func LoadEnv(cfg Config) (Config, error) {
	return runtimeconfig.LoadEnv(cfg)
}

// LoadFile overlays a TOML file on cfg without validating it.
func LoadFile(cfg Config, path string) (Config, error) {
	return runtimeconfig.LoadFile(cfg, path)
}
