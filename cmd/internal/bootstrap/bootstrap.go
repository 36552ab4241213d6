package bootstrap

import (
	"fmt"
	"strings"

	cms "github.com/goliatone/go-cms-locales"
	"github.com/goliatone/go-cms-locales/internal/di"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// Options captures the flags shared by the CLI binaries. Empty values keep
// what the config file and CMS_* environment produced.
type Options struct {
	ConfigFile     string
	Driver         string
	DSN            string
	DefaultLocale  string
	Locales        []string
	LogLevel       string
	LoggerProvider interfaces.LoggerProvider
}

// LoadConfig layers defaults, the optional TOML file, the environment and
// finally the explicit flag values, then validates the result.
func LoadConfig(opts Options) (cms.Config, error) {
	cfg := cms.DefaultConfig()
	if path := strings.TrimSpace(opts.ConfigFile); path != "" {
		loaded, err := cms.LoadFile(cfg, path)
		if err != nil {
			return cms.Config{}, err
		}
		cfg = loaded
	}
	cfg, err := cms.LoadEnv(cfg)
	if err != nil {
		return cms.Config{}, err
	}

	if driver := strings.TrimSpace(opts.Driver); driver != "" {
		cfg.Storage.Driver = driver
	}
	if dsn := strings.TrimSpace(opts.DSN); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if def := strings.TrimSpace(opts.DefaultLocale); def != "" {
		cfg.DefaultLocale = def
	}
	if len(opts.Locales) > 0 {
		cfg.I18N.Locales = append([]string(nil), opts.Locales...)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return cms.Config{}, err
	}
	return cfg, nil
}

// BuildModule loads the configuration and constructs the runtime module.
func BuildModule(opts Options) (*cms.Module, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}
	module, err := cms.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise module: %w", err)
	}
	return module, nil
}

// SplitLocales parses a comma separated locale list, dropping blanks.
func SplitLocales(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
