package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-locales/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RejectsDefaultLocaleOutsideLocales(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = "de"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleNotSupported) {
		t.Fatalf("expected ErrDefaultLocaleNotSupported, got %v", err)
	}
}

func TestConfigValidate_RequiresDefaultLocale(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = "  "

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDefaultLocaleRequired) {
		t.Fatalf("expected ErrDefaultLocaleRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownPublishPolicy(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.PublishPolicy = "sometimes"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrPublishPolicyInvalid) {
		t.Fatalf("expected ErrPublishPolicyInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresDSNForSQLDrivers(t *testing.T) {
	for _, driver := range []string{runtimeconfig.DriverSQLite, runtimeconfig.DriverPostgres} {
		cfg := runtimeconfig.DefaultConfig()
		cfg.Storage.Driver = driver
		cfg.Storage.DSN = ""

		if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
			t.Fatalf("%s: expected ErrStorageDSNRequired, got %v", driver, err)
		}
	}
}

func TestConfigValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "mongo"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDriverInvalid) {
		t.Fatalf("expected ErrStorageDriverInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsNonPositiveRateWindow(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Forms.RateLimitWindow = 0

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrRateLimitWindowInvalid) {
		t.Fatalf("expected ErrRateLimitWindowInvalid, got %v", err)
	}
}

func TestEffectivePublishPolicyDefaultsToOff(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.PublishPolicy = ""
	if got := cfg.EffectivePublishPolicy(); got != runtimeconfig.PublishPolicyOff {
		t.Fatalf("expected off, got %q", got)
	}
	cfg.Content.PublishPolicy = " Public "
	if got := cfg.EffectivePublishPolicy(); got != runtimeconfig.PublishPolicyPublic {
		t.Fatalf("expected public, got %q", got)
	}
}

func TestLoadEnvFromOverlaysValues(t *testing.T) {
	cfg, err := runtimeconfig.LoadEnvFrom(runtimeconfig.DefaultConfig(), map[string]string{
		"CMS_DEFAULT_LOCALE":          "ar",
		"CMS_I18N_LOCALES":            "en,ar",
		"CMS_CONTENT_PUBLISH_POLICY":  "public",
		"CMS_STORAGE_DRIVER":          "sqlite",
		"CMS_STORAGE_DSN":             "file:cms.db",
		"CMS_FORMS_RATE_LIMIT_WINDOW": "30m",
		"CMS_HTTP_ADDR":               ":8080",
	})
	if err != nil {
		t.Fatalf("LoadEnvFrom: %v", err)
	}

	if cfg.DefaultLocale != "ar" {
		t.Fatalf("expected default locale ar, got %q", cfg.DefaultLocale)
	}
	if diff := cmp.Diff([]string{"en", "ar"}, cfg.I18N.Locales); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "file:cms.db" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Forms.RateLimitWindow != 30*time.Minute {
		t.Fatalf("expected 30m window, got %s", cfg.Forms.RateLimitWindow)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected addr override, got %q", cfg.HTTP.Addr)
	}
	if cfg.Content.DefaultPageSize != 25 {
		t.Fatalf("expected unset values to keep defaults, got %d", cfg.Content.DefaultPageSize)
	}
}

func TestLoadEnvFromValidatesResult(t *testing.T) {
	_, err := runtimeconfig.LoadEnvFrom(runtimeconfig.DefaultConfig(), map[string]string{
		"CMS_DEFAULT_LOCALE": "de",
	})
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleNotSupported) {
		t.Fatalf("expected ErrDefaultLocaleNotSupported, got %v", err)
	}
}

func TestLoadFileOverlaysTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cms.toml")
	contents := `
default_locale = "ur"

[i18n]
locales = ["en", "ur"]

[content]
publish_policy = "public"

[content.populate]
events = ["cover", "gallery"]

[forms]
rate_limit_window = "15m"

[http]
api_tokens = ["secret:admin"]
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.LoadFile(runtimeconfig.DefaultConfig(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.DefaultLocale != "ur" || cfg.EffectivePublishPolicy() != runtimeconfig.PublishPolicyPublic {
		t.Fatalf("unexpected overlay %+v", cfg)
	}
	if diff := cmp.Diff([]string{"cover", "gallery"}, cfg.Content.Populate["events"]); diff != "" {
		t.Fatalf("populate mismatch (-want +got):\n%s", diff)
	}
	if cfg.Forms.RateLimitWindow != 15*time.Minute {
		t.Fatalf("expected 15m window, got %s", cfg.Forms.RateLimitWindow)
	}
	if cfg.Storage.Driver != runtimeconfig.DriverMemory {
		t.Fatalf("expected untouched storage driver, got %q", cfg.Storage.Driver)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cms.toml")
	if err := os.WriteFile(path, []byte("[themes]\nactive = \"dark\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runtimeconfig.LoadFile(runtimeconfig.DefaultConfig(), path); err == nil {
		t.Fatal("expected unknown key error")
	}
}
