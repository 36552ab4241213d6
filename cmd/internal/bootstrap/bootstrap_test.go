package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfigLayersFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cms.toml")
	if err := os.WriteFile(path, []byte("[http]\naddr = \":9000\"\n[logging]\nprovider = \"noop\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CMS_HTTP_BASE_PATH", "/content")

	cfg, err := LoadConfig(Options{
		ConfigFile:    path,
		DefaultLocale: "ar",
		Locales:       []string{"en", "ar"},
	})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" || cfg.HTTP.BasePath != "/content" {
		t.Fatalf("unexpected http config %+v", cfg.HTTP)
	}
	if cfg.DefaultLocale != "ar" {
		t.Fatalf("expected flag default locale, got %q", cfg.DefaultLocale)
	}
	if diff := cmp.Diff([]string{"en", "ar"}, cfg.I18N.Locales); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	if _, err := LoadConfig(Options{DefaultLocale: "de"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSplitLocales(t *testing.T) {
	if diff := cmp.Diff([]string{"en", "ur"}, SplitLocales(" en, ,ur ")); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if SplitLocales("  ") != nil {
		t.Fatal("expected nil for blank input")
	}
}
