package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cms "github.com/goliatone/go-cms-locales"
	"github.com/goliatone/go-cms-locales/cmd/internal/bootstrap"
)

func TestRunSeedReportsCreatedDocuments(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	moduleBuilder = func(bootstrap.Options) (*cms.Module, error) {
		cfg := cms.DefaultConfig()
		cfg.Logging.Provider = "noop"
		return cms.New(cfg)
	}

	var out bytes.Buffer
	if err := runSeed(context.Background(), nil, &out); err != nil {
		t.Fatalf("runSeed: %v", err)
	}
	if got := out.String(); got != "seeded 4 documents (7 records), skipped 0\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunSeedAgainstSQLiteIsIdempotent(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "seed.db")
	t.Setenv("CMS_LOGGING_PROVIDER", "noop")

	var out bytes.Buffer
	args := []string{"-driver", "sqlite", "-dsn", dsn}
	if err := runSeed(context.Background(), args, &out); err != nil {
		t.Fatalf("first run: %v", err)
	}
	out.Reset()
	if err := runSeed(context.Background(), args, &out); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(out.String(), "seeded 0 documents") || !strings.Contains(out.String(), "skipped 4") {
		t.Fatalf("expected second run to skip everything, got %q", out.String())
	}
}

func TestRunSeedRejectsMissingDirectory(t *testing.T) {
	t.Setenv("CMS_LOGGING_PROVIDER", "noop")
	missing := filepath.Join(t.TempDir(), "absent")
	if _, err := os.Stat(missing); err == nil {
		t.Fatal("expected directory to be absent")
	}
	if err := runSeed(context.Background(), []string{"-dir", missing}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
