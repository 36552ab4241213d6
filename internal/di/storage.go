package di

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/forms"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/runtimeconfig"
)

// OpenDB opens the SQL backend named by cfg. The memory driver returns a nil
// database and no error.
func OpenDB(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", runtimeconfig.DriverMemory:
		return nil, nil
	case runtimeconfig.DriverSQLite:
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serialises writers; a single connection keeps numeric key
		// allocation and shared in-memory databases consistent.
		sqlDB.SetMaxOpenConns(1)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case runtimeconfig.DriverPostgres:
		connCfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		return bun.NewDB(stdlib.OpenDB(*connCfg), pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrStorageDriverInvalid, cfg.Driver)
	}
}

// EnsureSchema creates the records, locales and submissions tables and their
// lookup indexes when they do not exist yet.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return nil
	}
	models := []any{
		(*locale.Locale)(nil),
		(*documents.Record)(nil),
		(*forms.Submission)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model   any
		name    string
		unique  bool
		columns []string
	}{
		{(*documents.Record)(nil), "localized_records_document_locale_idx", true, []string{"collection", "document_id", "locale"}},
		{(*documents.Record)(nil), "localized_records_slug_idx", false, []string{"collection", "locale", "slug"}},
		{(*forms.Submission)(nil), "form_submissions_rate_idx", false, []string{"form_document_id", "ip", "submitted_at"}},
	}
	for _, idx := range indexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}
