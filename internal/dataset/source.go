package dataset

import (
	"context"

	"carprice/adapters/excel"
	"carprice/adapters/postgres"
	"carprice/domain/core"
	"carprice/internal/config"
	"carprice/internal/errors"
	"carprice/internal/migration"
	"carprice/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// OpenSource returns the configured sheet source and a function releasing it.
// A Postgres source is migrated before use.
func OpenSource(ctx context.Context, cfg *config.Config) (ports.SheetSource, func(), error) {
	if cfg.Data.Source != config.SourcePostgres {
		return excel.NewDataReader(cfg.Data.File), func() {}, nil
	}
	if cfg.Database.URL == "" {
		return nil, nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, errors.DatabaseError("failed to connect to database", err)
	}
	if err := migration.NewRunner(cfg.Data.Table).Run(ctx, db); err != nil {
		db.Close()
		return nil, nil, errors.DatabaseError("database migration failed", err)
	}
	return postgres.NewCarRepository(db, cfg.Data.Table), func() { db.Close() }, nil
}

// LoadConfigured opens the configured source and loads the cleaned table.
func LoadConfigured(ctx context.Context, cfg *config.Config) (*Dataset, error) {
	source, release, err := OpenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer release()

	options := DefaultOptions()
	options.DropDuplicates = cfg.Analysis.DropDuplicates
	data, err := NewLoader(source, options).Load(ctx)
	if core.IsSchemaError(err) {
		return nil, errors.SchemaInvalid(err)
	}
	return data, err
}
