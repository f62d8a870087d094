package migration

import (
	"context"
	"fmt"
	"strings"

	"carprice/adapters/postgres"
	"carprice/domain/car"
	"carprice/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	table   string
}

// NewRunner creates a new migration runner for the given car table
func NewRunner(table string) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		table:   table,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createCarTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create car table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

// CreateTableSQL renders the car table definition
func (r *MigrationRunner) CreateTableSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", pq.QuoteIdentifier(r.table))
	b.WriteString("\t\t\tcar_id SERIAL PRIMARY KEY")
	for _, c := range postgres.StoredColumns() {
		colType := "TEXT"
		if c.Kind == car.Numeric {
			colType = "DOUBLE PRECISION"
		}
		fmt.Fprintf(&b, ",\n\t\t\t%s %s", pq.QuoteIdentifier(string(c.Field)), colType)
	}
	b.WriteString(",\n\t\t\timported_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()\n\t\t)")
	return b.String()
}

func (r *MigrationRunner) createCarTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, r.CreateTableSQL())
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	for _, f := range []car.Field{car.FieldFuelType, car.FieldCarBody, car.FieldDriveWheel} {
		index := pq.QuoteIdentifier(fmt.Sprintf("idx_%s_%s", r.table, f))
		query := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
			index, pq.QuoteIdentifier(r.table), pq.QuoteIdentifier(string(f)))
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("index on %s: %w", f, err)
		}
	}
	return nil
}
