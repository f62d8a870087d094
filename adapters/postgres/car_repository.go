package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"carprice/domain/car"
	"carprice/internal"
	"carprice/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// carRepository implements the CarRepository interface
type carRepository struct {
	db    *sqlx.DB
	table string
	log   *internal.Logger
}

// NewCarRepository creates a repository over the given table
func NewCarRepository(db *sqlx.DB, table string) ports.CarRepository {
	return &carRepository{
		db:    db,
		table: table,
		log:   internal.DefaultLogger.Component("CarRepository"),
	}
}

// StoredColumns lists the columns persisted per car: the model name plus every
// raw catalog column. Derived columns are always recomputed after loading.
func StoredColumns() []car.Column {
	cols := []car.Column{{Field: car.FieldCarName, Kind: car.Categorical}}
	for _, c := range car.Columns {
		if !c.Derived {
			cols = append(cols, c)
		}
	}
	return cols
}

// ReadSheet loads every stored row in insertion order
func (r *carRepository) ReadSheet(ctx context.Context) (*car.Sheet, error) {
	cols := StoredColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = pq.QuoteIdentifier(string(c.Field))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY car_id`,
		strings.Join(names, ", "), pq.QuoteIdentifier(r.table))

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cars: %w", err)
	}
	defer rows.Close()

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = string(c.Field)
	}
	sheet := &car.Sheet{Source: "postgres:" + r.table, Headers: headers}

	for rows.Next() {
		values := make(map[string]interface{}, len(cols))
		if err := rows.MapScan(values); err != nil {
			return nil, fmt.Errorf("failed to scan car row: %w", err)
		}
		raw := make(car.RawRow, len(cols))
		for _, h := range headers {
			raw[h] = cellString(values[h])
		}
		sheet.Rows = append(sheet.Rows, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate car rows: %w", err)
	}

	r.log.Info("Loaded %d rows from %s", len(sheet.Rows), r.table)
	return sheet, nil
}

// Import replaces the table contents with the sheet rows inside one transaction
func (r *carRepository) Import(ctx context.Context, sheet *car.Sheet, progress func()) (int, error) {
	cols := StoredColumns()
	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		names[i] = pq.QuoteIdentifier(string(c.Field))
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	table := pq.QuoteIdentifier(r.table)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`TRUNCATE %s RESTART IDENTITY`, table)); err != nil {
		return 0, fmt.Errorf("failed to truncate %s: %w", r.table, err)
	}

	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(names, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range sheet.Rows {
		args, err := rowArgs(cols, row)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
		if progress != nil {
			progress()
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	r.log.Info("Imported %d rows into %s", len(sheet.Rows), r.table)
	return len(sheet.Rows), nil
}

// Count returns the number of stored cars
func (r *carRepository) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, pq.QuoteIdentifier(r.table))
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("failed to count cars: %w", err)
	}
	return n, nil
}

// rowArgs converts a raw row to insert arguments. Undefined numbers and
// absent labels are stored as NULL.
func rowArgs(cols []car.Column, row car.RawRow) ([]interface{}, error) {
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		cell, ok := row[string(c.Field)]
		if !ok || strings.TrimSpace(cell) == "" {
			args[i] = nil
			continue
		}
		if c.Kind == car.Numeric {
			n, err := car.ParseNumber(cell)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Field, err)
			}
			if v, ok := n.Float(); ok {
				args[i] = v
			} else {
				args[i] = nil
			}
			continue
		}
		args[i] = cell
	}
	return args, nil
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
