// Package dataset turns a raw car sheet into the cleaned table every
// dashboard page reads from.
package dataset

import (
	"context"
	"sort"
	"strings"

	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/internal"
	"carprice/ports"
)

// Dataset is the cleaned, immutable table shared by all sessions.
type Dataset struct {
	Source  string
	Records []car.Record
	Report  Report
}

// Report counts what loading and cleaning removed or could not read.
type Report struct {
	RowsRead   int `json:"rows_read"`
	Duplicates int `json:"duplicates"`
	Missing    int `json:"missing"`
	Unparsed   int `json:"unparsed_cells"`
	RowsKept   int `json:"rows_kept"`
}

// Options controls the optional cleaning steps run by Load.
type Options struct {
	DropDuplicates bool
	// RequiredValues lists fields whose undefined rows are removed.
	RequiredValues []car.Field
}

// DefaultOptions drops duplicates and rows without a price.
func DefaultOptions() Options {
	return Options{
		DropDuplicates: true,
		RequiredValues: []car.Field{car.FieldPrice},
	}
}

// Loader reads a sheet source and runs the cleaning pipeline.
type Loader struct {
	source  ports.SheetSource
	options Options
	log     *internal.Logger
}

// NewLoader creates a loader over source.
func NewLoader(source ports.SheetSource, options Options) *Loader {
	return &Loader{
		source:  source,
		options: options,
		log:     internal.DefaultLogger.Component("Loader"),
	}
}

// Load reads, validates, cleans and derives. A sheet missing required columns
// fails with a *core.SchemaError.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	sheet, err := l.source.ReadSheet(ctx)
	if err != nil {
		return nil, err
	}

	records, unparsed, err := ParseSheet(sheet)
	if err != nil {
		return nil, err
	}
	if unparsed > 0 {
		l.log.Warn("%d numeric cells in %s could not be parsed and were treated as undefined", unparsed, sheet.Source)
	}

	report := Report{RowsRead: len(records), Unparsed: unparsed}
	cleaner := NewCleaner(l.log)
	records = cleaner.Clean(records)

	if l.options.DropDuplicates {
		records, report.Duplicates = cleaner.DropDuplicates(records)
	}
	if len(l.options.RequiredValues) > 0 {
		records, report.Missing = cleaner.DropMissing(records, l.options.RequiredValues...)
	}
	report.RowsKept = len(records)

	l.log.Info("Loaded %d cars from %s (%d duplicates, %d missing removed)",
		report.RowsKept, sheet.Source, report.Duplicates, report.Missing)

	return &Dataset{Source: sheet.Source, Records: records, Report: report}, nil
}

// CheckSchema returns a *core.SchemaError listing every required column the
// sheet lacks. The manufacturer requirement is met by either a manufacturer
// or a CarName column.
func CheckSchema(sheet *car.Sheet) error {
	present := make(map[string]bool, len(sheet.Headers))
	for _, h := range sheet.Headers {
		present[h] = true
	}

	var missing []string
	for _, f := range car.RequiredFields() {
		if !present[string(f)] {
			missing = append(missing, string(f))
		}
	}
	if !present[string(car.FieldManufacturer)] && !present[string(car.FieldCarName)] {
		missing = append(missing, string(car.FieldManufacturer)+" (or "+string(car.FieldCarName)+")")
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &core.SchemaError{Source: sheet.Source, Missing: missing}
}

// ParseSheet converts raw rows into records after checking the schema.
// Unparseable numeric cells load as undefined and are counted.
func ParseSheet(sheet *car.Sheet) ([]car.Record, int, error) {
	if err := CheckSchema(sheet); err != nil {
		return nil, 0, err
	}

	present := make(map[string]bool, len(sheet.Headers))
	for _, h := range sheet.Headers {
		present[h] = true
	}

	unparsed := 0
	records := make([]car.Record, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		cats := make(map[car.Field]string)
		nums := make(map[car.Field]car.Number)

		if name, ok := row[string(car.FieldCarName)]; ok {
			cats[car.FieldCarName] = strings.TrimSpace(name)
		}
		for _, col := range car.Columns {
			if col.Derived || !present[string(col.Field)] {
				continue
			}
			cell := row[string(col.Field)]
			if col.Kind == car.Categorical {
				cats[col.Field] = strings.TrimSpace(cell)
				continue
			}
			n, err := car.ParseNumber(cell)
			if err != nil {
				unparsed++
			}
			nums[col.Field] = n
		}
		if cats[car.FieldManufacturer] == "" {
			cats[car.FieldManufacturer] = ManufacturerFromName(cats[car.FieldCarName])
		}
		records = append(records, car.NewRecord(i, cats, nums))
	}
	return records, unparsed, nil
}

// ManufacturerFromName takes the first word of a model name such as
// "alfa-romero giulia".
func ManufacturerFromName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
