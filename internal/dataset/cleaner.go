package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"carprice/adapters/stats/engine"
	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/filter"
	"carprice/internal"
)

// labelFixes maps misspelled or aliased labels to their canonical form,
// per column. Labels are lowercased and trimmed before lookup.
var labelFixes = map[car.Field]map[string]string{
	car.FieldFuelType: {
		"gas": "petrol",
	},
	car.FieldManufacturer: {
		"maxda":       "mazda",
		"porcshce":    "porsche",
		"toyouta":     "toyota",
		"vokswagen":   "volkswagen",
		"vw":          "volkswagen",
		"alfa-romero": "alfa-romeo",
	},
}

// Compression ratio bin edges: low below 9, medium below 12, high otherwise.
const (
	compressionMediumFrom = 9.0
	compressionHighFrom   = 12.0
)

// Cleaner normalizes labels and derives ratio features.
type Cleaner struct {
	log *internal.Logger
}

// NewCleaner creates a cleaner that reports removed rows to log.
func NewCleaner(log *internal.Logger) *Cleaner {
	if log == nil {
		log = internal.DefaultLogger.Component("Cleaner")
	}
	return &Cleaner{log: log}
}

// NormalizeLabel lowercases and trims a categorical value and applies the
// fix table for its column. Unmapped labels pass through.
func NormalizeLabel(f car.Field, label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if fixes, ok := labelFixes[f]; ok {
		if fixed, ok := fixes[label]; ok {
			return fixed
		}
	}
	return label
}

// NormalizeCriteria returns a copy of criteria whose category values are
// normalized the way loaded labels are, so "Gas" selects petrol cars.
func NormalizeCriteria(criteria filter.Criteria) filter.Criteria {
	out := criteria.Clone()
	for f, c := range out {
		if col, ok := car.Lookup(f); !ok || col.Kind != car.Categorical || len(c.Values) == 0 {
			continue
		}
		values := make([]string, len(c.Values))
		for i, v := range c.Values {
			values[i] = NormalizeLabel(f, v)
		}
		c.Values = values
		out[f] = c
	}
	return out
}

// Clean returns the records with normalized labels and freshly derived
// columns. Row count and order are unchanged.
func (c *Cleaner) Clean(records []car.Record) []car.Record {
	out := make([]car.Record, len(records))
	for i, r := range records {
		out[i] = Derive(normalize(r))
	}
	return out
}

func normalize(r car.Record) car.Record {
	cats := make(map[car.Field]string)
	for _, f := range car.FieldsOfKind(car.Categorical) {
		col, _ := car.Lookup(f)
		if col.Derived {
			continue
		}
		cats[f] = NormalizeLabel(f, r.Category(f))
	}
	return r.With(cats, nil)
}

// Derive recomputes every derived column from the source columns. Missing
// or zero divisors produce Undefined.
func Derive(r car.Record) car.Record {
	price := r.Number(car.FieldPrice)
	hp := r.Number(car.FieldHorsepower)

	avgMPG := car.Undefined
	city, okCity := r.Number(car.FieldCityMPG).Float()
	highway, okHighway := r.Number(car.FieldHighwayMPG).Float()
	if okCity && okHighway {
		avgMPG = car.Defined((city + highway) / 2)
	}

	nums := map[car.Field]car.Number{
		car.FieldPricePerHP:       ratio(car.FieldPricePerHP, price, hp),
		car.FieldPowerToWeight:    ratio(car.FieldPowerToWeight, hp, r.Number(car.FieldCurbWeight)),
		car.FieldEngineEfficiency: ratio(car.FieldEngineEfficiency, hp, r.Number(car.FieldEngineSize)),
		car.FieldAvgMPG:           avgMPG,
		car.FieldPricePerMPG:      ratio(car.FieldPricePerMPG, price, avgMPG),
	}
	cats := map[car.Field]string{
		car.FieldCompressionRatioBin: CompressionBin(r.Number(car.FieldCompressionRatio)),
		car.FieldSymbolingBinned:     SymbolingBin(r.Number(car.FieldSymboling)),
	}
	return r.With(cats, nums)
}

// ratio converts a division failure into the undefined sentinel.
func ratio(f car.Field, num, den car.Number) car.Number {
	v, err := divide(f, num, den)
	if err != nil {
		return car.Undefined
	}
	return car.Defined(v)
}

func divide(f car.Field, num, den car.Number) (float64, error) {
	n, ok := num.Float()
	if !ok {
		return 0, &core.UndefinedValueError{Field: string(f), Reason: "numerator is undefined"}
	}
	d, ok := den.Float()
	if !ok {
		return 0, &core.UndefinedValueError{Field: string(f), Reason: "divisor is undefined"}
	}
	if d == 0 {
		return 0, &core.UndefinedValueError{Field: string(f), Reason: "divisor is zero"}
	}
	return n / d, nil
}

// CompressionBin labels a compression ratio as low, medium or high.
func CompressionBin(n car.Number) string {
	v, ok := n.Float()
	switch {
	case !ok:
		return ""
	case v < compressionMediumFrom:
		return "low"
	case v < compressionHighFrom:
		return "medium"
	default:
		return "high"
	}
}

// SymbolingBin groups the insurance risk rating into four bands.
func SymbolingBin(n car.Number) string {
	v, ok := n.Float()
	if !ok {
		return ""
	}
	switch s := int(math.Round(v)); {
	case s <= -1:
		return "Low"
	case s == 0:
		return "Medium"
	case s == 1:
		return "High"
	default:
		return "Very High"
	}
}

// DropDuplicates removes rows whose values repeat an earlier row. The first
// occurrence is kept.
func (c *Cleaner) DropDuplicates(records []car.Record) ([]car.Record, int) {
	seen := make(map[string]bool, len(records))
	out := make([]car.Record, 0, len(records))
	for _, r := range records {
		key := rowKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	removed := len(records) - len(out)
	c.log.Info("DropDuplicates removed %d rows", removed)
	return out, removed
}

// DropMissing removes rows with an undefined value (or empty label) in any of
// the given fields.
func (c *Cleaner) DropMissing(records []car.Record, fields ...car.Field) ([]car.Record, int) {
	out := make([]car.Record, 0, len(records))
rows:
	for _, r := range records {
		for _, f := range fields {
			col, ok := car.Lookup(f)
			if ok && col.Kind == car.Categorical {
				if r.Category(f) == "" {
					continue rows
				}
			} else if !r.Number(f).IsDefined() {
				continue rows
			}
		}
		out = append(out, r)
	}
	removed := len(records) - len(out)
	c.log.Info("DropMissing(%v) removed %d rows", fields, removed)
	return out, removed
}

// CapPrice removes rows priced above the given quantile of the defined
// prices. Rows without a price are kept.
func (c *Cleaner) CapPrice(records []car.Record, quantile float64) ([]car.Record, int, error) {
	if quantile >= 1 {
		return records, 0, nil
	}
	limit, err := engine.Quantile(car.DefinedValues(records, car.FieldPrice), quantile)
	if err != nil {
		return nil, 0, fmt.Errorf("price cap: %w", err)
	}
	out := make([]car.Record, 0, len(records))
	for _, r := range records {
		if v, ok := r.Number(car.FieldPrice).Float(); ok && v > limit {
			continue
		}
		out = append(out, r)
	}
	removed := len(records) - len(out)
	c.log.Debug("CapPrice(%.2f) at %.2f removed %d rows", quantile, limit, removed)
	return out, removed, nil
}

// rowKey serializes every value except the row id.
func rowKey(r car.Record) string {
	values := r.Values()
	delete(values, "id")
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		switch v := values[k].(type) {
		case car.Number:
			if f, ok := v.Float(); ok {
				b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
			} else {
				b.WriteString("?")
			}
		default:
			fmt.Fprint(&b, v)
		}
		b.WriteByte(';')
	}
	return b.String()
}
