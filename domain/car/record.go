package car

import "sort"

// RawRow is one input row keyed by header, as read from a file or table.
type RawRow map[string]string

// Sheet is a raw tabular input before schema validation.
type Sheet struct {
	Source  string
	Headers []string
	Rows    []RawRow
}

// Record is one car. Records are immutable: every modification returns a copy.
type Record struct {
	id         int
	categories map[Field]string
	numbers    map[Field]Number
}

// NewRecord builds a record, copying the given maps.
func NewRecord(id int, categories map[Field]string, numbers map[Field]Number) Record {
	r := Record{
		id:         id,
		categories: make(map[Field]string, len(categories)),
		numbers:    make(map[Field]Number, len(numbers)),
	}
	for k, v := range categories {
		r.categories[k] = v
	}
	for k, v := range numbers {
		r.numbers[k] = v
	}
	return r
}

// ID is the zero-based position of the record in the loaded file.
func (r Record) ID() int { return r.id }

// Category returns the label stored for f, or "" when absent.
func (r Record) Category(f Field) string { return r.categories[f] }

// Number returns the value stored for f, or Undefined when absent.
func (r Record) Number(f Field) Number { return r.numbers[f] }

// GroupLabel returns the label r is grouped under for f. Numeric fields such
// as symboling group by their formatted value; undefined values give "".
func (r Record) GroupLabel(f Field) string {
	if c, ok := columnIndex[f]; ok && c.Kind == Numeric {
		if n := r.numbers[f]; n.IsDefined() {
			return n.String()
		}
		return ""
	}
	return r.categories[f]
}

// With returns a copy of r with the given fields overridden.
func (r Record) With(categories map[Field]string, numbers map[Field]Number) Record {
	out := NewRecord(r.id, r.categories, r.numbers)
	for k, v := range categories {
		out.categories[k] = v
	}
	for k, v := range numbers {
		out.numbers[k] = v
	}
	return out
}

// Values returns a flat view used for serialization.
func (r Record) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(r.categories)+len(r.numbers)+1)
	out["id"] = r.id
	for k, v := range r.categories {
		out[string(k)] = v
	}
	for k, v := range r.numbers {
		out[string(k)] = v
	}
	return out
}

// Numbers extracts column f from records, in order.
func Numbers(records []Record, f Field) []Number {
	out := make([]Number, len(records))
	for i, r := range records {
		out[i] = r.Number(f)
	}
	return out
}

// DefinedValues extracts the defined values of column f, skipping undefined cells.
func DefinedValues(records []Record, f Field) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Number(f).Float(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Levels returns the distinct non-empty labels of column f, sorted.
func Levels(records []Record, f Field) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		if c := r.GroupLabel(f); c != "" {
			seen[c] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GroupBy splits the defined values of value by the label in column by.
// Rows with an empty label or an undefined value are skipped.
func GroupBy(records []Record, by, value Field) map[string][]float64 {
	out := make(map[string][]float64)
	for _, r := range records {
		label := r.GroupLabel(by)
		if label == "" {
			continue
		}
		if v, ok := r.Number(value).Float(); ok {
			out[label] = append(out[label], v)
		}
	}
	return out
}

// Select returns the values of value for rows whose by column equals label.
func Select(records []Record, by Field, label string, value Field) []float64 {
	var out []float64
	for _, r := range records {
		if r.GroupLabel(by) != label {
			continue
		}
		if v, ok := r.Number(value).Float(); ok {
			out = append(out, v)
		}
	}
	return out
}
