package filter

import "carprice/domain/car"

// Subset is the result of applying criteria to a table. Empty is set whenever
// no row matched so callers branch before running any analysis.
type Subset struct {
	Records []car.Record
	Empty   bool
	Total   int
}

// Len returns the number of matching rows.
func (s Subset) Len() int { return len(s.Records) }

// Apply keeps the records that satisfy every active constraint. Input order
// is preserved. Unknown fields match nothing; callers validate criteria first.
func Apply(criteria Criteria, records []car.Record) Subset {
	active := criteria.Active()
	kinds := make([]car.Kind, len(active))
	for i, f := range active {
		col, ok := car.Lookup(f)
		if !ok {
			return Subset{Records: []car.Record{}, Empty: true, Total: len(records)}
		}
		kinds[i] = col.Kind
	}

	out := make([]car.Record, 0, len(records))
rows:
	for _, r := range records {
		for i, f := range active {
			if !criteria[f].matches(r, f, kinds[i]) {
				continue rows
			}
		}
		out = append(out, r)
	}
	return Subset{Records: out, Empty: len(out) == 0, Total: len(records)}
}
