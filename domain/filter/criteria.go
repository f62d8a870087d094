package filter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"carprice/domain/car"
	"carprice/domain/core"
)

// Range is a closed numeric interval. A nil bound is open on that side.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Between builds a closed range [lo, hi].
func Between(lo, hi float64) Range {
	return Range{Min: &lo, Max: &hi}
}

// Contains reports whether v is inside the range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r Range) open() bool { return r.Min == nil && r.Max == nil }

// Constraint restricts one field: either a category set or a numeric range.
type Constraint struct {
	Values []string `json:"values,omitempty"`
	Range  *Range   `json:"range,omitempty"`
}

// In builds a category-membership constraint.
func In(values ...string) Constraint {
	return Constraint{Values: values}
}

// Within builds a numeric range constraint.
func Within(r Range) Constraint {
	return Constraint{Range: &r}
}

// Unrestricted reports whether c imposes no condition. An empty category set
// means "no restriction" in the same way as an absent field.
func (c Constraint) Unrestricted() bool {
	return len(c.Values) == 0 && (c.Range == nil || c.Range.open())
}

func (c Constraint) matches(r car.Record, f car.Field, kind car.Kind) bool {
	if kind == car.Categorical {
		label := r.Category(f)
		for _, v := range c.Values {
			if v == label {
				return true
			}
		}
		return false
	}
	v, ok := r.Number(f).Float()
	if !ok {
		return false
	}
	return c.Range.Contains(v)
}

// Criteria maps field names to constraints. Fields absent from the map impose
// no restriction.
type Criteria map[car.Field]Constraint

// None returns unrestricted criteria.
func None() Criteria { return Criteria{} }

// Active returns the restricting fields, sorted.
func (c Criteria) Active() []car.Field {
	var out []car.Field
	for f, con := range c {
		if !con.Unrestricted() {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsEmpty reports whether no field is restricted.
func (c Criteria) IsEmpty() bool { return len(c.Active()) == 0 }

// Clone returns a deep copy.
func (c Criteria) Clone() Criteria {
	out := make(Criteria, len(c))
	for f, con := range c {
		cp := Constraint{Values: append([]string(nil), con.Values...)}
		if con.Range != nil {
			r := *con.Range
			cp.Range = &r
		}
		out[f] = cp
	}
	return out
}

// Without returns a copy of c with the given fields removed.
func (c Criteria) Without(fields ...car.Field) Criteria {
	out := c.Clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Validate checks that every field is known and that each constraint fits the
// column kind.
func (c Criteria) Validate() error {
	for _, f := range c.sortedFields() {
		con := c[f]
		col, ok := car.Lookup(f)
		if !ok {
			return core.NewUnknownFieldError(string(f))
		}
		switch col.Kind {
		case car.Categorical:
			if con.Range != nil {
				return fmt.Errorf("field %s is categorical and cannot take a range", f)
			}
		case car.Numeric:
			if len(con.Values) > 0 {
				return fmt.Errorf("field %s is numeric and cannot take a category set", f)
			}
			if r := con.Range; r != nil {
				if (r.Min != nil && math.IsNaN(*r.Min)) || (r.Max != nil && math.IsNaN(*r.Max)) {
					return fmt.Errorf("field %s has a NaN bound", f)
				}
				if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
					return fmt.Errorf("field %s has min %g greater than max %g", f, *r.Min, *r.Max)
				}
			}
		}
	}
	return nil
}

// String renders the active criteria for logs.
func (c Criteria) String() string {
	active := c.Active()
	if len(active) == 0 {
		return "no filters"
	}
	parts := make([]string, 0, len(active))
	for _, f := range active {
		con := c[f]
		if con.Range != nil {
			lo, hi := "-inf", "+inf"
			if con.Range.Min != nil {
				lo = fmt.Sprintf("%g", *con.Range.Min)
			}
			if con.Range.Max != nil {
				hi = fmt.Sprintf("%g", *con.Range.Max)
			}
			parts = append(parts, fmt.Sprintf("%s in [%s, %s]", f, lo, hi))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s in {%s}", f, strings.Join(con.Values, ", ")))
	}
	return strings.Join(parts, "; ")
}

func (c Criteria) sortedFields() []car.Field {
	out := make([]car.Field, 0, len(c))
	for f := range c {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
