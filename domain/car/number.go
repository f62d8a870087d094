package car

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric cell that may be undefined. The zero value is the
// undefined sentinel.
type Number struct {
	value float64
	valid bool
}

// Undefined marks a missing cell or a derived computation that had no valid result.
var Undefined = Number{}

// Defined wraps v. NaN and infinities collapse to Undefined.
func Defined(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return Number{value: v, valid: true}
}

// ParseNumber reads a raw cell. Blank cells and NA markers are undefined.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "?":
		return Undefined, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Undefined, err
	}
	return Defined(v), nil
}

// Float returns the value and whether it is defined.
func (n Number) Float() (float64, bool) { return n.value, n.valid }

// IsDefined reports whether n holds a value.
func (n Number) IsDefined() bool { return n.valid }

// Or returns the value, or fallback when undefined.
func (n Number) Or(fallback float64) float64 {
	if !n.valid {
		return fallback
	}
	return n.value
}

func (n Number) String() string {
	if !n.valid {
		return "undefined"
	}
	return strconv.FormatFloat(n.value, 'f', -1, 64)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Undefined
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Defined(v)
	return nil
}
