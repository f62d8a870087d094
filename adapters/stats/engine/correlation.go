package engine

import (
	"fmt"
	"math"

	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/stats"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// pairs keeps the positions where both x and y are defined.
func pairs(x, y []car.Number) ([]float64, []float64, int, error) {
	if len(x) != len(y) {
		return nil, nil, 0, fmt.Errorf("correlation inputs differ in length: %d and %d", len(x), len(y))
	}
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		xv, okX := x[i].Float()
		yv, okY := y[i].Float()
		if okX && okY {
			xs = append(xs, xv)
			ys = append(ys, yv)
		}
	}
	return xs, ys, len(x) - len(xs), nil
}

func constant(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}

// correlate computes Pearson's r on already paired data with a two-sided
// p-value from the t distribution with n-2 degrees of freedom.
func correlate(test stats.TestType, xs, ys []float64, dropped int) (stats.Correlation, error) {
	n := len(xs)
	if n < minGroupSize {
		return stats.Correlation{}, &core.InsufficientDataError{
			Test:    string(test),
			MinSize: minGroupSize,
			Reason:  fmt.Sprintf("%d defined pairs (%d dropped)", n, dropped),
		}
	}
	if constant(xs) || constant(ys) {
		return stats.Correlation{}, &core.InsufficientDataError{
			Test:   string(test),
			Reason: "an input is constant",
		}
	}

	r := math.Max(-1, math.Min(1, stat.Correlation(xs, ys, nil)))
	df := float64(n - 2)

	p := 1.0
	switch {
	case n == 2:
	case math.Abs(r) == 1:
		p = 0
	default:
		t := r * math.Sqrt(df/(1-r*r))
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		p = math.Min(1, 2*dist.Survival(math.Abs(t)))
	}

	return stats.Correlation{
		TestResult: stats.TestResult{
			Test:       test,
			Name:       test.DisplayName(),
			Statistic:  r,
			PValue:     p,
			DF:         []float64{df},
			GroupSizes: []int{n},
		},
		Dropped: dropped,
	}, nil
}

// Pearson correlates x and y, excluding positions where either is undefined.
func Pearson(x, y []car.Number) (stats.Correlation, error) {
	xs, ys, dropped, err := pairs(x, y)
	if err != nil {
		return stats.Correlation{}, err
	}
	return correlate(stats.TestPearson, xs, ys, dropped)
}

// Spearman is Pearson's r on the average ranks of the defined pairs.
func Spearman(x, y []car.Number) (stats.Correlation, error) {
	xs, ys, dropped, err := pairs(x, y)
	if err != nil {
		return stats.Correlation{}, err
	}
	if len(xs) < minGroupSize {
		return correlate(stats.TestSpearman, xs, ys, dropped)
	}
	return correlate(stats.TestSpearman, Ranks(xs), Ranks(ys), dropped)
}

// Correlate runs test (pearson or spearman) between two record columns.
func Correlate(test stats.TestType, records []car.Record, x, y car.Field) (stats.Correlation, error) {
	var (
		c   stats.Correlation
		err error
	)
	switch test {
	case stats.TestPearson:
		c, err = Pearson(car.Numbers(records, x), car.Numbers(records, y))
	case stats.TestSpearman:
		c, err = Spearman(car.Numbers(records, x), car.Numbers(records, y))
	default:
		return stats.Correlation{}, fmt.Errorf("%s is not a correlation test", test)
	}
	if err != nil {
		return stats.Correlation{}, err
	}
	c.X, c.Y = x, y
	return c, nil
}

// CorrelationMatrix computes pairwise Pearson coefficients. Pairs that cannot
// be correlated are left undefined; the diagonal is 1 whenever the column
// varies.
func CorrelationMatrix(records []car.Record, fields []car.Field) stats.CorrelationMatrix {
	columns := make([][]car.Number, len(fields))
	for i, f := range fields {
		columns[i] = car.Numbers(records, f)
	}

	values := make([][]car.Number, len(fields))
	for i := range values {
		values[i] = make([]car.Number, len(fields))
	}
	for i := range fields {
		for j := i; j < len(fields); j++ {
			c, err := Pearson(columns[i], columns[j])
			if err != nil {
				continue
			}
			values[i][j] = car.Defined(c.Statistic)
			values[j][i] = values[i][j]
		}
	}
	return stats.CorrelationMatrix{Fields: append([]car.Field(nil), fields...), Values: values}
}
