package engine

import (
	"math"

	"carprice/domain/core"
	"carprice/domain/stats"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// WelchTTest compares the means of a and b without assuming equal
// variances. The statistic is positive when a has the larger mean.
func WelchTTest(a, b Group) (stats.TestResult, error) {
	if err := checkGroups(stats.TestTTest, a, b); err != nil {
		return stats.TestResult{}, err
	}

	n1, n2 := float64(len(a.Values)), float64(len(b.Values))
	mean1, var1 := stat.MeanVariance(a.Values, nil)
	mean2, var2 := stat.MeanVariance(b.Values, nil)

	se2 := var1/n1 + var2/n2
	if se2 == 0 {
		return stats.TestResult{}, &core.InsufficientDataError{
			Test:   string(stats.TestTTest),
			Groups: []string{a.Label, b.Label},
			Reason: "both groups have zero variance",
		}
	}
	t := (mean1 - mean2) / math.Sqrt(se2)

	// Welch-Satterthwaite
	df := se2 * se2 / ((var1/n1)*(var1/n1)/(n1-1) + (var2/n2)*(var2/n2)/(n2-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := math.Min(1, 2*dist.Survival(math.Abs(t)))

	n, labels := sizes([]Group{a, b})
	return stats.TestResult{
		Test:       stats.TestTTest,
		Name:       stats.TestTTest.DisplayName(),
		Statistic:  t,
		PValue:     p,
		DF:         []float64{df},
		GroupSizes: n,
		Groups:     labels,
	}, nil
}

// MannWhitneyU runs the two-sided rank-sum test. The statistic is U for a.
// The p-value uses the normal approximation with tie and continuity
// correction.
func MannWhitneyU(a, b Group) (stats.TestResult, error) {
	if err := checkGroups(stats.TestMannWhitney, a, b); err != nil {
		return stats.TestResult{}, err
	}

	n1, n2 := len(a.Values), len(b.Values)
	pooled := make([]float64, 0, n1+n2)
	pooled = append(pooled, a.Values...)
	pooled = append(pooled, b.Values...)
	ranks := Ranks(pooled)

	r1 := 0.0
	for _, r := range ranks[:n1] {
		r1 += r
	}
	fn1, fn2 := float64(n1), float64(n2)
	n := fn1 + fn2
	u1 := r1 - fn1*(fn1+1)/2
	u2 := fn1*fn2 - u1

	mu := fn1 * fn2 / 2
	sigma := math.Sqrt(fn1 * fn2 / 12 * ((n + 1) - tieTerm(pooled)/(n*(n-1))))
	if sigma == 0 {
		return stats.TestResult{}, &core.InsufficientDataError{
			Test:   string(stats.TestMannWhitney),
			Groups: []string{a.Label, b.Label},
			Reason: "all values are tied",
		}
	}

	z := (math.Max(u1, u2) - mu - 0.5) / sigma
	p := math.Min(1, 2*distuv.UnitNormal.Survival(z))

	sz, labels := sizes([]Group{a, b})
	return stats.TestResult{
		Test:       stats.TestMannWhitney,
		Name:       stats.TestMannWhitney.DisplayName(),
		Statistic:  u1,
		PValue:     p,
		GroupSizes: sz,
		Groups:     labels,
	}, nil
}
