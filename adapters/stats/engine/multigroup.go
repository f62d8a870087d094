package engine

import (
	"math"

	"carprice/domain/core"
	"carprice/domain/stats"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func checkMultiGroups(test stats.TestType, groups []Group) error {
	if len(groups) < 2 {
		labels := make([]string, len(groups))
		for i, g := range groups {
			labels[i] = g.Label
		}
		return &core.InsufficientDataError{
			Test:   string(test),
			Groups: labels,
			Reason: "at least two groups are required",
		}
	}
	return checkGroups(test, groups...)
}

// ANOVA runs a one-way analysis of variance across groups.
func ANOVA(groups []Group) (stats.TestResult, error) {
	if err := checkMultiGroups(stats.TestANOVA, groups); err != nil {
		return stats.TestResult{}, err
	}

	var all []float64
	for _, g := range groups {
		all = append(all, g.Values...)
	}
	grand := stat.Mean(all, nil)

	ssBetween, ssWithin := 0.0, 0.0
	for _, g := range groups {
		m := stat.Mean(g.Values, nil)
		ssBetween += float64(len(g.Values)) * (m - grand) * (m - grand)
		for _, v := range g.Values {
			ssWithin += (v - m) * (v - m)
		}
	}

	k, n := float64(len(groups)), float64(len(all))
	dfBetween, dfWithin := k-1, n-k
	if ssWithin == 0 {
		_, labels := sizes(groups)
		return stats.TestResult{}, &core.InsufficientDataError{
			Test:   string(stats.TestANOVA),
			Groups: labels,
			Reason: "no variance within groups",
		}
	}

	f := (ssBetween / dfBetween) / (ssWithin / dfWithin)
	dist := distuv.F{D1: dfBetween, D2: dfWithin}

	sz, labels := sizes(groups)
	return stats.TestResult{
		Test:       stats.TestANOVA,
		Name:       stats.TestANOVA.DisplayName(),
		Statistic:  f,
		PValue:     math.Min(1, dist.Survival(f)),
		DF:         []float64{dfBetween, dfWithin},
		GroupSizes: sz,
		Groups:     labels,
	}, nil
}

// KruskalWallis runs the rank-based H test across groups, corrected for ties.
func KruskalWallis(groups []Group) (stats.TestResult, error) {
	if err := checkMultiGroups(stats.TestKruskalWallis, groups); err != nil {
		return stats.TestResult{}, err
	}

	var all []float64
	for _, g := range groups {
		all = append(all, g.Values...)
	}
	ranks := Ranks(all)
	n := float64(len(all))

	h := 0.0
	offset := 0
	for _, g := range groups {
		sum := 0.0
		for _, r := range ranks[offset : offset+len(g.Values)] {
			sum += r
		}
		h += sum * sum / float64(len(g.Values))
		offset += len(g.Values)
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	correction := 1 - tieTerm(all)/(n*n*n-n)
	if correction == 0 {
		_, labels := sizes(groups)
		return stats.TestResult{}, &core.InsufficientDataError{
			Test:   string(stats.TestKruskalWallis),
			Groups: labels,
			Reason: "all values are tied",
		}
	}
	h /= correction

	df := float64(len(groups) - 1)
	dist := distuv.ChiSquared{K: df}

	sz, labels := sizes(groups)
	return stats.TestResult{
		Test:       stats.TestKruskalWallis,
		Name:       stats.TestKruskalWallis.DisplayName(),
		Statistic:  h,
		PValue:     math.Min(1, dist.Survival(h)),
		DF:         []float64{df},
		GroupSizes: sz,
		Groups:     labels,
	}, nil
}
