package engine

import (
	"sort"

	"carprice/domain/car"
	"carprice/domain/stats"
)

// ScreenFeatures tests every candidate feature against target. Numeric
// features get a Spearman correlation, sorted by coefficient descending.
// Categorical features with two usable levels get a Mann-Whitney U test and
// those with more get Kruskal-Wallis. Levels with fewer than two values are
// excluded and listed on the result. Features that cannot be tested are
// reported as skipped rather than failing the whole screen.
func ScreenFeatures(records []car.Record, target car.Field, numeric, categorical []car.Field) stats.FeatureReport {
	report := stats.FeatureReport{Target: target}
	targetValues := car.Numbers(records, target)

	for _, f := range numeric {
		c, err := Spearman(car.Numbers(records, f), targetValues)
		if err != nil {
			report.Skipped = append(report.Skipped, stats.SkippedFeature{Feature: f, Reason: err.Error()})
			continue
		}
		report.Continuous = append(report.Continuous, stats.FeatureTest{
			Feature: f,
			Kind:    car.Numeric,
			Result:  c.TestResult,
		})
	}
	sort.SliceStable(report.Continuous, func(i, j int) bool {
		return report.Continuous[i].Result.Statistic > report.Continuous[j].Result.Statistic
	})

	for _, f := range categorical {
		var usable []Group
		var excluded []string
		for _, g := range GroupsOf(records, f, target) {
			if len(g.Values) < minGroupSize {
				excluded = append(excluded, g.Label)
				continue
			}
			usable = append(usable, g)
		}

		var (
			result stats.TestResult
			err    error
		)
		switch len(usable) {
		case 0, 1:
			report.Skipped = append(report.Skipped, stats.SkippedFeature{
				Feature: f,
				Reason:  "fewer than two levels with at least two values",
			})
			continue
		case 2:
			result, err = MannWhitneyU(usable[0], usable[1])
		default:
			result, err = KruskalWallis(usable)
		}
		if err != nil {
			report.Skipped = append(report.Skipped, stats.SkippedFeature{Feature: f, Reason: err.Error()})
			continue
		}
		report.Categorical = append(report.Categorical, stats.FeatureTest{
			Feature:  f,
			Kind:     car.Categorical,
			Result:   result,
			Levels:   len(usable),
			Excluded: excluded,
		})
	}
	return report
}
