package stats

import (
	"carprice/domain/car"
)

// TestType defines the statistical test performed
type TestType string

const (
	TestPearson       TestType = "pearson"        // Pearson correlation
	TestSpearman      TestType = "spearman"       // Spearman rank correlation
	TestTTest         TestType = "welch_ttest"    // Welch's unequal-variance t-test
	TestANOVA         TestType = "anova"          // One-way analysis of variance
	TestMannWhitney   TestType = "mann_whitney"   // Mann-Whitney U test
	TestKruskalWallis TestType = "kruskal_wallis" // Kruskal-Wallis H test
)

// DisplayName returns the label used in result tables.
func (t TestType) DisplayName() string {
	switch t {
	case TestPearson:
		return "Pearson correlation"
	case TestSpearman:
		return "Spearman correlation"
	case TestTTest:
		return "t-test"
	case TestANOVA:
		return "ANOVA"
	case TestMannWhitney:
		return "Mann-Whitney U"
	case TestKruskalWallis:
		return "Kruskal-Wallis H"
	}
	return string(t)
}

// TestResult is the outcome of one hypothesis test. Results are produced
// fresh on every render and never cached.
type TestResult struct {
	Test       TestType  `json:"test"`
	Name       string    `json:"name"`
	Statistic  float64   `json:"statistic"`
	PValue     float64   `json:"p_value"`
	DF         []float64 `json:"df,omitempty"`
	GroupSizes []int     `json:"group_sizes"`
	Groups     []string  `json:"groups,omitempty"`
}

// Significant reports whether the p-value is below alpha.
func (r TestResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// Correlation holds a correlation coefficient between two fields.
type Correlation struct {
	TestResult
	X car.Field `json:"x"`
	Y car.Field `json:"y"`
	// Dropped counts pairs excluded because either side was undefined.
	Dropped int `json:"dropped"`
}

// Summary is a set of descriptive statistics over defined values.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
	// Undefined counts cells that were excluded from the aggregation.
	Undefined int `json:"undefined"`
}

// GroupSummary is one row of a per-category price summary.
type GroupSummary struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CorrelationMatrix holds pairwise Pearson coefficients between fields. A
// pair without enough defined, non-constant values is undefined.
type CorrelationMatrix struct {
	Fields []car.Field    `json:"fields"`
	Values [][]car.Number `json:"values"`
}

// FeatureTest records how a single feature relates to the target.
type FeatureTest struct {
	Feature car.Field  `json:"feature"`
	Kind    car.Kind   `json:"kind"`
	Result  TestResult `json:"result"`
	Levels  int        `json:"levels,omitempty"`
	// Excluded lists category levels left out for having fewer than two values.
	Excluded []string `json:"excluded,omitempty"`
}

// SkippedFeature is a feature that could not be tested on the current data.
type SkippedFeature struct {
	Feature car.Field `json:"feature"`
	Reason  string    `json:"reason"`
}

// FeatureReport is the per-feature screening against the target: rank
// correlation for numeric features, Mann-Whitney U for two-level and
// Kruskal-Wallis for multi-level categorical features.
type FeatureReport struct {
	Target      car.Field        `json:"target"`
	Continuous  []FeatureTest    `json:"continuous"`
	Categorical []FeatureTest    `json:"categorical"`
	Skipped     []SkippedFeature `json:"skipped,omitempty"`
}

// Significant returns the tested features with p below alpha, continuous first.
func (r FeatureReport) Significant(alpha float64) []car.Field {
	var out []car.Field
	for _, group := range [][]FeatureTest{r.Continuous, r.Categorical} {
		for _, t := range group {
			if t.Result.Significant(alpha) {
				out = append(out, t.Feature)
			}
		}
	}
	return out
}
