package engine

import (
	"errors"
	"math"
	"testing"

	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(values ...float64) []car.Number {
	out := make([]car.Number, len(values))
	for i, v := range values {
		out[i] = car.Defined(v)
	}
	return out
}

func requireInsufficient(t *testing.T, err error) *core.InsufficientDataError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
	var ide *core.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	return ide
}

func TestWelchTTest_MatchesManualComputation(t *testing.T) {
	a := Group{Label: "a", Values: []float64{1, 2, 3, 4, 5}}
	b := Group{Label: "b", Values: []float64{2, 4, 6, 8, 10, 12, 14}}

	res, err := WelchTTest(a, b)
	require.NoError(t, err)

	// mean 3, variance 2.5 against mean 8, variance 112/6
	v1, v2 := 2.5, 112.0/6
	se2 := v1/5 + v2/7
	expectedT := (3.0 - 8.0) / math.Sqrt(se2)
	expectedDF := se2 * se2 / ((v1/5)*(v1/5)/4 + (v2/7)*(v2/7)/6)

	assert.InDelta(t, expectedT, res.Statistic, 1e-9)
	require.Len(t, res.DF, 1)
	assert.InDelta(t, expectedDF, res.DF[0], 1e-9)
	assert.InDelta(t, 0.022747, res.PValue, 1e-4)
	assert.Equal(t, []int{5, 7}, res.GroupSizes)
	assert.Equal(t, []string{"a", "b"}, res.Groups)
	assert.Equal(t, stats.TestTTest, res.Test)
}

func TestWelchTTest_IsAntisymmetric(t *testing.T) {
	a := Group{Label: "a", Values: []float64{10, 12, 9, 11}}
	b := Group{Label: "b", Values: []float64{20, 18, 25, 21, 19}}

	ab, err := WelchTTest(a, b)
	require.NoError(t, err)
	ba, err := WelchTTest(b, a)
	require.NoError(t, err)

	assert.InDelta(t, -ab.Statistic, ba.Statistic, 1e-12)
	assert.InDelta(t, ab.PValue, ba.PValue, 1e-12)
}

func TestTwoGroupTests_RejectEmptyGroup(t *testing.T) {
	petrol := Group{Label: "petrol", Values: []float64{10, 12, 14}}
	diesel := Group{Label: "diesel"}

	tests := []struct {
		name string
		run  func(a, b Group) (stats.TestResult, error)
		test stats.TestType
	}{
		{"welch", WelchTTest, stats.TestTTest},
		{"mann-whitney", MannWhitneyU, stats.TestMannWhitney},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.run(diesel, petrol)
			ide := requireInsufficient(t, err)
			assert.Equal(t, string(tt.test), ide.Test)
			assert.Equal(t, []string{"diesel"}, ide.Groups)
			assert.Contains(t, err.Error(), "diesel")
			assert.False(t, math.IsNaN(res.PValue))
		})
	}
}

func TestWelchTTest_SingletonGroupsBothNamed(t *testing.T) {
	_, err := WelchTTest(Group{Label: "x", Values: []float64{1}}, Group{Label: "y", Values: []float64{2}})
	ide := requireInsufficient(t, err)
	assert.Equal(t, []string{"x", "y"}, ide.Groups)
	assert.Equal(t, 2, ide.MinSize)
}

func TestWelchTTest_ZeroVariance(t *testing.T) {
	_, err := WelchTTest(Group{Label: "x", Values: []float64{3, 3}}, Group{Label: "y", Values: []float64{3, 3, 3}})
	requireInsufficient(t, err)
}

func TestMannWhitneyU(t *testing.T) {
	a := Group{Label: "a", Values: []float64{1, 2, 3, 4, 5}}
	b := Group{Label: "b", Values: []float64{2, 4, 6, 8, 10, 12, 14}}

	res, err := MannWhitneyU(a, b)
	require.NoError(t, err)

	assert.Equal(t, 5.0, res.Statistic)
	assert.InDelta(t, 0.050507, res.PValue, 1e-5)
	assert.Equal(t, []int{5, 7}, res.GroupSizes)
}

func TestMannWhitneyU_AllTied(t *testing.T) {
	_, err := MannWhitneyU(Group{Label: "a", Values: []float64{1, 1}}, Group{Label: "b", Values: []float64{1, 1}})
	requireInsufficient(t, err)
}

func TestANOVA(t *testing.T) {
	groups := []Group{
		{Label: "g1", Values: []float64{1, 2, 3}},
		{Label: "g2", Values: []float64{4, 5, 6}},
		{Label: "g3", Values: []float64{7, 8, 9}},
	}

	res, err := ANOVA(groups)
	require.NoError(t, err)

	assert.InDelta(t, 27.0, res.Statistic, 1e-9)
	assert.Equal(t, []float64{2, 6}, res.DF)
	// F(2, 6) survival is (1 + 2F/6)^-3
	assert.InDelta(t, 0.001, res.PValue, 1e-9)
}

func TestANOVA_ListsEveryUndersizedGroup(t *testing.T) {
	groups := []Group{
		{Label: "sedan", Values: []float64{1, 2, 3}},
		{Label: "convertible", Values: []float64{4}},
		{Label: "wagon"},
	}

	_, err := ANOVA(groups)
	ide := requireInsufficient(t, err)
	assert.Equal(t, []string{"convertible", "wagon"}, ide.Groups)
}

func TestANOVA_NeedsTwoGroups(t *testing.T) {
	_, err := ANOVA([]Group{{Label: "only", Values: []float64{1, 2, 3}}})
	requireInsufficient(t, err)
}

func TestKruskalWallis(t *testing.T) {
	groups := []Group{
		{Label: "g1", Values: []float64{1, 2, 3}},
		{Label: "g2", Values: []float64{4, 5, 6}},
		{Label: "g3", Values: []float64{7, 8, 9}},
	}

	res, err := KruskalWallis(groups)
	require.NoError(t, err)

	assert.InDelta(t, 7.2, res.Statistic, 1e-9)
	assert.InDelta(t, math.Exp(-3.6), res.PValue, 1e-9)
}

func TestPearsonAndSpearman(t *testing.T) {
	x := numbers(1, 2, 3, 4, 5)
	y := numbers(2, 4, 5, 4, 5)

	p, err := Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.7745966692, p.Statistic, 1e-9)
	assert.InDelta(t, 0.124027, p.PValue, 1e-5)
	assert.Equal(t, []int{5}, p.GroupSizes)

	s, err := Spearman(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.7378647874, s.Statistic, 1e-9)
	assert.InDelta(t, 0.154619, s.PValue, 1e-5)
}

func TestPearson_ExcludesUndefinedPairwise(t *testing.T) {
	x := []car.Number{car.Defined(1), car.Undefined, car.Defined(2), car.Defined(3)}
	y := []car.Number{car.Defined(2), car.Defined(9), car.Undefined, car.Defined(6)}

	c, err := Pearson(x, y)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Dropped)
	assert.Equal(t, []int{2}, c.GroupSizes)
	assert.InDelta(t, 1.0, c.Statistic, 1e-12)
	assert.Equal(t, 1.0, c.PValue)
}

func TestCorrelation_InsufficientInputs(t *testing.T) {
	tests := []struct {
		name string
		x, y []car.Number
	}{
		{"all undefined", []car.Number{car.Undefined, car.Undefined, car.Undefined}, numbers(1, 2, 3)},
		{"single pair", numbers(1), numbers(2)},
		{"constant", numbers(4, 4, 4), numbers(1, 2, 3)},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, run := range []func(x, y []car.Number) (stats.Correlation, error){Pearson, Spearman} {
				c, err := run(tt.x, tt.y)
				requireInsufficient(t, err)
				assert.False(t, math.IsNaN(c.Statistic))
			}
		})
	}
}

func TestPearson_LengthMismatch(t *testing.T) {
	_, err := Pearson(numbers(1, 2), numbers(1, 2, 3))
	require.Error(t, err)
	assert.False(t, core.IsInsufficientData(err))
}

func TestDescribe(t *testing.T) {
	values := append(numbers(1, 2, 3, 4), car.Undefined)

	s, err := Describe(values)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1, s.Undefined)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3), s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)

	_, err = Describe([]car.Number{car.Undefined})
	requireInsufficient(t, err)
}

func TestGroupSummaries_SortedByMeanDescending(t *testing.T) {
	summaries := GroupSummaries(Groups(map[string][]float64{
		"hatchback":   {8, 10},
		"convertible": {30, 40, 20},
		"sedan":       {15},
		"wagon":       {},
	}))

	require.Len(t, summaries, 3)
	assert.Equal(t, "convertible", summaries[0].Group)
	assert.Equal(t, 3, summaries[0].Count)
	assert.Equal(t, 30.0, summaries[0].Median)
	assert.Equal(t, "sedan", summaries[1].Group)
	assert.Equal(t, "hatchback", summaries[2].Group)
	assert.Equal(t, 8.0, summaries[2].Min)
	assert.Equal(t, 10.0, summaries[2].Max)
}

func TestQuantile(t *testing.T) {
	data := []float64{5, 1, 4, 2, 3}

	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.99, 4.96},
		{1, 5},
	}
	for _, tt := range tests {
		got, err := Quantile(data, tt.q)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "q=%v", tt.q)
	}

	_, err := Quantile(nil, 0.5)
	requireInsufficient(t, err)
	_, err = Quantile(data, 1.5)
	assert.Error(t, err)
}

func TestRanks_AveragesTies(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 4.5, 2.5, 4.5}, Ranks([]float64{2, 4, 5, 4, 5}))
}

func TestDeterministicResults(t *testing.T) {
	a := Group{Label: "a", Values: []float64{3.1, 2.7, 5.5, 4.2}}
	b := Group{Label: "b", Values: []float64{6.3, 7.1, 5.9}}

	first, err := WelchTTest(a, b)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := WelchTTest(a, b)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
