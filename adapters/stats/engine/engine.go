// Package engine runs the descriptive statistics and hypothesis tests used
// by the dashboard pages. Every function is pure: the same input always
// yields the same result, and undersized input is reported as a
// *core.InsufficientDataError instead of a NaN.
package engine

import (
	"fmt"
	"math"
	"sort"

	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/stats"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// minGroupSize is the smallest sample a group comparison accepts.
const minGroupSize = 2

// Group is one labelled sample of a group comparison.
type Group struct {
	Label  string
	Values []float64
}

// Groups turns a label->values map into groups sorted by label.
func Groups(m map[string][]float64) []Group {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]Group, len(labels))
	for i, label := range labels {
		out[i] = Group{Label: label, Values: m[label]}
	}
	return out
}

// GroupsOf groups the defined values of value by the label in by.
func GroupsOf(records []car.Record, by, value car.Field) []Group {
	return Groups(car.GroupBy(records, by, value))
}

// checkGroups returns an error naming every group below the minimum size.
func checkGroups(test stats.TestType, groups ...Group) error {
	var short []string
	for _, g := range groups {
		if len(g.Values) < minGroupSize {
			short = append(short, g.Label)
		}
	}
	if len(short) > 0 {
		return core.NewInsufficientData(string(test), minGroupSize, short...)
	}
	return nil
}

func sizes(groups []Group) ([]int, []string) {
	n := make([]int, len(groups))
	labels := make([]string, len(groups))
	for i, g := range groups {
		n[i] = len(g.Values)
		labels[i] = g.Label
	}
	return n, labels
}

// Describe summarizes the defined values of a column.
func Describe(values []car.Number) (stats.Summary, error) {
	data := make([]float64, 0, len(values))
	for _, n := range values {
		if v, ok := n.Float(); ok {
			data = append(data, v)
		}
	}
	undefined := len(values) - len(data)
	if len(data) == 0 {
		return stats.Summary{}, &core.InsufficientDataError{
			Test:   "describe",
			Reason: "no defined values",
		}
	}

	summary := stats.Summary{Count: len(data), Undefined: undefined}
	var err error
	if summary.Mean, err = mstats.Mean(data); err != nil {
		return stats.Summary{}, fmt.Errorf("mean: %w", err)
	}
	if summary.Min, err = mstats.Min(data); err != nil {
		return stats.Summary{}, fmt.Errorf("min: %w", err)
	}
	if summary.Max, err = mstats.Max(data); err != nil {
		return stats.Summary{}, fmt.Errorf("max: %w", err)
	}
	if summary.Median, err = mstats.Median(data); err != nil {
		return stats.Summary{}, fmt.Errorf("median: %w", err)
	}
	if len(data) > 1 {
		if summary.StdDev, err = mstats.StandardDeviationSample(data); err != nil {
			return stats.Summary{}, fmt.Errorf("std dev: %w", err)
		}
	}
	summary.Q25, _ = Quantile(data, 0.25)
	summary.Q75, _ = Quantile(data, 0.75)
	return summary, nil
}

// GroupSummaries returns count, mean, median, min and max per group, sorted
// by mean descending (label ascending on ties). Empty groups are omitted.
func GroupSummaries(groups []Group) []stats.GroupSummary {
	out := make([]stats.GroupSummary, 0, len(groups))
	for _, g := range groups {
		if len(g.Values) == 0 {
			continue
		}
		mean, _ := mstats.Mean(g.Values)
		median, _ := mstats.Median(g.Values)
		lo, _ := mstats.Min(g.Values)
		hi, _ := mstats.Max(g.Values)
		out = append(out, stats.GroupSummary{
			Group:  g.Label,
			Count:  len(g.Values),
			Mean:   mean,
			Median: median,
			Min:    lo,
			Max:    hi,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		return out[i].Group < out[j].Group
	})
	return out
}

// Mean returns the mean of data, or Undefined when data is empty.
func Mean(data []float64) car.Number {
	if len(data) == 0 {
		return car.Undefined
	}
	return car.Defined(stat.Mean(data, nil))
}

// Quantile returns the q-th quantile of data using linear interpolation
// between closest ranks, the convention of most dataframe libraries.
func Quantile(data []float64, q float64) (float64, error) {
	if len(data) == 0 {
		return 0, &core.InsufficientDataError{Test: "quantile", Reason: "no defined values"}
	}
	if q < 0 || q > 1 || math.IsNaN(q) {
		return 0, fmt.Errorf("quantile %g outside [0, 1]", q)
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1], nil
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i]), nil
}

// Ranks converts values to 1-based ranks, averaging ties.
func Ranks(data []float64) []float64 {
	n := len(data)
	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, v := range data {
		pairs[i] = pair{value: v, index: i}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		avg := float64(i+1) + float64(j-i-1)/2
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avg
		}
		i = j
	}
	return ranks
}

// tieTerm returns the sum of t^3 - t over every group of tied values.
func tieTerm(data []float64) float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	sum := 0.0
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		t := float64(j - i)
		sum += t*t*t - t
		i = j
	}
	return sum
}
