// Package chart builds chart specifications from filtered car data. A spec
// is plain data: rendering to pixels happens in adapters/plotpng or in the
// browser.
package chart

import (
	"fmt"
	"math"

	"carprice/adapters/stats/engine"
	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/stats"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	gstat "gonum.org/v1/gonum/stat"
)

// Kind selects how a spec is drawn.
type Kind string

const (
	KindHistogram Kind = "histogram"
	KindBox       Kind = "box"
	KindScatter   Kind = "scatter"
	KindBar       Kind = "bar"
	KindHeatmap   Kind = "heatmap"
	KindBubble    Kind = "bubble"
)

// Spec describes one chart. Only the fields for its Kind are set.
type Spec struct {
	Kind   Kind   `json:"kind"`
	Title  string `json:"title"`
	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`

	Bins    []Bin    `json:"bins,omitempty"`
	Boxes   []Box    `json:"boxes,omitempty"`
	Points  []Point  `json:"points,omitempty"`
	Fit     *Line    `json:"fit,omitempty"`
	Bars    []Bar    `json:"bars,omitempty"`
	Heatmap *Heatmap `json:"heatmap,omitempty"`
}

// Bin is a histogram bucket [Lo, Hi). The last bucket is closed.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Box is a Tukey box for one group. Whiskers reach the furthest value within
// 1.5 IQR of the box.
type Box struct {
	Group       string    `json:"group"`
	Count       int       `json:"count"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	LowWhisker  float64   `json:"low_whisker"`
	HighWhisker float64   `json:"high_whisker"`
	Outliers    []float64 `json:"outliers,omitempty"`
	Values      []float64 `json:"-"`
}

// Point is one scatter or bubble mark. Size is normalized to [0, 1].
type Point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size,omitempty"`
	ID   int     `json:"id"`
}

// Line is a least squares fit y = Intercept + Slope*x drawn over [XMin, XMax].
type Line struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	XMin      float64 `json:"x_min"`
	XMax      float64 `json:"x_max"`
}

// Bar is one labelled bar.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Heatmap is a labelled square matrix. Undefined cells are left blank.
type Heatmap struct {
	Labels []string       `json:"labels"`
	Values [][]car.Number `json:"values"`
}

func insufficient(chart string, reason string) error {
	return &core.InsufficientDataError{Test: chart, Reason: reason}
}

// Histogram buckets the defined values of f into equal-width bins spanning
// the observed range.
func Histogram(title string, records []car.Record, f car.Field, bins int) (Spec, error) {
	if bins < 1 {
		return Spec{}, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}
	values := car.DefinedValues(records, f)
	if len(values) == 0 {
		return Spec{}, insufficient("histogram", fmt.Sprintf("no defined %s values", f))
	}

	lo, hi := floats.Min(values), floats.Max(values)
	spec := Spec{Kind: KindHistogram, Title: title, XLabel: car.Label(f), YLabel: "Number of Cars"}
	if lo == hi {
		spec.Bins = []Bin{{Lo: lo, Hi: hi, Count: len(values)}}
		return spec, nil
	}

	width := (hi - lo) / float64(bins)
	spec.Bins = make([]Bin, bins)
	for i := range spec.Bins {
		spec.Bins[i] = Bin{Lo: lo + float64(i)*width, Hi: lo + float64(i+1)*width}
	}
	spec.Bins[bins-1].Hi = hi
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		spec.Bins[i].Count++
	}
	return spec, nil
}

// BoxPlot summarizes value per label of by, one box per group in label order.
func BoxPlot(title string, records []car.Record, by, value car.Field) (Spec, error) {
	groups := engine.GroupsOf(records, by, value)
	spec := Spec{Kind: KindBox, Title: title, XLabel: car.Label(by), YLabel: car.Label(value)}
	for _, g := range groups {
		if len(g.Values) == 0 {
			continue
		}
		b, err := box(g)
		if err != nil {
			return Spec{}, err
		}
		spec.Boxes = append(spec.Boxes, b)
	}
	if len(spec.Boxes) == 0 {
		return Spec{}, insufficient("box plot", fmt.Sprintf("no defined %s values in any %s group", value, by))
	}
	return spec, nil
}

func box(g engine.Group) (Box, error) {
	q1, err := engine.Quantile(g.Values, 0.25)
	if err != nil {
		return Box{}, err
	}
	q3, err := engine.Quantile(g.Values, 0.75)
	if err != nil {
		return Box{}, err
	}
	median, err := mstats.Median(g.Values)
	if err != nil {
		return Box{}, err
	}

	iqr := q3 - q1
	lowFence, highFence := q1-1.5*iqr, q3+1.5*iqr
	b := Box{
		Group:       g.Label,
		Count:       len(g.Values),
		Q1:          q1,
		Median:      median,
		Q3:          q3,
		LowWhisker:  math.Inf(1),
		HighWhisker: math.Inf(-1),
		Values:      append([]float64(nil), g.Values...),
	}
	for _, v := range g.Values {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		b.LowWhisker = math.Min(b.LowWhisker, v)
		b.HighWhisker = math.Max(b.HighWhisker, v)
	}
	return b, nil
}

// pairedPoints returns the rows where both x and y are defined.
func pairedPoints(records []car.Record, x, y car.Field) []Point {
	var points []Point
	for _, r := range records {
		xv, okX := r.Number(x).Float()
		yv, okY := r.Number(y).Float()
		if okX && okY {
			points = append(points, Point{X: xv, Y: yv, ID: r.ID()})
		}
	}
	return points
}

// Scatter plots y against x. When fit is set and x varies, a least squares
// line is attached.
func Scatter(title string, records []car.Record, x, y car.Field, fit bool) (Spec, error) {
	points := pairedPoints(records, x, y)
	if len(points) == 0 {
		return Spec{}, insufficient("scatter", fmt.Sprintf("no rows with both %s and %s defined", x, y))
	}
	spec := Spec{Kind: KindScatter, Title: title, XLabel: car.Label(x), YLabel: car.Label(y), Points: points}
	if fit {
		spec.Fit = fitLine(points)
	}
	return spec, nil
}

func fitLine(points []Point) *Line {
	if len(points) < 2 {
		return nil
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if lo == hi {
		return nil
	}
	alpha, beta := gstat.LinearRegression(xs, ys, nil, false)
	return &Line{Intercept: alpha, Slope: beta, XMin: lo, XMax: hi}
}

// Bubble plots y against x with each mark sized by size, min-max normalized.
// A constant size column gives every mark the middle size.
func Bubble(title string, records []car.Record, x, y, size car.Field) (Spec, error) {
	var points []Point
	var sizes []float64
	for _, r := range records {
		xv, okX := r.Number(x).Float()
		yv, okY := r.Number(y).Float()
		sv, okS := r.Number(size).Float()
		if okX && okY && okS {
			points = append(points, Point{X: xv, Y: yv, ID: r.ID()})
			sizes = append(sizes, sv)
		}
	}
	if len(points) == 0 {
		return Spec{}, insufficient("bubble", fmt.Sprintf("no rows with %s, %s and %s defined", x, y, size))
	}

	lo, hi := floats.Min(sizes), floats.Max(sizes)
	for i := range points {
		if hi == lo {
			points[i].Size = 0.5
			continue
		}
		points[i].Size = (sizes[i] - lo) / (hi - lo)
	}
	return Spec{
		Kind:   KindBubble,
		Title:  title,
		XLabel: car.Label(x),
		YLabel: car.Label(y),
		Points: points,
	}, nil
}

// BarOfMeans draws one bar per group summary, in the summaries' order.
func BarOfMeans(title string, by car.Field, summaries []stats.GroupSummary) Spec {
	spec := Spec{Kind: KindBar, Title: title, XLabel: car.Label(by), YLabel: "Average Price"}
	for _, s := range summaries {
		spec.Bars = append(spec.Bars, Bar{Label: s.Group, Value: s.Mean})
	}
	return spec
}

// CorrelationHeatmap lays out a correlation matrix with field labels.
func CorrelationHeatmap(title string, m stats.CorrelationMatrix) Spec {
	labels := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		labels[i] = string(f)
	}
	return Spec{
		Kind:    KindHeatmap,
		Title:   title,
		Heatmap: &Heatmap{Labels: labels, Values: m.Values},
	}
}
