// Package plotpng draws chart specifications as PNG images with gonum/plot.
package plotpng

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"carprice/domain/car"
	"carprice/internal"
	"carprice/internal/chart"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	barFill  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	fitColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Renderer renders chart specs to PNG at a fixed size.
type Renderer struct {
	width  vg.Length
	height vg.Length
	log    *internal.Logger
}

// NewRenderer creates a renderer producing images of the given size.
func NewRenderer(width, height vg.Length) *Renderer {
	return &Renderer{
		width:  width,
		height: height,
		log:    internal.DefaultLogger.Component("PlotPNG"),
	}
}

// DefaultRenderer renders 7x4 inch charts, the size used on the dashboard.
func DefaultRenderer() *Renderer {
	return NewRenderer(7*vg.Inch, 4*vg.Inch)
}

// ContentType is the MIME type of rendered images.
func (r *Renderer) ContentType() string { return "image/png" }

// Render draws spec and writes the PNG to w.
func (r *Renderer) Render(w io.Writer, spec chart.Spec) error {
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel

	var err error
	switch spec.Kind {
	case chart.KindHistogram:
		err = addHistogram(p, spec)
	case chart.KindBox:
		err = addBoxes(p, spec)
	case chart.KindScatter:
		err = addScatter(p, spec)
	case chart.KindBubble:
		err = addBubbles(p, spec)
	case chart.KindBar:
		err = addBars(p, spec)
	case chart.KindHeatmap:
		err = addHeatmap(p, spec)
	default:
		return fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}

	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	n, err := wt.WriteTo(w)
	if err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	r.log.Debug("Rendered %s chart %q (%d bytes)", spec.Kind, spec.Title, n)
	return nil
}

func addHistogram(p *plot.Plot, spec chart.Spec) error {
	if len(spec.Bins) == 0 {
		return fmt.Errorf("histogram has no bins")
	}
	bins := make([]plotter.HistogramBin, len(spec.Bins))
	for i, b := range spec.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Lo, Max: b.Hi, Weight: float64(b.Count)}
	}
	p.Add(&plotter.Histogram{
		Bins:      bins,
		Width:     spec.Bins[0].Hi - spec.Bins[0].Lo,
		FillColor: barFill,
		LineStyle: plotter.DefaultLineStyle,
	})
	return nil
}

func addBoxes(p *plot.Plot, spec chart.Spec) error {
	names := make([]string, len(spec.Boxes))
	for i, b := range spec.Boxes {
		bp, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(b.Values))
		if err != nil {
			return fmt.Errorf("box %s: %w", b.Group, err)
		}
		bp.FillColor = plotutil.Color(i)
		p.Add(bp)
		names[i] = b.Group
	}
	p.NominalX(names...)
	return nil
}

func xys(points []chart.Point) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, pt := range points {
		out[i].X, out[i].Y = pt.X, pt.Y
	}
	return out
}

func addScatter(p *plot.Plot, spec chart.Spec) error {
	s, err := plotter.NewScatter(xys(spec.Points))
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = barFill
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s, plotter.NewGrid())

	if fit := spec.Fit; fit != nil {
		line := plotter.NewFunction(func(x float64) float64 { return fit.Intercept + fit.Slope*x })
		line.XMin, line.XMax = fit.XMin, fit.XMax
		line.Color = fitColor
		line.Width = vg.Points(2)
		p.Add(line)
	}
	return nil
}

func addBubbles(p *plot.Plot, spec chart.Spec) error {
	s, err := plotter.NewScatter(xys(spec.Points))
	if err != nil {
		return err
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c := barFill
		c.A = 128
		return draw.GlyphStyle{
			Color:  c,
			Radius: vg.Points(3 + 9*spec.Points[i].Size),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(s, plotter.NewGrid())
	return nil
}

func addBars(p *plot.Plot, spec chart.Spec) error {
	values := make(plotter.Values, len(spec.Bars))
	labels := make([]string, len(spec.Bars))
	for i, b := range spec.Bars {
		values[i] = b.Value
		labels[i] = b.Label
	}
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = barFill
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	return nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Column c and row
// r both index the field list.
type corrGrid struct {
	values [][]car.Number
}

func (g corrGrid) Dims() (c, r int) { return len(g.values), len(g.values) }

func (g corrGrid) Z(c, r int) float64 {
	if v, ok := g.values[r][c].Float(); ok {
		return v
	}
	return math.NaN()
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }
func (g corrGrid) Min() float64    { return -1 }
func (g corrGrid) Max() float64    { return 1 }

func addHeatmap(p *plot.Plot, spec chart.Spec) error {
	hm := spec.Heatmap
	if hm == nil || len(hm.Values) == 0 {
		return fmt.Errorf("heatmap has no cells")
	}
	for i, row := range hm.Values {
		if len(row) != len(hm.Values) {
			return fmt.Errorf("heatmap row %d has %d cells, want %d", i, len(row), len(hm.Values))
		}
	}
	h := plotter.NewHeatMap(corrGrid{values: hm.Values}, palette.Radial(11, palette.Blue, palette.Red, 1))
	h.NaN = color.White
	p.Add(h)
	p.NominalX(hm.Labels...)
	p.NominalY(hm.Labels...)
	return nil
}
