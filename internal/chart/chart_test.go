package chart

import (
	"testing"

	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(body string, values ...float64) []car.Record {
	out := make([]car.Record, len(values))
	for i, v := range values {
		out[i] = car.NewRecord(i,
			map[car.Field]string{car.FieldCarBody: body},
			map[car.Field]car.Number{
				car.FieldPrice:      car.Defined(v),
				car.FieldAvgMPG:     car.Defined(float64(i + 1)),
				car.FieldEngineSize: car.Defined(100 + 10*float64(i)),
			})
	}
	return out
}

func TestHistogram(t *testing.T) {
	spec, err := Histogram("Price", priced("sedan", 1, 2, 3, 4, 5), car.FieldPrice, 2)
	require.NoError(t, err)

	assert.Equal(t, KindHistogram, spec.Kind)
	assert.Equal(t, "Price", spec.XLabel)
	require.Len(t, spec.Bins, 2)
	assert.Equal(t, Bin{Lo: 1, Hi: 3, Count: 2}, spec.Bins[0])
	assert.Equal(t, Bin{Lo: 3, Hi: 5, Count: 3}, spec.Bins[1])
}

func TestHistogram_EdgeCases(t *testing.T) {
	spec, err := Histogram("flat", priced("sedan", 7, 7, 7), car.FieldPrice, 25)
	require.NoError(t, err)
	assert.Equal(t, []Bin{{Lo: 7, Hi: 7, Count: 3}}, spec.Bins)

	_, err = Histogram("empty", nil, car.FieldPrice, 25)
	assert.True(t, core.IsInsufficientData(err))

	_, err = Histogram("bad", priced("sedan", 1), car.FieldPrice, 0)
	assert.Error(t, err)
}

func TestBoxPlot(t *testing.T) {
	records := append(priced("sedan", 1, 2, 3, 4, 100), priced("wagon", 10, 20)...)

	spec, err := BoxPlot("Price by body", records, car.FieldCarBody, car.FieldPrice)
	require.NoError(t, err)
	require.Len(t, spec.Boxes, 2)

	sedan := spec.Boxes[0]
	assert.Equal(t, "sedan", sedan.Group)
	assert.Equal(t, 5, sedan.Count)
	assert.Equal(t, 2.0, sedan.Q1)
	assert.Equal(t, 3.0, sedan.Median)
	assert.Equal(t, 4.0, sedan.Q3)
	assert.Equal(t, 1.0, sedan.LowWhisker)
	assert.Equal(t, 4.0, sedan.HighWhisker)
	assert.Equal(t, []float64{100}, sedan.Outliers)

	assert.Equal(t, "wagon", spec.Boxes[1].Group)

	_, err = BoxPlot("none", nil, car.FieldCarBody, car.FieldPrice)
	assert.True(t, core.IsInsufficientData(err))
}

func TestScatter_WithFit(t *testing.T) {
	var records []car.Record
	for i := 0; i < 5; i++ {
		x := float64(i)
		records = append(records, car.NewRecord(i, nil, map[car.Field]car.Number{
			car.FieldAvgMPG: car.Defined(x),
			car.FieldPrice:  car.Defined(1 + 2*x),
		}))
	}
	records = append(records, car.NewRecord(5, nil, map[car.Field]car.Number{car.FieldAvgMPG: car.Defined(9)}))

	spec, err := Scatter("fit", records, car.FieldAvgMPG, car.FieldPrice, true)
	require.NoError(t, err)
	assert.Len(t, spec.Points, 5)
	require.NotNil(t, spec.Fit)
	assert.InDelta(t, 1.0, spec.Fit.Intercept, 1e-12)
	assert.InDelta(t, 2.0, spec.Fit.Slope, 1e-12)
	assert.Equal(t, 0.0, spec.Fit.XMin)
	assert.Equal(t, 4.0, spec.Fit.XMax)
}

func TestScatter_NoFitForConstantX(t *testing.T) {
	records := []car.Record{
		car.NewRecord(0, nil, map[car.Field]car.Number{car.FieldAvgMPG: car.Defined(3), car.FieldPrice: car.Defined(1)}),
		car.NewRecord(1, nil, map[car.Field]car.Number{car.FieldAvgMPG: car.Defined(3), car.FieldPrice: car.Defined(2)}),
	}
	spec, err := Scatter("flat", records, car.FieldAvgMPG, car.FieldPrice, true)
	require.NoError(t, err)
	assert.Nil(t, spec.Fit)
}

func TestBubble_NormalizesSize(t *testing.T) {
	spec, err := Bubble("bubble", priced("sedan", 5, 6, 7), car.FieldAvgMPG, car.FieldPrice, car.FieldEngineSize)
	require.NoError(t, err)
	require.Len(t, spec.Points, 3)
	assert.Equal(t, 0.0, spec.Points[0].Size)
	assert.Equal(t, 0.5, spec.Points[1].Size)
	assert.Equal(t, 1.0, spec.Points[2].Size)
}

func TestBarOfMeansAndHeatmap(t *testing.T) {
	bar := BarOfMeans("means", car.FieldDriveWheel, []stats.GroupSummary{
		{Group: "rwd", Mean: 20000},
		{Group: "fwd", Mean: 9000},
	})
	assert.Equal(t, []Bar{{Label: "rwd", Value: 20000}, {Label: "fwd", Value: 9000}}, bar.Bars)
	assert.Equal(t, "Drive Wheel Type", bar.XLabel)

	hm := CorrelationHeatmap("corr", stats.CorrelationMatrix{
		Fields: []car.Field{car.FieldAvgMPG, car.FieldPrice},
		Values: [][]car.Number{{car.Defined(1), car.Defined(-0.7)}, {car.Defined(-0.7), car.Defined(1)}},
	})
	require.NotNil(t, hm.Heatmap)
	assert.Equal(t, []string{"avg_mpg", "price"}, hm.Heatmap.Labels)
}
