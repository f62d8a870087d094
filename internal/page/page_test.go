package page

import (
	"strings"
	"testing"

	"carprice/adapters/stats/regression"
	"carprice/domain/car"
	"carprice/domain/filter"
	"carprice/domain/stats"
	"carprice/internal/chart"
	"carprice/internal/config"
	"carprice/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analysis = config.AnalysisConfig{SignificanceLevel: 0.05, PriceCapQuantile: 0.99, HistogramBins: 25}

// fixture builds 24 cleaned cars: every fourth is diesel, every third is
// rear wheel drive and body styles rotate sedan, hatchback, wagon.
func fixture() []car.Record {
	bodies := []string{"sedan", "hatchback", "wagon"}
	out := make([]car.Record, 0, 24)
	for i := 0; i < 24; i++ {
		fuel, drive := "petrol", "fwd"
		if i%4 == 0 {
			fuel = "diesel"
		}
		if i%3 == 0 {
			drive = "rwd"
		}
		hp := 60 + float64((i*37)%90)
		curb := 1800 + float64((i*53)%1200)
		wheel := 90 + float64((i*7)%15)
		city := 15 + float64((i*11)%25)
		price := 5000 + 40*hp + 2*curb + 100*wheel - 50*city + float64((i*29)%17)*100

		rec := car.NewRecord(i,
			map[car.Field]string{
				car.FieldManufacturer: "toyota",
				car.FieldFuelType:     fuel,
				car.FieldCarBody:      bodies[i%3],
				car.FieldDriveWheel:   drive,
			},
			map[car.Field]car.Number{
				car.FieldHorsepower: car.Defined(hp),
				car.FieldCurbWeight: car.Defined(curb),
				car.FieldWheelbase:  car.Defined(wheel),
				car.FieldCityMPG:    car.Defined(city),
				car.FieldHighwayMPG: car.Defined(city + 6),
				car.FieldEngineSize: car.Defined(90 + float64(i*5)),
				car.FieldBoreRatio:  car.Defined(3 + float64(i%5)/10),
				car.FieldPrice:      car.Defined(price),
			})
		out = append(out, dataset.Derive(rec))
	}
	return out
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	narratives, err := LoadNarratives()
	require.NoError(t, err)
	return NewRenderer(narratives)
}

func TestRender_EmptySubsetSkipsAnalysis(t *testing.T) {
	petrolOnly := filter.Apply(filter.Criteria{car.FieldFuelType: filter.In("petrol")}, fixture()).Records
	require.NotEmpty(t, petrolOnly)

	r := newRenderer(t)
	ctx := Context{Records: petrolOnly, Criteria: filter.Criteria{car.FieldFuelType: filter.In("diesel")}}

	for _, p := range []Page{Overview{Bins: 25}, DriveWheel{Alpha: 0.05}, BodyType{Alpha: 0.05}, FuelEfficiency{Alpha: 0.05}} {
		t.Run(string(p.ID()), func(t *testing.T) {
			v, err := r.Render(ctx, p)
			require.NoError(t, err)
			assert.Equal(t, StatusNoData, v.Status)
			assert.Equal(t, []string{NoDataMessage}, v.Notices)
			assert.Zero(t, v.Rows)
			assert.Equal(t, len(petrolOnly), v.TotalRows)
			assert.Empty(t, v.Tests)
			assert.Empty(t, v.Charts)
			assert.Empty(t, v.Metrics)
		})
	}
	assert.Zero(t, r.Analyses(), "no analysis may run on an empty subset")
}

func TestRender_FuelTypeIgnoresFuelFilterAndReportsMissingGroup(t *testing.T) {
	petrolOnly := filter.Apply(filter.Criteria{car.FieldFuelType: filter.In("petrol")}, fixture()).Records

	r := newRenderer(t)
	v, err := r.Render(Context{
		Records:  petrolOnly,
		Criteria: filter.Criteria{car.FieldFuelType: filter.In("diesel")},
	}, FuelType{Alpha: 0.05})
	require.NoError(t, err)

	assert.Equal(t, []car.Field{car.FieldFuelType}, v.Ignored)
	assert.Equal(t, len(petrolOnly), v.Rows)
	assert.Equal(t, StatusInsufficient, v.Status)
	require.Len(t, v.Notices, 2)
	for _, n := range v.Notices {
		assert.Contains(t, n, "diesel")
	}
	assert.Empty(t, v.Tests)
	assert.Len(t, v.Correlations, 2)
	assert.Empty(t, v.Verdict)
	assert.Equal(t, int64(1), r.Analyses())
}

func TestRender_Overview(t *testing.T) {
	records := fixture()
	v, err := newRenderer(t).Render(Context{Records: records}, Overview{Bins: 25})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, v.Status)
	assert.Equal(t, "Western Car Price System Analysis", v.Title)
	assert.Equal(t, "no filters", v.Filter)
	require.Len(t, v.Metrics, 4)
	assert.Equal(t, "Average Price", v.Metrics[0].Label)
	assert.True(t, v.Metrics[3].Value.IsDefined())

	require.NotNil(t, v.PriceSummary)
	assert.Equal(t, len(records), v.PriceSummary.Count)
	mean, ok := v.Metrics[0].Value.Float()
	require.True(t, ok)
	assert.InDelta(t, mean, v.PriceSummary.Mean, 1e-9)
	assert.LessOrEqual(t, v.PriceSummary.Q25, v.PriceSummary.Median)
	assert.LessOrEqual(t, v.PriceSummary.Median, v.PriceSummary.Q75)

	require.Len(t, v.Charts, 1)
	assert.Equal(t, chart.KindHistogram, v.Charts[0].Kind)
	assert.Len(t, v.Charts[0].Bins, 25)

	require.NotNil(t, v.Table)
	assert.Len(t, v.Table.Rows, len(records))
	assert.Equal(t, "toyota", v.Table.Rows[0][0])
}

func TestRender_FuelType(t *testing.T) {
	v, err := newRenderer(t).Render(Context{Records: fixture()}, FuelType{Alpha: 0.05})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, v.Status)
	assert.Empty(t, v.Ignored)
	require.Len(t, v.Tests, 2)
	assert.Equal(t, stats.TestTTest, v.Tests[0].Test)
	assert.Equal(t, stats.TestMannWhitney, v.Tests[1].Test)
	assert.Equal(t, []int{6, 18}, v.Tests[0].GroupSizes)
	assert.Len(t, v.Correlations, 2)
	require.Len(t, v.Metrics, 3)
	assert.True(t, v.Metrics[1].Delta.IsDefined())
	assert.NotEmpty(t, v.Verdict)
	assert.Len(t, v.Charts, 2)
}

func TestRender_FuelEfficiency(t *testing.T) {
	records := fixture()
	v, err := newRenderer(t).Render(Context{Records: records}, FuelEfficiency{Alpha: 0.05})
	require.NoError(t, err)

	require.Len(t, v.Tests, 2)
	sizes := v.Tests[0].GroupSizes
	assert.Equal(t, len(records), sizes[0]+sizes[1])

	kinds := make([]chart.Kind, len(v.Charts))
	for i, c := range v.Charts {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []chart.Kind{chart.KindBar, chart.KindScatter, chart.KindHeatmap, chart.KindBubble}, kinds)
	assert.NotNil(t, v.Charts[1].Fit)
}

func TestEfficiencyGroups_MedianGoesLow(t *testing.T) {
	records := make([]car.Record, 0, 5)
	for i, mpg := range []float64{10, 20, 30, 40, 50} {
		records = append(records, car.NewRecord(i, nil, map[car.Field]car.Number{
			car.FieldAvgMPG: car.Defined(mpg),
			car.FieldPrice:  car.Defined(mpg * 100),
		}))
	}
	high, low, median, err := efficiencyGroups(records)
	require.NoError(t, err)
	assert.Equal(t, 30.0, median)
	assert.Equal(t, []float64{1000, 2000, 3000}, low.Values)
	assert.Equal(t, []float64{4000, 5000}, high.Values)
}

func TestRender_BodyType(t *testing.T) {
	v, err := newRenderer(t).Render(Context{Records: fixture()}, BodyType{Alpha: 0.05})
	require.NoError(t, err)

	require.Len(t, v.Summaries, 3)
	for i := 1; i < len(v.Summaries); i++ {
		assert.GreaterOrEqual(t, v.Summaries[i-1].Mean, v.Summaries[i].Mean)
	}
	require.Len(t, v.Tests, 1)
	assert.Equal(t, stats.TestANOVA, v.Tests[0].Test)
	assert.Len(t, v.Charts, 2)
}

func TestRender_DriveWheel(t *testing.T) {
	v, err := newRenderer(t).Render(Context{
		Records:  fixture(),
		Criteria: filter.Criteria{car.FieldCarBody: filter.In("sedan", "wagon")},
	}, DriveWheel{Alpha: 0.05})
	require.NoError(t, err)

	assert.Equal(t, 16, v.Rows)
	require.Len(t, v.Tests, 1)
	assert.Equal(t, stats.TestTTest, v.Tests[0].Test)
	assert.Equal(t, []string{"fwd", "rwd"}, v.Tests[0].Groups)
}

func TestRender_FeatureSignificanceUsesFullData(t *testing.T) {
	records := fixture()
	v, err := newRenderer(t).Render(Context{
		Records:  records,
		Criteria: filter.Criteria{car.FieldFuelType: filter.In("diesel")},
	}, FeatureSignificance{
		Alpha:       0.05,
		CapQuantile: 1,
		Continuous:  ScreenedContinuous,
		Categorical: ScreenedCategorical,
	})
	require.NoError(t, err)

	assert.Equal(t, []car.Field{car.FieldFuelType}, v.Ignored)
	assert.Equal(t, len(records), v.Rows)
	require.NotNil(t, v.Features)
	assert.NotEmpty(t, v.Features.Continuous)
	var tested []car.Field
	for _, f := range v.Features.Categorical {
		tested = append(tested, f.Feature)
	}
	assert.ElementsMatch(t, []car.Field{car.FieldFuelType, car.FieldCarBody, car.FieldDriveWheel}, tested)
	assert.NotEmpty(t, v.Features.Skipped, "columns absent from the fixture are skipped")
	require.Len(t, v.Charts, 1)
	assert.Len(t, v.Charts[0].Bars, len(v.Features.Continuous))
	assert.NotEmpty(t, v.Verdict)
}

var modelPredictors = []car.Field{car.FieldHorsepower, car.FieldCurbWeight, car.FieldWheelbase}

func TestRender_PriceModel(t *testing.T) {
	records := fixture()
	v, err := newRenderer(t).Render(Context{Records: records}, PriceModel{CapQuantile: 1, Predictors: modelPredictors})
	require.NoError(t, err)

	require.NotNil(t, v.Model)
	assert.Equal(t, len(records), v.Model.RowsUsed)
	assert.Len(t, v.Model.Ranking, 3)
	require.Len(t, v.Charts, 2)
	assert.Len(t, v.Charts[0].Bars, 3)
	assert.Len(t, v.Charts[1].Points, len(records))
	assert.Empty(t, v.Verdict)
}

func TestRender_PriceModelTooFewRows(t *testing.T) {
	v, err := newRenderer(t).Render(Context{Records: fixture()[:3]}, PriceModel{CapQuantile: 1, Predictors: modelPredictors})
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficient, v.Status)
	assert.Nil(t, v.Model)
	require.NotEmpty(t, v.Notices)
}

func TestRenderer_Predict(t *testing.T) {
	r := newRenderer(t)
	inputs := map[car.Field]float64{car.FieldHorsepower: 100, car.FieldCurbWeight: 2400, car.FieldWheelbase: 95}

	price, model, err := r.Predict(Context{Records: fixture()}, PriceModel{CapQuantile: 1, Predictors: modelPredictors}, inputs)
	require.NoError(t, err)
	want, err := regression.Predict(model, inputs)
	require.NoError(t, err)
	assert.Equal(t, want, price)
	assert.Greater(t, price, 0.0)

	_, _, err = r.Predict(Context{Records: fixture()}, PriceModel{CapQuantile: 1, Predictors: modelPredictors}, nil)
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	pages := All(analysis)
	require.Len(t, pages, len(IDs()))
	for i, p := range pages {
		assert.Equal(t, IDs()[i], p.ID())
	}

	p, err := Lookup(IDPriceModel, analysis)
	require.NoError(t, err)
	assert.Equal(t, ModelPredictors, p.(PriceModel).Predictors)

	_, err = Lookup("h9", analysis)
	assert.ErrorContains(t, err, "not found")
}

func TestNarratives(t *testing.T) {
	n, err := LoadNarratives()
	require.NoError(t, err)
	assert.NotEmpty(t, n[IDDriveWheel].Verdict(true))
	assert.NotEqual(t, n[IDDriveWheel].Verdict(true), n[IDDriveWheel].Verdict(false))

	_, err = ParseNarratives([]byte("overview:\n  title: Only one\n"))
	assert.ErrorContains(t, err, "has no title")

	html := string(Markdown("**H1:** fuel type matters"))
	assert.True(t, strings.Contains(html, "<strong>H1:</strong>"), html)
	assert.Empty(t, Markdown(""))
}
