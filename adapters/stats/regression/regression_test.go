package regression

import (
	"errors"
	"testing"

	"carprice/domain/car"
	"carprice/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds price = 1 + 2*curbweight - 3*horsepower + 0.5*boreratio + noise
// over ten cars; the fifth car has no horsepower.
func fixture() []car.Record {
	x1 := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	x2 := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	x3 := []float64{2, 7, 1, 8, 2, 8, 1, 8, 2, 8}
	noise := []float64{0.3, -0.2, 0.1, -0.4, 0.2, 0.0, -0.1, 0.3, -0.3, 0.1}

	records := make([]car.Record, len(x1))
	for i := range x1 {
		hp := car.Defined(x2[i])
		if i == 4 {
			hp = car.Undefined
		}
		records[i] = car.NewRecord(i, nil, map[car.Field]car.Number{
			car.FieldCurbWeight: car.Defined(x1[i]),
			car.FieldHorsepower: hp,
			car.FieldBoreRatio:  car.Defined(x3[i]),
			car.FieldPrice:      car.Defined(1 + 2*x1[i] - 3*x2[i] + 0.5*x3[i] + noise[i]),
		})
	}
	return records
}

var predictors = []car.Field{car.FieldCurbWeight, car.FieldHorsepower, car.FieldBoreRatio}

func TestFit_DropsUndefinedRows(t *testing.T) {
	res, err := Fit(fixture(), car.FieldPrice, predictors)
	require.NoError(t, err)

	assert.Equal(t, 9, res.RowsUsed)
	assert.Equal(t, 1, res.RowsDropped)
	assert.Equal(t, 5, res.ResidualDF)
}

func TestFit_Coefficients(t *testing.T) {
	res, err := Fit(fixture(), car.FieldPrice, predictors)
	require.NoError(t, err)

	assert.InDelta(t, 0.9299618287, res.Intercept, 1e-6)

	want := map[car.Field]struct{ value, standardized float64 }{
		car.FieldCurbWeight: {1.9861682633, 0.7701435487},
		car.FieldHorsepower: {-2.9579843949, -0.9256763784},
		car.FieldBoreRatio:  {0.4931866623, 0.2000753643},
	}
	for f, w := range want {
		c, ok := res.Coefficient(f)
		require.True(t, ok, "coefficient for %s", f)
		assert.InDelta(t, w.value, c.Value, 1e-6, "%s value", f)
		assert.InDelta(t, w.standardized, c.Standardized, 1e-6, "%s standardized", f)
		assert.True(t, c.StdErr.IsDefined())
		assert.True(t, c.TStat.IsDefined())
		p, ok := c.PValue.Float()
		require.True(t, ok)
		assert.True(t, p >= 0 && p <= 1)
	}

	assert.InDelta(t, 0.9992486735, res.RSquared, 1e-6)
	assert.InDelta(t, 0.2136643515, res.RMSE, 1e-6)
}

func TestFit_RanksByAbsoluteStandardizedCoefficient(t *testing.T) {
	res, err := Fit(fixture(), car.FieldPrice, predictors)
	require.NoError(t, err)

	assert.Equal(t, []car.Field{car.FieldHorsepower, car.FieldCurbWeight, car.FieldBoreRatio}, res.Ranking)
	c, _ := res.Coefficient(car.FieldHorsepower)
	assert.Equal(t, 1, c.Rank)
	c, _ = res.Coefficient(car.FieldBoreRatio)
	assert.Equal(t, 3, c.Rank)
}

func TestFit_TooFewRows(t *testing.T) {
	_, err := Fit(fixture()[:3], car.FieldPrice, predictors)
	require.Error(t, err)

	var ide *core.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 4, ide.MinSize)
}

func TestFit_ZeroResidualDegreesOfFreedom(t *testing.T) {
	records := fixture()[:4]
	res, err := Fit(records, car.FieldPrice, predictors[:2])
	require.NoError(t, err)

	assert.Equal(t, 4, res.RowsUsed)
	assert.Equal(t, 1, res.ResidualDF)

	res, err = Fit(fixture()[:3], car.FieldPrice, predictors[:2])
	require.NoError(t, err)
	assert.Equal(t, 0, res.ResidualDF)
	for _, c := range res.Coefficients {
		assert.False(t, c.StdErr.IsDefined())
		assert.False(t, c.TStat.IsDefined())
		assert.False(t, c.PValue.IsDefined())
	}
}

func TestFit_CollinearPredictors(t *testing.T) {
	records := make([]car.Record, 6)
	for i := range records {
		x := float64(i + 1)
		records[i] = car.NewRecord(i, nil, map[car.Field]car.Number{
			car.FieldCityMPG:    car.Defined(x),
			car.FieldHighwayMPG: car.Defined(2 * x),
			car.FieldPrice:      car.Defined(3*x + float64(i%2)),
		})
	}

	_, err := Fit(records, car.FieldPrice, []car.Field{car.FieldCityMPG, car.FieldHighwayMPG})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCollinear))
	assert.True(t, core.IsRecoverable(err))
}

func TestFit_RejectsCategoricalPredictor(t *testing.T) {
	_, err := Fit(fixture(), car.FieldPrice, []car.Field{car.FieldCarBody})
	assert.Error(t, err)

	_, err = Fit(fixture(), car.FieldPrice, []car.Field{"wingspan"})
	assert.True(t, errors.Is(err, core.ErrUnknownField))
}

func TestPredict(t *testing.T) {
	res, err := Fit(fixture(), car.FieldPrice, predictors)
	require.NoError(t, err)

	got, err := Predict(res, map[car.Field]float64{
		car.FieldCurbWeight: 3,
		car.FieldHorsepower: 4,
		car.FieldBoreRatio:  1,
	})
	require.NoError(t, err)

	want := res.Intercept
	for _, c := range res.Coefficients {
		switch c.Feature {
		case car.FieldCurbWeight:
			want += 3 * c.Value
		case car.FieldHorsepower:
			want += 4 * c.Value
		case car.FieldBoreRatio:
			want += c.Value
		}
	}
	assert.InDelta(t, want, got, 1e-9)
	assert.InDelta(t, 1+6-12+0.5, got, 0.5)

	_, err = Predict(res, map[car.Field]float64{car.FieldCurbWeight: 3})
	assert.Error(t, err)
}
