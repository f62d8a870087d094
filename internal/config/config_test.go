package config

import (
	"testing"

	"carprice/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, SourceFile, cfg.Data.Source)
	assert.Equal(t, "car_prices", cfg.Data.Table)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, AnalysisConfig{
		SignificanceLevel: 0.05,
		PriceCapQuantile:  0.99,
		HistogramBins:     25,
		DropDuplicates:    true,
	}, cfg.Analysis)
	assert.Equal(t, "carprice_session", cfg.Session.CookieName)
}

func TestFromViper_Validation(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
	}{
		{"unknown source", map[string]any{"DATA_SOURCE": "s3"}},
		{"postgres without url", map[string]any{"DATA_SOURCE": "postgres"}},
		{"file without path", map[string]any{"DATA_FILE": ""}},
		{"alpha out of range", map[string]any{"SIGNIFICANCE_LEVEL": 1.5}},
		{"cap quantile zero", map[string]any{"PRICE_CAP_QUANTILE": 0}},
		{"no bins", map[string]any{"HISTOGRAM_BINS": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := fromViper(v)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DATA_SOURCE", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://localhost/cars")
	t.Setenv("PRICE_CAP_QUANTILE", "0.95")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, cfg.Data.Source)
	assert.Equal(t, "postgres://localhost/cars", cfg.Database.URL)
	assert.Equal(t, 0.95, cfg.Analysis.PriceCapQuantile)
}
