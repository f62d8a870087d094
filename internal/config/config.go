package config

import (
	"strings"

	"carprice/internal/errors"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Database DatabaseConfig
	Server   ServerConfig
	Admin    AdminConfig
	Analysis AnalysisConfig
	Session  SessionConfig
	LogLevel string
}

// DataConfig holds dataset source settings
type DataConfig struct {
	Source string // "file" or "postgres"
	File   string
	Table  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AdminConfig holds the metrics/pprof listener settings
type AdminConfig struct {
	Port    string
	Enabled bool
}

// AnalysisConfig holds defaults shared by every dashboard page
type AnalysisConfig struct {
	SignificanceLevel float64
	PriceCapQuantile  float64
	HistogramBins     int
	DropDuplicates    bool
}

// SessionConfig holds the filter session cookie settings
type SessionConfig struct {
	CookieName string
	MaxAgeSecs int
}

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Load reads configuration from environment variables (and an optional
// CONFIG_FILE) and validates it. Call godotenv.Load first to pick up .env.
func Load() (*Config, error) {
	v := newViper()
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", file)
		}
	}
	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("DATA_SOURCE", SourceFile)
	v.SetDefault("DATA_FILE", "data/final/car_prices.csv")
	v.SetDefault("DATA_TABLE", "car_prices")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("ADMIN_PORT", "6060")
	v.SetDefault("ADMIN_ENABLED", true)
	v.SetDefault("SIGNIFICANCE_LEVEL", 0.05)
	v.SetDefault("PRICE_CAP_QUANTILE", 0.99)
	v.SetDefault("HISTOGRAM_BINS", 25)
	v.SetDefault("DROP_DUPLICATES", true)
	v.SetDefault("SESSION_COOKIE", "carprice_session")
	v.SetDefault("SESSION_MAX_AGE", 86400)
	v.SetDefault("LOG_LEVEL", "INFO")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		Data:     loadDataConfig(v),
		Database: loadDatabaseConfig(v),
		Server:   loadServerConfig(v),
		Admin:    loadAdminConfig(v),
		Analysis: loadAnalysisConfig(v),
		Session:  loadSessionConfig(v),
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDataConfig(v *viper.Viper) DataConfig {
	return DataConfig{
		Source: strings.ToLower(v.GetString("DATA_SOURCE")),
		File:   v.GetString("DATA_FILE"),
		Table:  v.GetString("DATA_TABLE"),
	}
}

func loadDatabaseConfig(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{URL: v.GetString("DATABASE_URL")}
}

func loadServerConfig(v *viper.Viper) ServerConfig {
	return ServerConfig{
		Port:    v.GetString("PORT"),
		GinMode: v.GetString("GIN_MODE"),
	}
}

func loadAdminConfig(v *viper.Viper) AdminConfig {
	return AdminConfig{
		Port:    v.GetString("ADMIN_PORT"),
		Enabled: v.GetBool("ADMIN_ENABLED"),
	}
}

func loadAnalysisConfig(v *viper.Viper) AnalysisConfig {
	return AnalysisConfig{
		SignificanceLevel: v.GetFloat64("SIGNIFICANCE_LEVEL"),
		PriceCapQuantile:  v.GetFloat64("PRICE_CAP_QUANTILE"),
		HistogramBins:     v.GetInt("HISTOGRAM_BINS"),
		DropDuplicates:    v.GetBool("DROP_DUPLICATES"),
	}
}

func loadSessionConfig(v *viper.Viper) SessionConfig {
	return SessionConfig{
		CookieName: v.GetString("SESSION_COOKIE"),
		MaxAgeSecs: v.GetInt("SESSION_MAX_AGE"),
	}
}

func validateConfig(config *Config) error {
	switch config.Data.Source {
	case SourceFile:
		if config.Data.File == "" {
			return errors.ConfigInvalid("DATA_FILE is required when DATA_SOURCE=file")
		}
	case SourcePostgres:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	default:
		return errors.ConfigInvalid("DATA_SOURCE must be file or postgres, got " + config.Data.Source)
	}
	if a := config.Analysis.SignificanceLevel; a <= 0 || a >= 1 {
		return errors.ConfigInvalid("SIGNIFICANCE_LEVEL must be in (0, 1)")
	}
	if q := config.Analysis.PriceCapQuantile; q <= 0 || q > 1 {
		return errors.ConfigInvalid("PRICE_CAP_QUANTILE must be in (0, 1]")
	}
	if config.Analysis.HistogramBins < 1 {
		return errors.ConfigInvalid("HISTOGRAM_BINS must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}
