// Package config loads planner configuration from config.yaml, .env and
// PLANNER_* environment variables.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/network-planner/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Planner  PlannerConfig  `yaml:"planner" mapstructure:"planner"`
	Dataset  DatasetConfig  `yaml:"dataset" mapstructure:"dataset"`
	Annotate AnnotateConfig `yaml:"annotate" mapstructure:"annotate"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Tracing  TracingConfig  `yaml:"tracing" mapstructure:"tracing"`
}

// PlannerConfig holds defaults applied to plan requests that omit a value.
type PlannerConfig struct {
	Seed                 int64   `yaml:"seed" mapstructure:"seed"`
	BudgetMaxKUSD        int     `yaml:"budget_max_k_usd" mapstructure:"budget_max_k_usd"`
	PriorityArea         string  `yaml:"priority_area" mapstructure:"priority_area"`
	SignalMinDBM         int     `yaml:"signal_min_dbm" mapstructure:"signal_min_dbm"`
	TerrainWeight        float64 `yaml:"terrain_weight" mapstructure:"terrain_weight"`
	CostWeight           float64 `yaml:"cost_weight" mapstructure:"cost_weight"`
	ClimateRiskWeight    float64 `yaml:"climate_risk_weight" mapstructure:"climate_risk_weight"`
	IncludeLocationNames bool    `yaml:"include_location_names" mapstructure:"include_location_names"`
}

// DatasetConfig selects an alternate region source. An empty Location means
// the seeded generator.
type DatasetConfig struct {
	Location  string `yaml:"location" mapstructure:"location"`
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// AnnotateConfig configures the location annotation stage.
type AnnotateConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	Sentinel    string `yaml:"sentinel" mapstructure:"sentinel"`
}

// GeocodeConfig configures the reverse geocoding providers.
type GeocodeConfig struct {
	Providers []string        `yaml:"providers" mapstructure:"providers"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Tiger     TigerConfig     `yaml:"tiger" mapstructure:"tiger"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Breaker   BreakerConfig   `yaml:"breaker" mapstructure:"breaker"`
}

// NominatimConfig holds OpenStreetMap Nominatim settings.
type NominatimConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GoogleConfig holds Google Geocoding API settings.
type GoogleConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// TigerConfig holds PostGIS TIGER geocoder settings.
type TigerConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the SQLite reverse geocode cache.
type CacheConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`
	TTLDays int    `yaml:"ttl_days" mapstructure:"ttl_days"`
}

// BreakerConfig configures the per-provider circuit breaker.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
	Exporter    string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("planner.seed", 42)
	v.SetDefault("planner.budget_max_k_usd", 10)
	v.SetDefault("planner.priority_area", "Rural")
	v.SetDefault("planner.signal_min_dbm", -80)
	v.SetDefault("planner.terrain_weight", 0.5)
	v.SetDefault("planner.cost_weight", 0.5)
	v.SetDefault("planner.climate_risk_weight", 0.5)
	v.SetDefault("planner.include_location_names", true)
	v.SetDefault("dataset.location", "")
	v.SetDefault("dataset.sheet_name", "")
	v.SetDefault("annotate.enabled", true)
	v.SetDefault("annotate.timeout_secs", 10)
	v.SetDefault("annotate.concurrency", 1)
	v.SetDefault("annotate.sentinel", "Unknown Location")
	v.SetDefault("geocode.providers", []string{"nominatim"})
	v.SetDefault("geocode.nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.nominatim.user_agent", "network-planner/1.0")
	v.SetDefault("geocode.nominatim.rate_limit", 1.0)
	v.SetDefault("geocode.google.key", "")
	v.SetDefault("geocode.google.rate_limit", 50.0)
	v.SetDefault("geocode.tiger.database_url", "")
	v.SetDefault("geocode.cache.path", "")
	v.SetDefault("geocode.cache.ttl_days", 30)
	v.SetDefault("geocode.breaker.failure_threshold", 5)
	v.SetDefault("geocode.breaker.reset_timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "network-planner")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var knownProviders = map[string]bool{"nominatim": true, "google": true, "tiger": true}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, "log.level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, "log.format must be json or console")
	}
	if c.Annotate.TimeoutSecs <= 0 {
		errs = append(errs, "annotate.timeout_secs must be > 0")
	}
	if c.Annotate.Concurrency < 1 {
		errs = append(errs, "annotate.concurrency must be >= 1")
	}
	for _, p := range c.Geocode.Providers {
		if !knownProviders[p] {
			errs = append(errs, "geocode.providers: unknown provider "+p)
		}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, "tracing.sample_ratio must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Request converts planner defaults into a plan request. The priority area is
// passed through unparsed; PlanRequest.Normalize canonicalizes it.
func (c PlannerConfig) Request() model.PlanRequest {
	return model.PlanRequest{
		Seed:          c.Seed,
		BudgetMaxKUSD: c.BudgetMaxKUSD,
		PriorityArea:  model.PriorityArea(c.PriorityArea),
		SignalMinDBM:  c.SignalMinDBM,
		Weights: model.Weights{
			Terrain:     c.TerrainWeight,
			Cost:        c.CostWeight,
			ClimateRisk: c.ClimateRiskWeight,
		},
		IncludeLocationNames: c.IncludeLocationNames,
	}
}
