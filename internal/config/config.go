package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	References []ReferenceCity  `yaml:"references" mapstructure:"references"`
	TravelTime TravelTimeConfig `yaml:"traveltime" mapstructure:"traveltime"`
	OSRM       OSRMConfig       `yaml:"osrm" mapstructure:"osrm"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	ESTV       ESTVConfig       `yaml:"estv" mapstructure:"estv"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the processed data files produced by the fetch pipeline.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ScoringConfig holds the default scoring parameters; the API and the score
// command accept per-request overrides.
type ScoringConfig struct {
	PTFactor float64       `yaml:"pt_factor" mapstructure:"pt_factor"`
	AVFactor float64       `yaml:"av_factor" mapstructure:"av_factor"`
	Weights  model.Weights `yaml:"weights" mapstructure:"weights"`
}

// Params converts the configured defaults into engine parameters.
func (s ScoringConfig) Params() model.Params {
	return model.Params{PTFactor: s.PTFactor, AVFactor: s.AVFactor, Weights: s.Weights}
}

// ReferenceCity is a built-in reference location (arrival point).
type ReferenceCity struct {
	ID         string   `yaml:"id" mapstructure:"id"`
	Name       string   `yaml:"name" mapstructure:"name"`
	Lat        float64  `yaml:"lat" mapstructure:"lat"`
	Lon        float64  `yaml:"lon" mapstructure:"lon"`
	Enabled    bool     `yaml:"enabled" mapstructure:"enabled"`
	MaxMinutes *float64 `yaml:"max_minutes" mapstructure:"max_minutes"`
}

// BuiltinReferences converts the configured cities into model references,
// preserving insertion order.
func (c *Config) BuiltinReferences() []model.Reference {
	refs := make([]model.Reference, 0, len(c.References))
	for _, rc := range c.References {
		refs = append(refs, model.Reference{
			ID:         rc.ID,
			Name:       rc.Name,
			Enabled:    rc.Enabled,
			Lat:        rc.Lat,
			Lng:        rc.Lon,
			MaxMinutes: rc.MaxMinutes,
		})
	}
	return refs
}

// TravelTimeConfig holds TravelTime API credentials.
type TravelTimeConfig struct {
	AppID   string `yaml:"app_id" mapstructure:"app_id"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// ArrivalTime is the commuter scenario arrival, RFC3339.
	ArrivalTime string `yaml:"arrival_time" mapstructure:"arrival_time"`
}

// OSRMConfig holds OSRM routing settings.
type OSRMConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	BatchSize int     `yaml:"batch_size" mapstructure:"batch_size"`
	RPS       float64 `yaml:"rps" mapstructure:"rps"`
}

// GeocodeConfig holds Nominatim geocoder settings.
type GeocodeConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ESTVConfig holds the Swiss federal tax API settings.
type ESTVConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	TaxYear int    `yaml:"tax_year" mapstructure:"tax_year"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AUTONOMY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data/processed")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "autonomy.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("scoring.pt_factor", 0.7)
	v.SetDefault("scoring.av_factor", 0.7)
	v.SetDefault("scoring.weights.accessibility_gain", 0.5)
	v.SetDefault("scoring.weights.inherent_attractiveness", 0.5)
	v.SetDefault("traveltime.base_url", "https://api.traveltimeapp.com/v4")
	v.SetDefault("traveltime.arrival_time", "2026-03-02T08:00:00+01:00")
	v.SetDefault("osrm.base_url", "http://localhost:5000")
	v.SetDefault("osrm.batch_size", 90)
	v.SetDefault("osrm.rps", 1)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "autonomy-explorer/1.0")
	v.SetDefault("estv.base_url", "https://swisstaxcalculator.estv.admin.ch")
	v.SetDefault("estv.tax_year", 2025)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("references", defaultReferences())

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

	return &cfg, nil
}

// defaultReferences lists the ten built-in arrival cities.
func defaultReferences() []map[string]any {
	type city struct {
		id   string
		name string
		lat  float64
		lon  float64
	}
	cities := []city{
		{"zurich", "Zürich HB", 47.3769, 8.5417},
		{"bern", "Bern HB", 46.9490, 7.4395},
		{"basel", "Basel SBB", 47.5476, 7.5891},
		{"luzern", "Luzern Bf", 47.0502, 8.3093},
		{"geneve", "Genève Cornavin", 46.2100, 6.1426},
		{"lausanne", "Lausanne Gare", 46.5168, 6.6294},
		{"stgallen", "St. Gallen HB", 47.4233, 9.3696},
		{"lugano", "Lugano Bf", 46.0054, 8.9468},
		{"winterthur", "Winterthur HB", 47.5001, 8.7237},
		{"biel", "Biel/Bienne", 47.1326, 7.2474},
	}
	out := make([]map[string]any, len(cities))
	for i, c := range cities {
		out[i] = map[string]any{
			"id": c.id, "name": c.name, "lat": c.lat, "lon": c.lon, "enabled": true,
		}
	}
	return out
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
