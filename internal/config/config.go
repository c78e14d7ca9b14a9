package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Wikidata  WikidataConfig  `yaml:"wikidata" mapstructure:"wikidata"`
	Commons   CommonsConfig   `yaml:"commons" mapstructure:"commons"`
	Wikipedia WikipediaConfig `yaml:"wikipedia" mapstructure:"wikipedia"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the local SQLite database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// FetchConfig configures the shared HTTP fetch adapter.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PaceMillis  int    `yaml:"pace_millis" mapstructure:"pace_millis"`
}

// WikidataConfig holds Wikidata API endpoints.
type WikidataConfig struct {
	APIBaseURL    string `yaml:"api_base_url" mapstructure:"api_base_url"`
	EntityBaseURL string `yaml:"entity_base_url" mapstructure:"entity_base_url"`
	SearchLimit   int    `yaml:"search_limit" mapstructure:"search_limit"`
}

// CommonsConfig holds Wikimedia Commons API settings.
type CommonsConfig struct {
	APIBaseURL   string `yaml:"api_base_url" mapstructure:"api_base_url"`
	GalleryLimit int    `yaml:"gallery_limit" mapstructure:"gallery_limit"`
}

// WikipediaConfig holds Wikipedia API endpoints.
type WikipediaConfig struct {
	APIBaseURL  string `yaml:"api_base_url" mapstructure:"api_base_url"`
	RestBaseURL string `yaml:"rest_base_url" mapstructure:"rest_base_url"`
}

// GeocodeConfig configures the approximate geocoder fallback.
type GeocodeConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PaceMillis  int    `yaml:"pace_millis" mapstructure:"pace_millis"`
}

// EnrichConfig configures the enrichment sweep.
type EnrichConfig struct {
	ChainConfigPath string `yaml:"chain_config" mapstructure:"chain_config"`
}

// ReportConfig configures the gap report artifact.
type ReportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the sweep trigger server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("HERITAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "heritage.db")
	v.SetDefault("fetch.user_agent", "heritage-cli/1.0 (https://github.com/heritage-atlas/heritage-cli)")
	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.pace_millis", 300)
	v.SetDefault("wikidata.api_base_url", "https://www.wikidata.org/w/api.php")
	v.SetDefault("wikidata.entity_base_url", "https://www.wikidata.org/wiki/Special:EntityData")
	v.SetDefault("wikidata.search_limit", 3)
	v.SetDefault("commons.api_base_url", "https://commons.wikimedia.org/w/api.php")
	v.SetDefault("commons.gallery_limit", 5)
	v.SetDefault("wikipedia.api_base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.rest_base_url", "https://en.wikipedia.org/api/rest_v1")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.pace_millis", 1000)
	v.SetDefault("report.dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
