// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Site    SiteConfig    `mapstructure:"site"`
	DB      DBConfig      `mapstructure:"db"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the metrics/health HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs batch crawl behavior.
type CrawlerConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	BatchSize      int    `mapstructure:"batch_size"`
	DelayMs        int    `mapstructure:"delay_ms"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SiteConfig holds the listing URLs for the crawled site.
type SiteConfig struct {
	RecipesURL string `mapstructure:"recipes_url"`
	BakersURL  string `mapstructure:"bakers_url"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GBBO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 9090)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("crawler.batch_size", 10)
	v.SetDefault("crawler.delay_ms", 250)
	v.SetDefault("crawler.timeout_seconds", 15)
	v.SetDefault("site.recipes_url", "https://thegreatbritishbakeoff.co.uk/recipes/all")
	v.SetDefault("site.bakers_url", "https://thegreatbritishbakeoff.co.uk/bakers")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime_seconds", 300)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.BatchSize <= 0 {
		return fmt.Errorf("crawler.batch_size must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Site.RecipesURL == "" || c.Site.BakersURL == "" {
		return fmt.Errorf("site.recipes_url and site.bakers_url are required")
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// BatchDelay converts the configured inter-batch delay into a duration.
func (c Config) BatchDelay() time.Duration {
	return time.Duration(c.Crawler.DelayMs) * time.Millisecond
}
