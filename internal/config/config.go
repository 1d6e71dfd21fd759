package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	DefaultMarketURL       = "https://api.warframe.market/v1"
	DefaultGameDataURL     = "https://api.warframestat.us"
	DefaultCredentialsPath = "credentials.json"
	DefaultCatalogPath     = "catalog.json"
	DefaultDatabasePath    = "database.json"
	DefaultRateMs          = 350
	DefaultTimeoutMs       = 10000
	DefaultSyncMinutes     = 30

	// EnvPrefix prefixes every environment override, e.g. WFM_MARKET_URL.
	EnvPrefix = "WFM"
)

type ConfigStruct struct {
	Verbose             bool   `yaml:"verbose" envconfig:"VERBOSE"`
	WebhookURL          string `yaml:"webhook_url" envconfig:"WEBHOOK_URL"`
	Rate                int    `yaml:"rate_limit_time_ms" envconfig:"RATE_LIMIT_TIME_MS"`
	RequestTimeoutMs    int    `yaml:"request_timeout_ms" envconfig:"REQUEST_TIMEOUT_MS"`
	MarketURL           string `yaml:"market_url" envconfig:"MARKET_URL"`
	GameDataURL         string `yaml:"gamedata_url" envconfig:"GAMEDATA_URL"`
	CredentialsPath     string `yaml:"credentials_path" envconfig:"CREDENTIALS_PATH"`
	CatalogPath         string `yaml:"catalog_path" envconfig:"CATALOG_PATH"`
	DatabasePath        string `yaml:"database_path" envconfig:"DATABASE_PATH"`
	SyncIntervalMinutes int    `yaml:"sync_interval_minutes" envconfig:"SYNC_INTERVAL_MINUTES"`
}

// RateLimit is the pause between consecutive catalog lookups.
func (c *ConfigStruct) RateLimit() time.Duration {
	return time.Duration(c.Rate) * time.Millisecond
}

func (c *ConfigStruct) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c *ConfigStruct) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

func (c *ConfigStruct) applyDefaults() {
	if c.Rate <= 0 {
		c.Rate = DefaultRateMs
	}
	if c.RequestTimeoutMs <= 0 {
		c.RequestTimeoutMs = DefaultTimeoutMs
	}
	if c.MarketURL == "" {
		c.MarketURL = DefaultMarketURL
	}
	if c.GameDataURL == "" {
		c.GameDataURL = DefaultGameDataURL
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = DefaultCredentialsPath
	}
	if c.CatalogPath == "" {
		c.CatalogPath = DefaultCatalogPath
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.SyncIntervalMinutes <= 0 {
		c.SyncIntervalMinutes = DefaultSyncMinutes
	}
}

// LoadConfig reads the YAML config file at path, then applies overrides from
// the environment (including a .env file in the working directory) and fills
// in defaults. A missing config file is not an error.
func LoadConfig(path string) (*ConfigStruct, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %v", err)
	}

	c := &ConfigStruct{}

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults and environment only
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %v", err)
	default:
		defer f.Close()
		if decodeErr := yaml.NewDecoder(f).Decode(c); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
			return nil, fmt.Errorf("failed to decode config: %v", decodeErr)
		}
	}

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %v", err)
	}

	c.applyDefaults()
	return c, nil
}
