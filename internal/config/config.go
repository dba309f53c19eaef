package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
	"github.com/SouptikDatta/railways-intelligence/pkg/utils"
)

// Source kinds the service can ingest from.
const (
	SourceAPI = "api"
	SourceSQL = "sql"
)

// Config is the process configuration, loaded from the environment with a
// .env overlay for local runs.
type Config struct {
	ListenAddr  string
	DBPath      string
	SourceType  string
	UpstreamURL string
	Fetch       model.FetchConfig
}

// Load reads configuration from the environment. RAIL_UPSTREAM_URL is
// required when the source type is "api".
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:  envOr("RAIL_LISTEN_ADDR", ":8080"),
		DBPath:      envOr("RAIL_DB_PATH", "railways.db"),
		SourceType:  envOr("RAIL_SOURCE", SourceAPI),
		UpstreamURL: os.Getenv("RAIL_UPSTREAM_URL"),
		Fetch:       model.DefaultFetchConfig(),
	}

	cfg.Fetch.BatchDelay = utils.ParseDuration(os.Getenv("RAIL_BATCH_DELAY"), cfg.Fetch.BatchDelay)
	cfg.Fetch.RetryBaseDelay = utils.ParseDuration(os.Getenv("RAIL_RETRY_BASE_DELAY"), cfg.Fetch.RetryBaseDelay)
	cfg.Fetch.RequestTimeout = utils.ParseDuration(os.Getenv("RAIL_REQUEST_TIMEOUT"), cfg.Fetch.RequestTimeout)

	if cfg.SourceType != SourceAPI && cfg.SourceType != SourceSQL {
		return nil, errors.New("RAIL_SOURCE must be \"api\" or \"sql\"")
	}
	if cfg.SourceType == SourceAPI && cfg.UpstreamURL == "" {
		return nil, errors.New("RAIL_UPSTREAM_URL is required for the api source")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RequestTimeout convenience for source construction.
func (c *Config) RequestTimeout() time.Duration { return c.Fetch.RequestTimeout }
