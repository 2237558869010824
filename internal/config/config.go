// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBSCAN_* environment variables.
type Config struct {
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Matcher    MatcherConfig    `toml:"matcher"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Matching   MatchingConfig   `toml:"matching"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Export     ExportConfig     `toml:"export"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// KalshiConfig holds Kalshi exchange API credentials. Public market data works
// without credentials; the key pair raises rate limits.
type KalshiConfig struct {
	BaseURL           string `toml:"base_url"`
	ApiKeyID          string `toml:"api_key_id"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
}

// PolymarketConfig holds Polymarket Gamma API endpoints.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
}

// EmbeddingConfig holds the embedding API endpoint and model parameters.
type EmbeddingConfig struct {
	BaseURL   string   `toml:"base_url"`
	ApiKey    string   `toml:"api_key"`
	Model     string   `toml:"model"`
	BatchSize int      `toml:"batch_size"`
	Timeout   duration `toml:"timeout"`
}

// MatcherConfig holds the LLM endpoint used for semantic pair evaluation.
type MatcherConfig struct {
	BaseURL     string   `toml:"base_url"`
	ApiKey      string   `toml:"api_key"`
	Model       string   `toml:"model"`
	Temperature float64  `toml:"temperature"`
	Timeout     duration `toml:"timeout"`
	MaxRetries  int      `toml:"max_retries"`
	RetryDelay  duration `toml:"retry_delay"`
	Workers     int      `toml:"workers"`
}

// PostgresConfig holds PostgreSQL connection parameters. The embeddings table
// requires the pgvector extension.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
	Enabled       bool   `toml:"enabled"`
}

// RedisConfig holds Redis connection parameters for snapshot caching.
type RedisConfig struct {
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled"`
	SnapshotTTL duration `toml:"snapshot_ttl"`
	Enabled     bool     `toml:"enabled"`
}

// S3Config holds S3-compatible object storage parameters for run artifacts.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Prefix         string `toml:"prefix"`
	Enabled        bool   `toml:"enabled"`
}

// MatchingConfig holds candidate-generation parameters. ExtraLeagues maps a
// Kalshi ticker prefix to its sport category, extending the built-in league
// table used by the candidate filter.
type MatchingConfig struct {
	TopK             int               `toml:"top_k"`
	MinSimilarity    float64           `toml:"min_similarity"`
	TargetCandidates int               `toml:"target_candidates"`
	ExtraLeagues     map[string]string `toml:"extra_leagues"`
	Workers          int               `toml:"workers"`
}

// ArbitrageConfig holds pricing-evaluation parameters.
type ArbitrageConfig struct {
	KalshiFeeRate float64 `toml:"kalshi_fee_rate"`
	Workers       int     `toml:"workers"`
}

// ExportConfig holds local CSV artifact parameters.
type ExportConfig struct {
	Dir          string `toml:"dir"`
	SummaryLimit int    `toml:"summary_limit"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string  `toml:"telegram_token"`
	TelegramChatID    string  `toml:"telegram_chat_id"`
	DiscordWebhookURL string  `toml:"discord_webhook_url"`
	MinProfit         float64 `toml:"min_profit"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			BatchSize: 200,
			Timeout:   duration{60 * time.Second},
		},
		Matcher: MatcherConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.0,
			Timeout:     duration{120 * time.Second},
			MaxRetries:  3,
			RetryDelay:  duration{2 * time.Second},
			Workers:     4,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbscan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
			Enabled:       false,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DB:          0,
			PoolSize:    20,
			MaxRetries:  3,
			TLSEnabled:  false,
			SnapshotTTL: duration{15 * time.Minute},
			Enabled:     false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbscan-data",
			UseSSL:         false,
			ForcePathStyle: true,
			Prefix:         "runs",
			Enabled:        false,
		},
		Matching: MatchingConfig{
			TopK:             400,
			MinSimilarity:    0.35,
			TargetCandidates: 200,
			ExtraLeagues:     map[string]string{},
			Workers:          8,
		},
		Arbitrage: ArbitrageConfig{
			KalshiFeeRate: 0.07,
			Workers:       8,
		},
		Export: ExportConfig{
			Dir:          "out",
			SummaryLimit: 20,
		},
		Notify: NotifyConfig{
			MinProfit: 0.01,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"match":    true,
	"evaluate": true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: match, evaluate, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Kalshi / Polymarket: every mode hits the exchange APIs, either for a
	// full snapshot or to refresh prices for already-matched markets.
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Kalshi.ApiKeyID != "" && c.Kalshi.RsaPrivateKeyPath == "" {
		errs = append(errs, "kalshi: rsa_private_key_path is required when api_key_id is set")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}

	// Embedding: only modes that take a full snapshot embed events.
	if c.Mode == "match" || c.Mode == "full" {
		if c.Embedding.BaseURL == "" {
			errs = append(errs, "embedding: base_url must not be empty")
		}
		if c.Embedding.Model == "" {
			errs = append(errs, "embedding: model must not be empty")
		}
		if c.Embedding.BatchSize < 1 {
			errs = append(errs, "embedding: batch_size must be >= 1")
		}
	}

	// Matcher
	if c.Matcher.BaseURL == "" {
		errs = append(errs, "matcher: base_url must not be empty")
	}
	if c.Matcher.Model == "" {
		errs = append(errs, "matcher: model must not be empty")
	}
	if c.Matcher.MaxRetries < 0 {
		errs = append(errs, "matcher: max_retries must be >= 0")
	}
	if c.Matcher.Workers < 1 {
		errs = append(errs, "matcher: workers must be >= 1")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.SnapshotTTL.Duration <= 0 {
			errs = append(errs, "redis: snapshot_ttl must be > 0")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Matching
	if c.Matching.TopK < 1 {
		errs = append(errs, "matching: top_k must be >= 1")
	}
	if c.Matching.MinSimilarity < -1 || c.Matching.MinSimilarity > 1 {
		errs = append(errs, fmt.Sprintf("matching: min_similarity must be in [-1, 1], got %g", c.Matching.MinSimilarity))
	}
	if c.Matching.TargetCandidates < 1 {
		errs = append(errs, "matching: target_candidates must be >= 1")
	}
	// The similarity search must oversample: the structural filter only ever
	// removes candidates, so a top_k below the target makes it unreachable.
	if c.Matching.TopK >= 1 && c.Matching.TargetCandidates >= 1 && c.Matching.TopK < c.Matching.TargetCandidates {
		errs = append(errs, fmt.Sprintf("matching: top_k (%d) must be >= target_candidates (%d)", c.Matching.TopK, c.Matching.TargetCandidates))
	}
	if c.Matching.Workers < 1 {
		errs = append(errs, "matching: workers must be >= 1")
	}

	// Arbitrage
	if c.Arbitrage.KalshiFeeRate < 0 || c.Arbitrage.KalshiFeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("arbitrage: kalshi_fee_rate must be in [0, 1), got %g", c.Arbitrage.KalshiFeeRate))
	}
	if c.Arbitrage.Workers < 1 {
		errs = append(errs, "arbitrage: workers must be >= 1")
	}

	// Export
	if c.Export.Dir == "" {
		errs = append(errs, "export: dir must not be empty")
	}
	if c.Export.SummaryLimit < 0 {
		errs = append(errs, "export: summary_limit must be >= 0")
	}

	// Notify: telegram token and chat id must be set together.
	tk := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tk != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
