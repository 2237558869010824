package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBSCAN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "ARBSCAN_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.ApiKeyID, "ARBSCAN_KALSHI_API_KEY_ID")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "ARBSCAN_KALSHI_RSA_PRIVATE_KEY_PATH")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "ARBSCAN_POLYMARKET_GAMMA_HOST")

	// ── Embedding ──
	setStr(&cfg.Embedding.BaseURL, "ARBSCAN_EMBEDDING_BASE_URL")
	setStr(&cfg.Embedding.ApiKey, "ARBSCAN_EMBEDDING_API_KEY")
	setStr(&cfg.Embedding.ApiKey, "OPENAI_API_KEY") // compatibility alias
	setStr(&cfg.Embedding.Model, "ARBSCAN_EMBEDDING_MODEL")
	setInt(&cfg.Embedding.BatchSize, "ARBSCAN_EMBEDDING_BATCH_SIZE")
	setDuration(&cfg.Embedding.Timeout, "ARBSCAN_EMBEDDING_TIMEOUT")

	// ── Matcher ──
	setStr(&cfg.Matcher.BaseURL, "ARBSCAN_MATCHER_BASE_URL")
	setStr(&cfg.Matcher.ApiKey, "ARBSCAN_MATCHER_API_KEY")
	setStr(&cfg.Matcher.Model, "ARBSCAN_MATCHER_MODEL")
	setFloat64(&cfg.Matcher.Temperature, "ARBSCAN_MATCHER_TEMPERATURE")
	setDuration(&cfg.Matcher.Timeout, "ARBSCAN_MATCHER_TIMEOUT")
	setInt(&cfg.Matcher.MaxRetries, "ARBSCAN_MATCHER_MAX_RETRIES")
	setDuration(&cfg.Matcher.RetryDelay, "ARBSCAN_MATCHER_RETRY_DELAY")
	setInt(&cfg.Matcher.Workers, "ARBSCAN_MATCHER_WORKERS")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ARBSCAN_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ARBSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "ARBSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBSCAN_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBSCAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBSCAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARBSCAN_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSCAN_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SnapshotTTL, "ARBSCAN_REDIS_SNAPSHOT_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ARBSCAN_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ARBSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBSCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBSCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBSCAN_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.Prefix, "ARBSCAN_S3_PREFIX")

	// ── Matching ──
	setInt(&cfg.Matching.TopK, "ARBSCAN_MATCHING_TOP_K")
	setFloat64(&cfg.Matching.MinSimilarity, "ARBSCAN_MATCHING_MIN_SIMILARITY")
	setInt(&cfg.Matching.TargetCandidates, "ARBSCAN_MATCHING_TARGET_CANDIDATES")
	setStrMap(&cfg.Matching.ExtraLeagues, "ARBSCAN_MATCHING_EXTRA_LEAGUES")
	setInt(&cfg.Matching.Workers, "ARBSCAN_MATCHING_WORKERS")

	// ── Arbitrage ──
	setFloat64(&cfg.Arbitrage.KalshiFeeRate, "ARBSCAN_ARBITRAGE_KALSHI_FEE_RATE")
	setInt(&cfg.Arbitrage.Workers, "ARBSCAN_ARBITRAGE_WORKERS")

	// ── Export ──
	setStr(&cfg.Export.Dir, "ARBSCAN_EXPORT_DIR")
	setInt(&cfg.Export.SummaryLimit, "ARBSCAN_EXPORT_SUMMARY_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setFloat64(&cfg.Notify.MinProfit, "ARBSCAN_NOTIFY_MIN_PROFIT")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBSCAN_MODE")
	setStr(&cfg.LogLevel, "ARBSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

// setStrMap parses "key=value,key2=value2" pairs. Entries without '=' are
// skipped.
func setStrMap(dst *map[string]string, key string) {
	if v := os.Getenv(key); v != "" {
		parsed := make(map[string]string)
		for _, p := range strings.Split(v, ",") {
			k, val, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || k == "" {
				continue
			}
			parsed[k] = val
		}
		if len(parsed) > 0 {
			*dst = parsed
		}
	}
}
