package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Kalshi
	out.Kalshi = cfg.Kalshi
	redact(&out.Kalshi.ApiKeyID)

	// Embedding / matcher
	out.Embedding = cfg.Embedding
	redact(&out.Embedding.ApiKey)
	out.Matcher = cfg.Matcher
	redact(&out.Matcher.ApiKey)

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy maps so mutations to the redacted copy do not affect the original.
	if cfg.Matching.ExtraLeagues != nil {
		out.Matching.ExtraLeagues = make(map[string]string, len(cfg.Matching.ExtraLeagues))
		for k, v := range cfg.Matching.ExtraLeagues {
			out.Matching.ExtraLeagues[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
