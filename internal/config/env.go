package config

import (
	"strconv"
	"strings"
)

// applyEnvOverrides layers environment variables over the parsed file. The
// DOCKET_* names cover the knobs the configuration surface promises
// (provider order, cache TTL, retry attempts and delay); the unprefixed API
// key names match what the backing services document.
func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if value := strings.TrimSpace(getenv("DOCKET_PROVIDERS")); value != "" {
		providers := make([]string, 0, 2)
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				providers = append(providers, strings.ToLower(part))
			}
		}
		if len(providers) > 0 {
			c.Translation.Providers = providers
		}
	}
	if value, ok := envInt(getenv, "DOCKET_CACHE_TTL_HOURS"); ok {
		c.Cache.TTLHours = value
	}
	if value, ok := envInt(getenv, "DOCKET_MAX_RETRIES"); ok {
		c.Retry.MaxAttempts = value
	}
	if value, ok := envInt(getenv, "DOCKET_RETRY_DELAY_HOURS"); ok {
		c.Retry.DelayHours = value
	}
	if value := strings.TrimSpace(getenv("GOOGLE_TRANSLATE_API_KEY")); value != "" {
		c.Translation.GoogleAPIKey = value
	}
	if c.Extraction.APIKey == "" {
		c.Extraction.APIKey = strings.TrimSpace(getenv("OPENAI_API_KEY"))
	}
}

func envInt(getenv func(string) string, key string) (int, bool) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
