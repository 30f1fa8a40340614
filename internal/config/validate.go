package config

import (
	"fmt"
	"strings"
)

var knownProviders = map[string]struct{}{
	"google": {},
	"libre":  {},
}

var knownLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

// Validate checks the configuration for values that would break a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.ProcessedDir) == "" {
		return fmt.Errorf("config: processed_dir is required")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return fmt.Errorf("config: state_dir is required")
	}
	for _, name := range c.Translation.Providers {
		if _, ok := knownProviders[name]; !ok {
			return fmt.Errorf("config: unknown translation provider %q (known: google, libre)", name)
		}
	}
	if _, ok := knownLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("config: unknown log format %q (known: console, json)", c.Logging.Format)
	}
	if c.Retry.MaxAttempts > 100 {
		return fmt.Errorf("config: max_attempts %d is unreasonably high", c.Retry.MaxAttempts)
	}
	return nil
}
