package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/config"
	"docket/internal/ledger"
	"docket/internal/logging"
	"docket/internal/retryqueue"
	"docket/internal/services/extract"
	"docket/internal/transcache"
	"docket/internal/translate"
	"docket/internal/translate/googleapi"
	"docket/internal/translate/libre"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) retryDelay() time.Duration {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return 24 * time.Hour
	}
	return time.Duration(cfg.Retry.DelayHours) * time.Hour
}

func (c *commandContext) openQueue() (*retryqueue.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return retryqueue.Open(cfg.Paths.StateDir, cfg.Retry.MaxAttempts, c.retryDelay())
}

func (c *commandContext) openLedger() (*ledger.Ledger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Open(cfg.Paths.StateDir)
}

// openCache returns nil when caching is disabled; the chain treats a nil
// cache as a permanent miss.
func (c *commandContext) openCache() (*transcache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	return transcache.Open(cfg.Cache.Path)
}

func (c *commandContext) buildProviders() []translate.Provider {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return nil
	}
	var providers []translate.Provider
	for _, name := range cfg.Translation.Providers {
		switch name {
		case "google":
			providers = append(providers, googleapi.NewClient(googleapi.Config{
				APIKey:         cfg.Translation.GoogleAPIKey,
				Endpoint:       cfg.Translation.GoogleEndpoint,
				TimeoutSeconds: cfg.Translation.TimeoutSeconds,
			}))
		case "libre":
			providers = append(providers, libre.NewClient(libre.Config{
				Endpoint:       cfg.Translation.LibreEndpoint,
				TimeoutSeconds: cfg.Translation.TimeoutSeconds,
			}))
		}
	}
	return providers
}

func (c *commandContext) buildChain(cache *transcache.Cache, logger *slog.Logger) *translate.Chain {
	cfg, _ := c.ensureConfig()
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	return translate.NewChain(cache, c.buildProviders(), cfg.Translation.TargetLanguage, ttl,
		logging.NewComponentLogger(logger, "translate"))
}

func (c *commandContext) buildExtractor() *extract.Client {
	cfg, _ := c.ensureConfig()
	return extract.NewClient(extract.Config{
		APIKey:         cfg.Extraction.APIKey,
		BaseURL:        cfg.Extraction.BaseURL,
		Model:          cfg.Extraction.Model,
		TimeoutSeconds: cfg.Extraction.TimeoutSeconds,
	})
}

func (c *commandContext) buildLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stderr",
			filepath.Join(cfg.Paths.LogDir, "docket.log"),
		},
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
