package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNaming()
	c.normalizeTranslation()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeRetry()
	c.normalizeExtraction()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return err
	}
	if c.Paths.ProcessedDir, err = expandPath(c.Paths.ProcessedDir); err != nil {
		return err
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.SummaryDir) == "" {
		c.Paths.SummaryDir = filepath.Join(c.Paths.ProcessedDir, "summary")
		return nil
	}
	if c.Paths.SummaryDir, err = expandPath(c.Paths.SummaryDir); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeNaming() {
	if strings.TrimSpace(c.Naming.Extension) == "" {
		c.Naming.Extension = defaultExtension
	}
	if !strings.HasPrefix(c.Naming.Extension, ".") {
		c.Naming.Extension = "." + c.Naming.Extension
	}
	cleaned := make([]string, 0, len(c.Naming.ExcludedSuppliers))
	for _, entry := range c.Naming.ExcludedSuppliers {
		if entry = strings.TrimSpace(entry); entry != "" {
			cleaned = append(cleaned, entry)
		}
	}
	c.Naming.ExcludedSuppliers = cleaned
}

func (c *Config) normalizeTranslation() {
	if strings.TrimSpace(c.Translation.TargetLanguage) == "" {
		c.Translation.TargetLanguage = defaultTargetLanguage
	}
	c.Translation.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Translation.TargetLanguage))
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslateTimeoutSeconds
	}
	if strings.TrimSpace(c.Translation.GoogleEndpoint) == "" {
		c.Translation.GoogleEndpoint = defaultGoogleEndpoint
	}
	if strings.TrimSpace(c.Translation.LibreEndpoint) == "" {
		c.Translation.LibreEndpoint = defaultLibreEndpoint
	}
	providers := make([]string, 0, len(c.Translation.Providers))
	for _, name := range c.Translation.Providers {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			providers = append(providers, name)
		}
	}
	if len(providers) == 0 {
		providers = []string{"google", "libre"}
	}
	c.Translation.Providers = providers
}

func (c *Config) normalizeCache() error {
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = filepath.Join(c.Paths.StateDir, "translations.db")
		return nil
	}
	expanded, err := expandPath(c.Cache.Path)
	if err != nil {
		return fmt.Errorf("cache path: %w", err)
	}
	c.Cache.Path = expanded
	return nil
}

func (c *Config) normalizeRetry() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultMaxRetryAttempts
	}
	if c.Retry.DelayHours <= 0 {
		c.Retry.DelayHours = defaultRetryDelayHours
	}
}

func (c *Config) normalizeExtraction() {
	if strings.TrimSpace(c.Extraction.BaseURL) == "" {
		c.Extraction.BaseURL = defaultExtractionBaseURL
	}
	if strings.TrimSpace(c.Extraction.Model) == "" {
		c.Extraction.Model = defaultExtractionModel
	}
	if c.Extraction.TimeoutSeconds <= 0 {
		c.Extraction.TimeoutSeconds = defaultExtractionTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
