package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"docket/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The inbox, processed, state, and summary directories all exist on return.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Paths.ProcessedDir = filepath.Join(base, "processed")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SummaryDir = filepath.Join(base, "summary")
	cfg.Cache.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	for _, dir := range []string{
		cfg.Paths.InboxDir,
		cfg.Paths.ProcessedDir,
		cfg.Paths.StateDir,
		cfg.Paths.SummaryDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	return &cfg
}

// WithExcludedSuppliers sets the supplier exclusion list on the test config.
func WithExcludedSuppliers(suppliers ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Naming.ExcludedSuppliers = suppliers
	}
}

// WithWorkers sets the workflow worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.Workers = workers
	}
}
