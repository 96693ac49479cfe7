package testsupport

import (
	"path/filepath"
	"testing"

	"hopper/internal/config"
	"hopper/internal/logging"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Store
}

// NewConfig produces a config store seeded with unique temp directories per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Store {
	t.Helper()

	base := t.TempDir()
	cfg := config.Load(filepath.Join(base, "config.toml"), logging.NewNop())
	cfg.Set(config.KeySourcePath, filepath.Join(base, "source"))
	cfg.Set(config.KeyStateDir, filepath.Join(base, "state"))

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     cfg,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithVolumeLabel sets the destination volume label on the test config.
func WithVolumeLabel(label string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Set(config.KeyDestinationVolumeLabel, label)
	}
}

// WithTemplate points the config at a session template directory.
func WithTemplate(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Set(config.KeyTemplatePath, path)
	}
}

// WithExtensions overrides the file-extension allowlist.
func WithExtensions(list string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Set(config.KeyFileExtensions, list)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Store) string {
	return filepath.Dir(cfg.Path())
}
