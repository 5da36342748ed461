package testsupport

import (
	"path/filepath"
	"testing"

	"mkvkeep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Mkvmerge.Binary = filepath.Join(base, "bin", "mkvmerge")
	cfgVal.Resources.CPUSampleMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStateBackend selects the state backend on the test config.
func WithStateBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.State.Backend = backend
	}
}

// WithStubbedMkvmerge writes a stub mkvmerge described by stub and points the
// config at it.
func WithStubbedMkvmerge(stub Stub) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mkvmerge.Binary = StubMkvmerge(b.t, filepath.Join(b.baseDir, "bin"), stub)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
