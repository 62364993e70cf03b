package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stubgen/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stubgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultNamespace, cfg.Stub.Namespace)
	assert.Empty(t, cfg.Stub.BundleExtension)
	assert.Equal(t, config.DefaultOutputDir, cfg.Output.Dir)
	assert.Equal(t, config.DefaultStorePath, cfg.Store.Path)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, config.DefaultWorkers, cfg.Generate.Workers)
	assert.Equal(t, config.DefaultCacheSize, cfg.Generate.CacheSize)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
}

func TestLoadConfig_NoPath_SearchesWorkingDir(t *testing.T) {
	// No stubgen.yaml lives next to the tests, so defaults apply.
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultNamespace, cfg.Stub.Namespace)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	path := writeConfig(t, `stub:
  namespace: MeteorStub
  bundle_extension: _vite-bundle.tmp
output:
  dir: build/stubs
store:
  enabled: false
generate:
  workers: 8
  cache_size: 0
logging:
  level: debug
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "MeteorStub", cfg.Stub.Namespace)
	assert.Equal(t, "_vite-bundle.tmp", cfg.Stub.BundleExtension)
	assert.Equal(t, "build/stubs", cfg.Output.Dir)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, 8, cfg.Generate.Workers)
	assert.Equal(t, 0, cfg.Generate.CacheSize)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("STUBGEN_STUB_NAMESPACE", "FromEnv")
	t.Setenv("STUBGEN_GENERATE_WORKERS", "2")

	cfg, err := config.LoadConfig(writeConfig(t, "stub:\n  namespace: FromFile\n"))
	require.NoError(t, err)

	assert.Equal(t, "FromEnv", cfg.Stub.Namespace)
	assert.Equal(t, 2, cfg.Generate.Workers)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "blank namespace", content: "stub:\n  namespace: \"  \"\n", want: config.ErrEmptyNamespace},
		{name: "zero workers", content: "generate:\n  workers: 0\n", want: config.ErrInvalidWorkers},
		{name: "negative cache", content: "generate:\n  cache_size: -1\n", want: config.ErrInvalidCacheSize},
		{name: "bad level", content: "logging:\n  level: loud\n", want: config.ErrInvalidLogLevel},
		{name: "empty store path", content: "store:\n  path: \"\"\n", want: config.ErrEmptyStorePath},
		{name: "empty output dir", content: "output:\n  dir: \"\"\n", want: config.ErrEmptyOutputDir},
		{name: "bundle extension with separator", content: "stub:\n  bundle_extension: a/b\n", want: config.ErrInvalidBundleExt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_DisabledStoreAllowsEmptyPath(t *testing.T) {
	cfg := &config.Config{
		Stub:     config.StubConfig{Namespace: "P"},
		Output:   config.OutputConfig{Dir: "out"},
		Store:    config.StoreConfig{Enabled: false},
		Generate: config.GenerateConfig{Workers: 1},
		Logging:  config.LoggingConfig{Level: "warn"},
	}
	assert.NoError(t, config.Validate(cfg))
}
