package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/garagon/symscan/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`
root: build
targets:
  - LLVMIsMultithreaded
presets:
  - dynamic-loading
presets_dir: presets/
archive_suffix: .lib
object_suffixes: [.o, .obj]
tool_dir: /opt/wasi-sdk/bin
nm: llvm-nm --no-sort
workers: 4
scratch_dir: /tmp/symscan
tool_timeout: 30s
ignore:
  - "stage0/**"
log_level: debug
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".symscan.yml"), data, 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "build", cfg.Root)
	require.Equal(t, []string{"LLVMIsMultithreaded"}, cfg.Targets)
	require.Equal(t, []string{"dynamic-loading"}, cfg.Presets)
	require.Equal(t, "presets/", cfg.PresetsDir)
	require.Equal(t, ".lib", cfg.ArchiveSuffix)
	require.Equal(t, []string{".o", ".obj"}, cfg.ObjectSuffixes)
	require.Equal(t, "/opt/wasi-sdk/bin", cfg.ToolDir)
	require.Equal(t, "llvm-nm --no-sort", cfg.Nm)
	require.Empty(t, cfg.Ar)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, "/tmp/symscan", cfg.ScratchDir)
	require.Equal(t, []string{"stage0/**"}, cfg.Ignore)
	require.Equal(t, "debug", cfg.LogLevel)

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, timeout)
}

func TestLoadConfigYAMLExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".symscan.yaml"), []byte("workers: 2\n"), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Workers)
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, config.Config{}, cfg)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".symscan.yml"), []byte("{{invalid yaml"), 0644))

	_, err := config.Load(dir)
	require.ErrorContains(t, err, "parsing")
}

func TestLoadConfigBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")

	require.NoError(t, os.WriteFile(path, []byte("tool_timeout: soon\n"), 0644))
	_, err := config.LoadFile(path)
	require.ErrorContains(t, err, "tool_timeout")

	require.NoError(t, os.WriteFile(path, []byte("workers: -1\n"), 0644))
	_, err = config.LoadFile(path)
	require.ErrorContains(t, err, "workers")
}

func TestLoadConfigPrecedence(t *testing.T) {
	// .symscan.yml takes priority over .symscan.yaml
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".symscan.yml"), []byte("log_level: info\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".symscan.yaml"), []byte("log_level: error\n"), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".symscan.yml")
	require.NoError(t, os.WriteFile(path, make([]byte, (1<<20)+1), 0644))

	_, err := config.Load(dir)
	require.ErrorContains(t, err, "too large")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Config{Root: "build", Nm: "nm", Ar: "ar"}
	env := map[string]string{
		config.EnvRoot:     "out",
		config.EnvNm:       "llvm-nm",
		config.EnvToolDir:  "/opt/wasi-sdk/bin",
		config.EnvLogLevel: "debug",
	}
	config.ApplyEnv(&cfg, func(k string) string { return env[k] })

	require.Equal(t, "out", cfg.Root)
	require.Equal(t, "llvm-nm", cfg.Nm)
	require.Equal(t, "ar", cfg.Ar)
	require.Equal(t, "/opt/wasi-sdk/bin", cfg.ToolDir)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SYMSCAN_AR=llvm-ar\n"), 0644))
	t.Chdir(dir)
	t.Setenv(config.EnvAr, "")
	require.NoError(t, os.Unsetenv(config.EnvAr))

	config.LoadDotEnv()

	var cfg config.Config
	config.ApplyEnv(&cfg, os.Getenv)
	require.Equal(t, "llvm-ar", cfg.Ar)
}
