package commands

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/garagon/symscan/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvRoot, config.EnvToolDir, config.EnvAr, config.EnvNm, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func TestScanConfigDefaults(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := loadScanConfig(scanCmd, nil)
	require.NoError(t, err)
	require.Equal(t, "build", cfg.Root)
	require.Equal(t, 1, cfg.Workers)
	require.Empty(t, cfg.Targets)
	require.Empty(t, cfg.Nm)
}

func TestScanConfigPrecedence(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".symscan.yml"), []byte(
		"root: out\ntargets: [mmap]\nar: file-ar\nnm: file-nm\nworkers: 3\ntool_timeout: 5s\n"), 0644))
	t.Chdir(dir)
	t.Setenv(config.EnvAr, "env-ar")
	t.Setenv(config.EnvNm, "env-nm")
	require.NoError(t, scanCmd.Flags().Set("ar", "flag-ar"))

	cfg, err := loadScanConfig(scanCmd, nil)
	require.NoError(t, err)
	require.Equal(t, "out", cfg.Root)
	require.Equal(t, []string{"mmap"}, cfg.Targets)
	require.Equal(t, "flag-ar", cfg.Ar)
	require.Equal(t, "env-nm", cfg.Nm)
	require.Equal(t, 3, cfg.Workers)
	require.Equal(t, "5s", cfg.ToolTimeout)

	require.NoError(t, scanCmd.Flags().Set("target", "dlopen"))
	require.NoError(t, scanCmd.Flags().Set("workers", "2"))
	cfg, err = loadScanConfig(scanCmd, []string{"elsewhere"})
	require.NoError(t, err)
	require.Equal(t, "elsewhere", cfg.Root)
	require.Equal(t, []string{"dlopen"}, cfg.Targets)
	require.Equal(t, 2, cfg.Workers)
}

func TestScanConfigExplicitFile(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "audit.yml")
	require.NoError(t, os.WriteFile(path, []byte("presets: [wasi-unsupported]\n"), 0644))
	flagConfig = path

	cfg, err := loadScanConfig(scanCmd, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"wasi-unsupported"}, cfg.Presets)

	flagConfig = filepath.Join(t.TempDir(), "missing.yml")
	_, err = loadScanConfig(scanCmd, nil)
	require.Error(t, err)
}

func TestScanConfigRejectsBadWorkers(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	t.Chdir(t.TempDir())
	require.NoError(t, scanCmd.Flags().Set("workers", "0"))

	_, err := loadScanConfig(scanCmd, nil)
	require.ErrorContains(t, err, "--workers")
}

func TestScanMissingRoot(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := execute(t, "scan", "does-not-exist")
	require.ErrorContains(t, err, "scan failed")
}

func TestScanUnknownPreset(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir("build", 0755))

	_, err := execute(t, "scan", "--preset", "nope")
	require.ErrorContains(t, err, "nope")
}

// fakeNm prints an object file's content as its symbol listing.
const fakeNm = "#!/bin/sh\ncat \"$1\"\n"

// buildTree archives a matching and a clean object under build/ in the
// current directory and returns the archive path and a fake nm.
func buildTree(t *testing.T) (archive, nm string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tools unavailable on windows")
	}
	for _, tool := range []string{"ar", "sh", "cat"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not on PATH", tool)
		}
	}
	work, err := os.Getwd()
	require.NoError(t, err)
	nm = filepath.Join(work, "nm")
	require.NoError(t, os.WriteFile(nm, []byte(fakeNm), 0755))

	src := t.TempDir()
	obj := filepath.Join(src, "loader.o")
	require.NoError(t, os.WriteFile(obj, []byte("                 U dlopen\n"), 0644))
	clean := filepath.Join(src, "math.o")
	require.NoError(t, os.WriteFile(clean, []byte("0000000000000000 T add\n"), 0644))
	archive = filepath.Join("build", "lib", "libdl.a")
	require.NoError(t, os.MkdirAll(filepath.Dir(archive), 0755))
	out, err := exec.Command("ar", "rc", archive, obj, clean).CombinedOutput()
	require.NoError(t, err, string(out))
	return archive, nm
}

func TestScanEndToEnd(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	t.Chdir(t.TempDir())
	archive, nm := buildTree(t)

	scratch := t.TempDir()
	stdout, err := execute(t, "scan", "--nm", nm, "--preset", "dynamic-loading", "--scratch-dir", scratch)
	require.NoError(t, err)
	require.Contains(t, stdout, "Found!\n"+archive+"\nloader.o\n                 U dlopen\n")
	require.NotContains(t, stdout, "math.o")
	require.Contains(t, stdout, "1 archives scanned · 2 members · 1 matches · 0 warnings")

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestScanProgressPrintsCollectedReports(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	t.Chdir(t.TempDir())
	archive, nm := buildTree(t)

	stdout, err := execute(t, "scan", "--progress", "--nm", nm, "--target", "dlopen", "--scratch-dir", t.TempDir())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "Found!\n"+archive+"\nloader.o\n                 U dlopen\n"), stdout)
	require.NotContains(t, stdout, "math.o")
	require.Contains(t, stdout, "1 archives scanned · 2 members · 1 matches · 0 warnings")
}

func TestScanProgressMissingRoot(t *testing.T) {
	resetFlags(t)
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := execute(t, "scan", "--progress", "does-not-exist")
	require.ErrorContains(t, err, "scan failed")
}
