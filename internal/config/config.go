// Package config loads .symscan.yml configuration files and overlays
// SYMSCAN_* environment variables on top of them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileNames are the config file names looked up in a directory, in priority order.
var FileNames = []string{".symscan.yml", ".symscan.yaml"}

const maxConfigSize = 1 << 20

// Config represents the .symscan.yml configuration file.
type Config struct {
	Root           string   `yaml:"root,omitempty"`
	Targets        []string `yaml:"targets,omitempty"`
	Presets        []string `yaml:"presets,omitempty"`
	PresetsDir     string   `yaml:"presets_dir,omitempty"`
	ArchiveSuffix  string   `yaml:"archive_suffix,omitempty"`
	ObjectSuffixes []string `yaml:"object_suffixes,omitempty"`
	ToolDir        string   `yaml:"tool_dir,omitempty"`
	Ar             string   `yaml:"ar,omitempty"`
	Nm             string   `yaml:"nm,omitempty"`
	Workers        int      `yaml:"workers,omitempty"`
	ScratchDir     string   `yaml:"scratch_dir,omitempty"`
	ToolTimeout    string   `yaml:"tool_timeout,omitempty"`
	Ignore         []string `yaml:"ignore,omitempty"`
	LogLevel       string   `yaml:"log_level,omitempty"`
}

// Timeout parses ToolTimeout. An empty value means no timeout.
func (c Config) Timeout() (time.Duration, error) {
	if c.ToolTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ToolTimeout)
	if err != nil {
		return 0, fmt.Errorf("tool_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("tool_timeout: negative duration %s", c.ToolTimeout)
	}
	return d, nil
}

// Load reads .symscan.yml or .symscan.yaml from dir.
// If dir is a file, its parent directory is used. If no config file is found,
// it returns a zero Config (not an error).
func Load(dir string) (Config, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		return LoadFile(path)
	}
	return Config{}, nil
}

// LoadFile reads the config file at path. A missing file is an error.
func LoadFile(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("parsing %s: workers must not be negative", path)
	}
	if _, err := cfg.Timeout(); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variables consulted by ApplyEnv.
const (
	EnvRoot     = "SYMSCAN_ROOT"
	EnvToolDir  = "SYMSCAN_TOOL_DIR"
	EnvAr       = "SYMSCAN_AR"
	EnvNm       = "SYMSCAN_NM"
	EnvLogLevel = "SYMSCAN_LOG_LEVEL"
)

// LoadDotEnv loads a .env file from the working directory into the process
// environment. Variables already set are not overridden and a missing file
// is not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overlays non-empty SYMSCAN_* variables onto cfg.
// lookup is usually os.Getenv.
func ApplyEnv(cfg *Config, lookup func(string) string) {
	for env, field := range map[string]*string{
		EnvRoot:     &cfg.Root,
		EnvToolDir:  &cfg.ToolDir,
		EnvAr:       &cfg.Ar,
		EnvNm:       &cfg.Nm,
		EnvLogLevel: &cfg.LogLevel,
	} {
		if v := lookup(env); v != "" {
			*field = v
		}
	}
}
