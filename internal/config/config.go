package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and naming configuration.
type Paths struct {
	StateDir     string   `toml:"state_dir"`
	LogDir       string   `toml:"log_dir"`
	OutputSubdir string   `toml:"output_subdir"`
	OutputPrefix string   `toml:"output_prefix"`
	Extensions   []string `toml:"extensions"`
}

// Mkvmerge contains settings for the external multiplexer.
type Mkvmerge struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Languages holds the language-code sets used to classify tracks.
// Codes are compared verbatim after lowercasing.
type Languages struct {
	AudioSource    []string `toml:"audio_source"`
	SubtitleTarget []string `toml:"subtitle_target"`
}

// Resources contains the parallelism sizing knobs.
type Resources struct {
	MinProcesses         int     `toml:"min_processes"`
	MaxProcesses         int     `toml:"max_processes"`
	MemoryBufferFraction float64 `toml:"memory_buffer_fraction"`
	MemoryPerJobMiB      int     `toml:"memory_per_job_mib"`
	CPUSampleMillis      int     `toml:"cpu_sample_millis"`
	SpaceFactor          float64 `toml:"space_factor"`
}

// State selects the processing state backend.
type State struct {
	Backend string `toml:"backend"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mkvkeep.
//
// Configuration sections by subsystem:
//   - Paths: state/log directories and output naming
//   - Mkvmerge: multiplexer binary and invocation timeout
//   - Languages: source-audio and target-subtitle code sets
//   - Resources: parallelism bounds and per-job estimates
//   - State: processing state backend
//   - Notifications: ntfy push on batch completion
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Mkvmerge      Mkvmerge      `toml:"mkvmerge"`
	Languages     Languages     `toml:"languages"`
	Resources     Resources     `toml:"resources"`
	State         State         `toml:"state"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mkvkeep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MkvmergeBinary returns the configured multiplexer executable.
func (c *Config) MkvmergeBinary() string {
	if bin := strings.TrimSpace(c.Mkvmerge.Binary); bin != "" {
		return bin
	}
	return defaultMkvmergeBinary
}

// ToolTimeout returns the per-invocation timeout for mkvmerge, or zero when disabled.
func (c *Config) ToolTimeout() time.Duration {
	if c.Mkvmerge.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Mkvmerge.TimeoutSeconds) * time.Second
}

// StatePath returns the location of the processing state document for the active backend.
func (c *Config) StatePath() string {
	name := defaultStateFileJSON
	if c.State.Backend == StateBackendSQLite {
		name = defaultStateFileSQLite
	}
	return filepath.Join(c.Paths.StateDir, name)
}

// OutputDir returns the output directory for a given input directory.
func (c *Config) OutputDir(inputDir string) string {
	return filepath.Join(inputDir, c.Paths.OutputSubdir)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the sample configuration to path. Non-empty language
// lists replace the sample's defaults.
func CreateSample(path string, langs Languages) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	doc := sampleConfig
	if len(langs.AudioSource) > 0 {
		doc = setListKey(doc, "audio_source", langs.AudioSource)
	}
	if len(langs.SubtitleTarget) > 0 {
		doc = setListKey(doc, "subtitle_target", langs.SubtitleTarget)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// setListKey rewrites the `key = [...]` line of doc.
func setListKey(doc, key string, values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range normalizeCodes(values) {
		quoted = append(quoted, strconv.Quote(v))
	}
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, key+" = ") {
			lines[i] = key + " = [" + strings.Join(quoted, ", ") + "]"
		}
	}
	return strings.Join(lines, "\n")
}
