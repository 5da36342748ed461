package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMkvmerge()
	c.normalizeLanguages()
	c.normalizeResources()
	c.normalizeState()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.OutputSubdir = strings.TrimSpace(c.Paths.OutputSubdir)
	if c.Paths.OutputSubdir == "" {
		c.Paths.OutputSubdir = defaultOutputSubdir
	}
	c.Paths.OutputPrefix = strings.TrimSpace(c.Paths.OutputPrefix)

	exts := make([]string, 0, len(c.Paths.Extensions))
	seen := make(map[string]struct{}, len(c.Paths.Extensions))
	for _, ext := range c.Paths.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{defaultOutputExtension}
	}
	c.Paths.Extensions = exts
	return nil
}

func (c *Config) normalizeMkvmerge() {
	c.Mkvmerge.Binary = strings.TrimSpace(c.Mkvmerge.Binary)
	if value, ok := os.LookupEnv(mkvmergeBinaryEnv); ok && strings.TrimSpace(value) != "" {
		c.Mkvmerge.Binary = strings.TrimSpace(value)
	}
	if c.Mkvmerge.Binary == "" {
		c.Mkvmerge.Binary = defaultMkvmergeBinary
	}
	if c.Mkvmerge.TimeoutSeconds < 0 {
		c.Mkvmerge.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeLanguages() {
	c.Languages.AudioSource = normalizeCodes(c.Languages.AudioSource)
	c.Languages.SubtitleTarget = normalizeCodes(c.Languages.SubtitleTarget)
}

// normalizeCodes lowercases and de-duplicates codes without mapping between
// ISO 639 variants; membership tests compare raw codes.
func normalizeCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized := strings.ToLower(strings.TrimSpace(code))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func (c *Config) normalizeResources() {
	if c.Resources.CPUSampleMillis < 0 {
		c.Resources.CPUSampleMillis = 0
	}
	if c.Resources.SpaceFactor <= 0 {
		c.Resources.SpaceFactor = defaultSpaceFactor
	}
}

func (c *Config) normalizeState() {
	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))
	if c.State.Backend == "" {
		c.State.Backend = StateBackendJSON
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(ntfyTopicEnv); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
