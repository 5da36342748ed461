package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateResources(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if filepath.IsAbs(c.Paths.OutputSubdir) {
		return errors.New("paths.output_subdir must be relative to the input directory")
	}
	if c.Paths.OutputSubdir == "." || c.Paths.OutputSubdir == ".." {
		return fmt.Errorf("paths.output_subdir %q would overwrite input files", c.Paths.OutputSubdir)
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if len(c.Languages.AudioSource) == 0 {
		return errors.New("languages.audio_source must include at least one language code")
	}
	if len(c.Languages.SubtitleTarget) == 0 {
		return errors.New("languages.subtitle_target must include at least one language code")
	}
	return nil
}

func (c *Config) validateResources() error {
	r := c.Resources
	if err := ensurePositiveMap(map[string]int{
		"resources.min_processes":      r.MinProcesses,
		"resources.max_processes":      r.MaxProcesses,
		"resources.memory_per_job_mib": r.MemoryPerJobMiB,
	}); err != nil {
		return err
	}
	if r.MinProcesses > r.MaxProcesses {
		return errors.New("resources.min_processes must not exceed resources.max_processes")
	}
	if r.MaxProcesses > maxReasonableProcessesCutoff {
		return fmt.Errorf("resources.max_processes must be <= %d", maxReasonableProcessesCutoff)
	}
	if r.MemoryBufferFraction < 0 || r.MemoryBufferFraction >= 1 {
		return errors.New("resources.memory_buffer_fraction must be in [0, 1)")
	}
	if r.SpaceFactor < 1 {
		return errors.New("resources.space_factor must be >= 1")
	}
	return nil
}

func (c *Config) validateState() error {
	switch c.State.Backend {
	case StateBackendJSON, StateBackendSQLite:
		return nil
	default:
		return fmt.Errorf("state.backend: unsupported value %q (want %q or %q)", c.State.Backend, StateBackendJSON, StateBackendSQLite)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
