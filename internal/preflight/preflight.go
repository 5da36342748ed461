package preflight

import (
	"context"
	"path/filepath"

	"mkvkeep/internal/config"
	"mkvkeep/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and dependency checks for cfg. When
// inputDir is non-empty the input directory and its output location are
// checked as well.
func RunAll(ctx context.Context, cfg *config.Config, inputDir string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if inputDir != "" {
		results = append(results, CheckDirectoryAccess("Input directory", inputDir))
		results = append(results, CheckOutputLocation(cfg.OutputDir(inputDir)))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, FromStatus(status))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// CheckOutputLocation verifies the output directory, or its parent when it
// does not exist yet, is writable.
func CheckOutputLocation(outputDir string) Result {
	const name = "Output directory"
	result := CheckDirectoryAccess(name, outputDir)
	if result.Passed {
		return result
	}
	parent := CheckDirectoryAccess(name, filepath.Dir(outputDir))
	if parent.Passed {
		return Result{Name: name, Passed: true, Detail: outputDir + " (will be created)"}
	}
	return result
}

// FromStatus converts a dependency status into a check result.
func FromStatus(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Path
		if status.Version != "" {
			detail = status.Version + " (" + status.Path + ")"
		}
	}
	return Result{
		Name:   status.Name,
		Passed: status.Available || status.Optional,
		Detail: detail,
	}
}
