package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mkvkeep/internal/preflight"
	"mkvkeep/internal/report"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiBlue  = "\x1b[34m"

	checkLabelWidth = 20
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [input_dir]",
		Short: "Verify mkvmerge and the working directories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inputDir := ""
			if len(args) == 1 {
				inputDir = args[0]
			}

			out := cmd.OutOrStdout()
			colorize := report.Interactive(out)
			fmt.Fprintln(out, renderCheckHeader("Preflight", colorize))
			results := preflight.RunAll(cmd.Context(), cfg, inputDir)
			for _, r := range results {
				fmt.Fprintln(out, renderCheckLine(r, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
}

func renderCheckLine(r preflight.Result, colorize bool) string {
	status, color := "OK", ansiGreen
	if !r.Passed {
		status, color = "ERROR", ansiRed
	}
	line := fmt.Sprintf("  %-*s [%s]", checkLabelWidth, r.Name+":", status)
	if r.Detail != "" {
		line += " " + r.Detail
	}
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func renderCheckHeader(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	header := line + "\n" + strings.Repeat("-", len(line))
	if colorize {
		return ansiBlue + header + ansiReset
	}
	return header
}
