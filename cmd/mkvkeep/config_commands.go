package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mkvkeep/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
		langs      config.Languages
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, err := os.Stat(target)
				switch {
				case err == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target, langs); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			if len(langs.AudioSource) == 0 && len(langs.SubtitleTarget) == 0 {
				fmt.Fprintln(out, "Edit [languages] to match your library before the first run.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	cmd.Flags().StringSliceVar(&langs.AudioSource, "source-lang", nil, "Original audio language codes (e.g. jpn,ja)")
	cmd.Flags().StringSliceVar(&langs.SubtitleTarget, "target-lang", nil, "Subtitle language codes to keep (e.g. fre,fr)")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			source := ctx.configPath
			if _, err := os.Stat(source); err != nil {
				source += " (not found, defaults used)"
			}
			r := cfg.Resources
			rows := [][]string{
				{"Config", source},
				{"mkvmerge", cfg.MkvmergeBinary()},
				{"Source audio", strings.Join(cfg.Languages.AudioSource, ", ")},
				{"Target subtitles", strings.Join(cfg.Languages.SubtitleTarget, ", ")},
				{"Output", cfg.Paths.OutputSubdir + "/" + cfg.Paths.OutputPrefix + "<name>"},
				{"Processes", fmt.Sprintf("%d-%d", r.MinProcesses, r.MaxProcesses)},
				{"Space factor", strconv.FormatFloat(r.SpaceFactor, 'f', -1, 64)},
				{"State", cfg.State.Backend + " (" + cfg.StatePath() + ")"},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
