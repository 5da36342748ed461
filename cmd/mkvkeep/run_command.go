package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"mkvkeep/internal/batch"
	"mkvkeep/internal/logging"
	"mkvkeep/internal/notifications"
	"mkvkeep/internal/preflight"
	"mkvkeep/internal/report"
	"mkvkeep/internal/resources"
	"mkvkeep/internal/selection"
	"mkvkeep/internal/services"
	"mkvkeep/internal/state"
)

type runFlags struct {
	output      string
	resume      bool
	fresh       bool
	audio       string
	subtitles   string
	noSubtitles bool
	jobs        int
	yes         bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <input_dir>",
		Short: "Process every MKV file in a directory",
		Long: "Select reference tracks on the first unprocessed file, then remux every file in\n" +
			"the directory keeping only the matching tracks. Progress is recorded so an\n" +
			"interrupted run resumes where it stopped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output directory (default: <input_dir>/processed)")
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "Skip files recorded as processed without asking")
	cmd.Flags().BoolVar(&flags.fresh, "fresh", false, "Discard recorded progress and process every file")
	cmd.Flags().StringVar(&flags.audio, "audio", "", "Audio track IDs to keep, as shown by `mkvkeep tracks`")
	cmd.Flags().StringVar(&flags.subtitles, "subtitles", "", "Subtitle track IDs to keep; the first is the default track")
	cmd.Flags().BoolVar(&flags.noSubtitles, "no-subtitles", false, "Drop all subtitle tracks")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "Fix the number of parallel mkvmerge processes")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Accept suggested tracks instead of prompting")
	cmd.MarkFlagsMutuallyExclusive("resume", "fresh")
	cmd.MarkFlagsMutuallyExclusive("subtitles", "no-subtitles")
	return cmd
}

func runBatch(cmd *cobra.Command, ctx *commandContext, inputDir string, flags runFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if flags.jobs < 0 {
		return fmt.Errorf("--jobs must be positive")
	}
	logger, err := ctx.logger(cmd)
	if err != nil {
		return err
	}
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	if failed := preflight.Failed(preflight.RunAll(runCtx, cfg, inputDir)); len(failed) > 0 {
		var parts []string
		for _, r := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(parts, "; "), nil)
	}

	selector, err := buildSelector(cmd, flags)
	if err != nil {
		return err
	}

	store, err := ctx.openStore(logger, false)
	if err != nil {
		return err
	}
	defer closeQuietly(store)

	fresh := flags.fresh
	if !flags.resume && !flags.fresh && !flags.yes {
		fresh, err = askFresh(runCtx, cmd, store)
		if err != nil {
			return err
		}
	}

	reader, client, err := ctx.catalogReader(logger)
	if err != nil {
		return err
	}
	notifier := notifications.NewService(cfg)

	orch := batch.New(cfg, batch.Dependencies{
		Store:    store,
		Reader:   reader,
		Muxer:    client,
		Sizer:    resources.NewSizer(resources.NewHostSampler(cfg.Resources.CPUSampleMillis), cfg.Resources),
		Selector: selector,
		Reporters: []batch.Reporter{
			report.NewTableReporter(cmd.OutOrStdout()),
			report.NewNotifyReporter(notifier),
		},
		Progress: report.NewProgress(cmd.ErrOrStderr(), logger),
		Logger:   logger,
	})

	summary, err := orch.Run(runCtx, batch.Options{
		InputDir:  inputDir,
		OutputDir: flags.output,
		Fresh:     fresh,
		Jobs:      flags.jobs,
	})
	if err != nil {
		return handleRunError(runCtx, cmd, logger, notifier, summary, err)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed; rerun to retry them", summary.Failed, summary.Total)
	}
	return nil
}

func handleRunError(ctx context.Context, cmd *cobra.Command, logger *slog.Logger, notifier notifications.Service, summary batch.Summary, err error) error {
	switch {
	case errors.Is(err, services.ErrSelectionCanceled):
		fmt.Fprintln(cmd.OutOrStdout(), "Selection canceled; nothing was processed.")
		return nil
	case errors.Is(err, services.ErrEmptyInput):
		fmt.Fprintf(cmd.OutOrStdout(), "No eligible files in %s.\n", summary.InputDir)
		return nil
	case errors.Is(err, context.Canceled) && summary.Interrupted:
		fmt.Fprintf(cmd.OutOrStdout(), "Interrupted; %d file(s) not started. Rerun with --resume to continue.\n", summary.NotStarted)
		return err
	}
	if pubErr := notifier.Publish(context.WithoutCancel(ctx), notifications.EventError, notifications.Payload{
		"context": "batch " + summary.InputDir,
		"error":   err,
	}); pubErr != nil {
		logger.Warn("error notification failed", logging.Error(pubErr))
	}
	return err
}

// buildSelector picks the preset selector when track flags are given or the
// terminal is not interactive.
func buildSelector(cmd *cobra.Command, flags runFlags) (selection.Selector, error) {
	audio, err := selection.ParseIDs(flags.audio)
	if err != nil {
		return nil, fmt.Errorf("--audio: %w", err)
	}
	subs, err := selection.ParseIDs(flags.subtitles)
	if err != nil {
		return nil, fmt.Errorf("--subtitles: %w", err)
	}
	preset := flags.yes || len(audio) > 0 || len(subs) > 0 || flags.noSubtitles
	if preset || !report.Interactive(cmd.InOrStdin()) {
		return selection.Preset{AudioIDs: audio, SubtitleIDs: subs, NoSubtitles: flags.noSubtitles}, nil
	}
	return selection.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout()), nil
}

// askFresh asks whether to discard stored progress. Non-interactive input
// resumes.
func askFresh(ctx context.Context, cmd *cobra.Command, store *state.Store) (bool, error) {
	if err := store.Load(ctx); err != nil {
		return false, nil
	}
	done := len(store.ProcessedFiles())
	failed := len(store.FailedEntries())
	if done == 0 && failed == 0 {
		return false, nil
	}
	if !report.Interactive(cmd.InOrStdin()) {
		return false, nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found %d processed and %d failed file(s) from a previous run. Resume? [Y/n] ", done, failed)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "no":
		return true, nil
	default:
		return false, nil
	}
}
