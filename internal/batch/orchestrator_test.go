package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mkvkeep/internal/batch"
	"mkvkeep/internal/catalog"
	"mkvkeep/internal/config"
	"mkvkeep/internal/job"
	"mkvkeep/internal/logging"
	"mkvkeep/internal/mkvmerge"
	"mkvkeep/internal/resources"
	"mkvkeep/internal/selection"
	"mkvkeep/internal/services"
	"mkvkeep/internal/state"
	"mkvkeep/internal/testsupport"
)

const fileSize = 2048

type fixedSizer struct{ width int }

func (f fixedSizer) Compute(context.Context) (resources.Plan, resources.Snapshot, error) {
	return resources.Plan{Parallelism: f.width}, resources.Snapshot{Cores: 8}, nil
}

type recordingReporter struct{ summaries []batch.Summary }

func (r *recordingReporter) Report(_ context.Context, s batch.Summary) error {
	r.summaries = append(r.summaries, s)
	return nil
}

type recordingProgress struct {
	total int
	done  []string
	ended bool
}

func (p *recordingProgress) Start(total int)    { p.total = total }
func (p *recordingProgress) Done(o job.Outcome) { p.done = append(p.done, o.Job.Name) }
func (p *recordingProgress) Finish()            { p.ended = true }

type countingSelector struct {
	inner selection.Selector
	files []string
}

func (c *countingSelector) Choose(ctx context.Context, prompt selection.Prompt) ([]catalog.Track, error) {
	c.files = append(c.files, prompt.Label)
	return c.inner.Choose(ctx, prompt)
}

type harness struct {
	cfg      *config.Config
	store    *state.Store
	inputDir string
	argsLog  string
	reporter *recordingReporter
	progress *recordingProgress
	selector *countingSelector
	orch     *batch.Orchestrator
}

func newHarness(t *testing.T, stub testsupport.Stub, files ...string) *harness {
	t.Helper()
	inputDir := t.TempDir()
	stub.ArgsLog = filepath.Join(t.TempDir(), "args.log")
	if stub.Identify == "" {
		stub.Identify = testsupport.SampleIdentify
	}
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedMkvmerge(stub))
	testsupport.WriteEpisodes(t, inputDir, fileSize, files...)
	testsupport.WriteFile(t, filepath.Join(inputDir, "notes.txt"), 10)

	store, err := state.Open(cfg, state.Options{})
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	client := mkvmerge.New(cfg.MkvmergeBinary(), cfg.ToolTimeout(), logging.NewNop())
	h := &harness{
		cfg:      cfg,
		store:    store,
		inputDir: inputDir,
		argsLog:  stub.ArgsLog,
		reporter: &recordingReporter{},
		progress: &recordingProgress{},
		selector: &countingSelector{inner: selection.Preset{}},
	}
	h.orch = batch.New(cfg, batch.Dependencies{
		Store:     store,
		Reader:    catalog.NewReader(client, cfg.Languages),
		Muxer:     client,
		Sizer:     fixedSizer{width: 2},
		Selector:  h.selector,
		Reporters: []batch.Reporter{h.reporter},
		Progress:  h.progress,
		Logger:    logging.NewNop(),
	})
	return h
}

func (h *harness) muxedInputs(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(h.argsLog)
	if err != nil {
		t.Fatalf("read args log: %v", err)
	}
	var inputs []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.HasPrefix(line, "-o ") {
			fields := strings.Fields(line)
			inputs = append(inputs, filepath.Base(fields[len(fields)-1]))
		}
	}
	return inputs
}

func TestRunResumeSkipsProcessedFile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.Stub{}, "ep01.mkv", "ep02.mkv", "ep03.mkv")
	if err := h.store.MarkProcessed(ctx, "ep01.mkv"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	summary, err := h.orch.Run(ctx, batch.Options{InputDir: h.inputDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Phase != batch.PhaseDone {
		t.Fatalf("unexpected phase %s", summary.Phase)
	}
	if summary.Total != 3 || summary.Processed != 2 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.Succeeded() != 3 {
		t.Fatalf("expected 3 succeeded, got %d", summary.Succeeded())
	}
	if summary.Representative != "ep02.mkv" {
		t.Fatalf("expected first unprocessed file as representative, got %q", summary.Representative)
	}
	muxed := h.muxedInputs(t)
	if len(muxed) != 2 {
		t.Fatalf("expected two remuxes, got %v", muxed)
	}
	for _, name := range muxed {
		if name == "ep01.mkv" {
			t.Fatal("processed file was remuxed again")
		}
	}
	if got := h.store.ProcessedFiles(); len(got) != 3 {
		t.Fatalf("expected all files processed, got %v", got)
	}
	if h.progress.total != 2 || len(h.progress.done) != 2 || !h.progress.ended {
		t.Fatalf("unexpected progress: %+v", h.progress)
	}
	if len(h.reporter.summaries) != 1 {
		t.Fatalf("expected one report, got %d", len(h.reporter.summaries))
	}
}

func TestRunRecordsToolFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.Stub{FailOn: "ep02", FailMessage: "Error: unsupported codec"},
		"ep01.mkv", "ep02.mkv", "ep03.mkv")

	summary, err := h.orch.Run(ctx, batch.Options{InputDir: h.inputDir})
	if err != nil {
		t.Fatalf("a file failure must not fail the batch: %v", err)
	}
	if summary.Processed != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected one failure, got %+v", summary.Failures)
	}
	failure := summary.Failures[0]
	if failure.Name != "ep02.mkv" || failure.Kind != "ToolInvocationError" {
		t.Fatalf("unexpected failure: %+v", failure)
	}
	if !strings.Contains(failure.Reason, "unsupported codec") {
		t.Fatalf("expected stderr in reason, got %q", failure.Reason)
	}
	failed := h.store.FailedEntries()
	if !strings.Contains(failed["ep02.mkv"], "unsupported codec") {
		t.Fatalf("expected failure persisted, got %v", failed)
	}
	if h.store.IsProcessed("ep02.mkv") {
		t.Fatal("failed file must not be processed")
	}
	if _, err := os.Stat(filepath.Join(h.inputDir, "processed", "processed_ep01.mkv")); err != nil {
		t.Fatalf("expected output for ep01: %v", err)
	}
}

func TestRunRetriesFailedFilesOnResume(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.Stub{}, "ep01.mkv")
	if err := h.store.MarkFailed(ctx, "ep01.mkv", "tool invocation error: boom"); err != nil {
		t.Fatal(err)
	}

	summary, err := h.orch.Run(ctx, batch.Options{InputDir: h.inputDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("expected failed file to be retried: %+v", summary)
	}
	if len(h.store.FailedEntries()) != 0 {
		t.Fatalf("expected failure cleared, got %v", h.store.FailedEntries())
	}
}

func TestRunFreshIgnoresStoredState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.Stub{}, "ep01.mkv", "ep02.mkv")
	if err := h.store.MarkProcessed(ctx, "ep01.mkv"); err != nil {
		t.Fatal(err)
	}

	summary, err := h.orch.Run(ctx, batch.Options{InputDir: h.inputDir, Fresh: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 2 || summary.Skipped != 0 {
		t.Fatalf("expected both files processed, got %+v", summary)
	}
	if summary.InitialSize != 2*fileSize || summary.FinalSize != 2*fileSize {
		t.Fatalf("unexpected sizes: initial=%d final=%d", summary.InitialSize, summary.FinalSize)
	}
	if summary.SavedBytes() != 0 || summary.SavedPercent() != 0 {
		t.Fatalf("unexpected savings: %d %.1f", summary.SavedBytes(), summary.SavedPercent())
	}
}

func TestRunEmptyInput(t *testing.T) {
	h := newHarness(t, testsupport.Stub{})

	summary, err := h.orch.Run(context.Background(), batch.Options{InputDir: h.inputDir})
	if !errors.Is(err, services.ErrEmptyInput) {
		t.Fatalf("expected empty input, got %v", err)
	}
	if summary.Phase != batch.PhaseEmptyInput {
		t.Fatalf("unexpected phase %s", summary.Phase)
	}
	if len(h.reporter.summaries) != 0 {
		t.Fatal("empty input must not produce a summary report")
	}
}

type cancelingSelector struct{}

func (cancelingSelector) Choose(context.Context, selection.Prompt) ([]catalog.Track, error) {
	return nil, services.Wrap(services.ErrSelectionCanceled, "selection", "audio", "canceled by user", nil)
}

func TestRunSelectionCanceled(t *testing.T) {
	h := newHarness(t, testsupport.Stub{}, "ep01.mkv")
	h.selector.inner = cancelingSelector{}

	summary, err := h.orch.Run(context.Background(), batch.Options{InputDir: h.inputDir})
	if !errors.Is(err, services.ErrSelectionCanceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
	if summary.Phase != batch.PhaseCanceled {
		t.Fatalf("unexpected phase %s", summary.Phase)
	}
	if len(h.store.ProcessedFiles()) != 0 || len(h.reporter.summaries) != 0 {
		t.Fatal("canceled run must not process or report")
	}
}

func TestRunAllProcessedSkipsSelection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testsupport.Stub{}, "ep01.mkv", "ep02.mkv")
	for _, name := range []string{"ep01.mkv", "ep02.mkv"} {
		if err := h.store.MarkProcessed(ctx, name); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := h.orch.Run(ctx, batch.Options{InputDir: h.inputDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 2 || summary.Processed != 0 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if len(h.selector.files) != 0 {
		t.Fatalf("selection should not run, got prompts %v", h.selector.files)
	}
}

func TestRunJobsOverride(t *testing.T) {
	h := newHarness(t, testsupport.Stub{}, "ep01.mkv", "ep02.mkv", "ep03.mkv")

	summary, err := h.orch.Run(context.Background(), batch.Options{InputDir: h.inputDir, Jobs: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Parallelism != 1 || summary.Processed != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunMissingInputDir(t *testing.T) {
	h := newHarness(t, testsupport.Stub{})

	_, err := h.orch.Run(context.Background(), batch.Options{InputDir: filepath.Join(h.inputDir, "missing")})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
