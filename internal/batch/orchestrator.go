package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"mkvkeep/internal/config"
	"mkvkeep/internal/fileutil"
	"mkvkeep/internal/job"
	"mkvkeep/internal/logging"
	"mkvkeep/internal/resources"
	"mkvkeep/internal/selection"
	"mkvkeep/internal/services"
	"mkvkeep/internal/state"
)

// Sizer computes the worker pool width.
type Sizer interface {
	Compute(ctx context.Context) (resources.Plan, resources.Snapshot, error)
}

// Reporter receives the summary of a finished run.
type Reporter interface {
	Report(ctx context.Context, summary Summary) error
}

// Progress observes dispatch. Calls come from the collector goroutine only.
type Progress interface {
	Start(total int)
	Done(outcome job.Outcome)
	Finish()
}

// Dependencies are the collaborators of an Orchestrator.
type Dependencies struct {
	Store     *state.Store
	Reader    job.CatalogReader
	Muxer     job.Muxer
	Sizer     Sizer
	Selector  selection.Selector
	Reporters []Reporter
	Progress  Progress
	Logger    *slog.Logger
}

// Options describe one run.
type Options struct {
	InputDir string
	// OutputDir defaults to the configured subdirectory of InputDir.
	OutputDir string
	// Fresh discards the stored state before the run instead of resuming.
	Fresh bool
	// Jobs fixes the pool width and skips host sampling when positive.
	Jobs int
}

// Orchestrator runs batches.
type Orchestrator struct {
	cfg    *config.Config
	deps   Dependencies
	logger *slog.Logger
}

// New constructs an Orchestrator.
func New(cfg *config.Config, deps Dependencies) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "batch"),
	}
}

type run struct {
	opts      Options
	files     []string
	pending   []string
	selection selection.Selection
	plan      resources.Plan
	summary   Summary
	started   time.Time
	logger    *slog.Logger
}

// Run executes one batch. The returned error is non-nil for batch-level
// failures; per-file failures are reported in the Summary only. When ctx is
// canceled during dispatch, jobs already started finish, the rest are left
// unrecorded, and the summary is returned with ctx's error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	if err := o.validate(); err != nil {
		return Summary{}, err
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	r := &run{opts: opts, started: time.Now(), logger: logging.WithContext(ctx, o.logger)}
	r.summary.RunID = runID

	if err := o.prepare(ctx, r); err != nil {
		if errors.Is(err, services.ErrEmptyInput) {
			r.summary.Phase = PhaseEmptyInput
			r.logger.Info("no eligible files", logging.String(logging.FieldEventType, "batch_empty"), logging.String("input_dir", r.summary.InputDir))
		}
		return r.summary, err
	}

	if len(r.pending) == 0 {
		r.logger.Info("all files already processed",
			logging.String(logging.FieldEventType, "batch_up_to_date"),
			logging.Int("file_count", len(r.files)),
		)
		r.summary.Skipped = len(r.files)
		o.aggregate(r)
		o.report(ctx, r)
		return r.summary, nil
	}

	phase := PhaseSelecting
	for !phase.Terminal() {
		r.summary.Phase = phase
		r.logger.Debug("entering phase", logging.String("phase", phase.String()))

		var err error
		switch phase {
		case PhaseSelecting:
			err = o.selectReference(ctx, r)
			phase = PhaseSizing
		case PhaseSizing:
			err = o.size(ctx, r)
			phase = PhaseDispatching
		case PhaseDispatching:
			err = o.dispatch(ctx, r)
			phase = PhaseAggregating
		case PhaseAggregating:
			o.aggregate(r)
			phase = PhaseDone
		}
		if err != nil {
			if errors.Is(err, services.ErrSelectionCanceled) {
				r.summary.Phase = PhaseCanceled
				r.logger.Info("selection canceled", logging.String(logging.FieldEventType, "batch_canceled"))
			}
			return r.summary, err
		}
	}
	r.summary.Phase = PhaseDone

	o.report(ctx, r)
	if r.summary.Interrupted {
		return r.summary, ctx.Err()
	}
	return r.summary, nil
}

func (o *Orchestrator) validate() error {
	switch {
	case o.cfg == nil:
		return services.Wrap(services.ErrConfiguration, "batch", "run", "config is required", nil)
	case o.deps.Store == nil:
		return services.Wrap(services.ErrConfiguration, "batch", "run", "state store is required", nil)
	case o.deps.Reader == nil || o.deps.Muxer == nil:
		return services.Wrap(services.ErrConfiguration, "batch", "run", "mkvmerge client is required", nil)
	case o.deps.Selector == nil:
		return services.Wrap(services.ErrConfiguration, "batch", "run", "track selector is required", nil)
	case o.deps.Sizer == nil:
		return services.Wrap(services.ErrConfiguration, "batch", "run", "resource sizer is required", nil)
	}
	return nil
}

// prepare resolves directories, applies the resume policy, and lists files.
func (o *Orchestrator) prepare(ctx context.Context, r *run) error {
	inputDir, err := config.ExpandPath(r.opts.InputDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "input directory", r.opts.InputDir, err)
	}
	info, err := os.Stat(inputDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "input directory", inputDir, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "batch", "input directory", inputDir+" is not a directory", nil)
	}
	outputDir := o.cfg.OutputDir(inputDir)
	if r.opts.OutputDir != "" {
		if outputDir, err = config.ExpandPath(r.opts.OutputDir); err != nil {
			return services.Wrap(services.ErrConfiguration, "batch", "output directory", r.opts.OutputDir, err)
		}
	}
	r.summary.InputDir = inputDir
	r.summary.OutputDir = outputDir

	store := o.deps.Store
	if r.opts.Fresh {
		if err := store.Reset(ctx); err != nil {
			o.warnState(r.logger, "state reset not persisted", err)
		}
	} else if err := store.Load(ctx); err != nil {
		o.warnState(r.logger, "state could not be loaded; starting empty", err)
	}

	files, err := fileutil.ListFiles(inputDir, o.cfg.Paths.Extensions)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "list input", inputDir, err)
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrEmptyInput, "batch", "list input", inputDir, nil)
	}
	r.files = files
	r.summary.Total = len(files)
	for _, name := range files {
		if !store.IsProcessed(name) {
			r.pending = append(r.pending, name)
		}
	}

	if r.summary.InitialSize, err = fileutil.FilesSize(inputDir, files); err != nil {
		r.logger.Warn("could not size input files", logging.Error(err))
	}
	r.logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.String("input_dir", inputDir),
		logging.String("output_dir", outputDir),
		logging.Int("file_count", len(files)),
		logging.Int("pending_count", len(r.pending)),
		logging.Bool("resume", !r.opts.Fresh),
		logging.Int64("input_size_bytes", r.summary.InitialSize),
	)
	return nil
}

// selectReference catalogs the representative file and asks for tracks.
func (o *Orchestrator) selectReference(ctx context.Context, r *run) error {
	name := r.pending[0]
	r.summary.Representative = name
	cat, err := o.deps.Reader.Read(ctx, filepath.Join(r.summary.InputDir, name))
	if err != nil {
		return err
	}
	sel, err := selection.Select(ctx, o.deps.Selector, cat)
	if err != nil {
		return err
	}
	r.selection = sel
	r.summary.Selection = sel

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "reference_selected"),
		logging.String("representative", name),
		logging.Int("audio_count", len(sel.Audio)),
		logging.Int("subtitle_count", len(sel.Subtitles)),
	}
	if main, ok := sel.MainSubtitle(); ok {
		attrs = append(attrs, logging.String("main_subtitle", main.Label()))
	}
	r.logger.Info("reference tracks selected", logging.Args(attrs...)...)
	return nil
}

func (o *Orchestrator) size(ctx context.Context, r *run) error {
	if r.opts.Jobs > 0 {
		r.plan = resources.Plan{Parallelism: r.opts.Jobs}
		r.summary.Parallelism = r.opts.Jobs
		r.logger.Info("parallelism fixed",
			logging.String(logging.FieldEventType, "pool_sized"),
			logging.Int("parallelism", r.opts.Jobs),
		)
		return nil
	}
	plan, snapshot, err := o.deps.Sizer.Compute(ctx)
	if err != nil {
		logging.WarnWithContext(r.logger, "host sampling failed; using minimum parallelism", "resource_sample_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check /proc access or pass --jobs"),
		)
	}
	r.plan = plan
	r.summary.Parallelism = plan.Parallelism
	r.logger.Info("host configuration",
		logging.String(logging.FieldEventType, "host_sampled"),
		logging.Int("cores", snapshot.Cores),
		logging.Uint64("total_memory_bytes", snapshot.TotalMemory),
		logging.Uint64("available_memory_bytes", snapshot.AvailableMemory),
		logging.Float64("cpu_load", snapshot.CPULoad),
	)
	r.logger.Info("pool sized",
		logging.String(logging.FieldEventType, "pool_sized"),
		logging.Int("parallelism", plan.Parallelism),
		logging.Int("cpu_cap", plan.CPUCap),
		logging.Int("memory_cap", plan.MemoryCap),
		logging.Int("load_cap", plan.LoadCap),
	)
	return nil
}

// dispatch feeds pending jobs to a fixed pool and collects outcomes.
func (o *Orchestrator) dispatch(ctx context.Context, r *run) error {
	if err := os.MkdirAll(r.summary.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "output directory", r.summary.OutputDir, err)
	}

	runner := job.NewRunner(o.cfg, o.deps.Reader, o.deps.Muxer, o.deps.Store, o.deps.Logger)

	workers := max(min(r.plan.Parallelism, len(r.pending)), 1)
	tasks := make(chan job.Job)
	results := make(chan job.Outcome, workers)

	progress := o.deps.Progress
	if progress != nil {
		progress.Start(len(r.pending))
	}

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		o.collect(ctx, r, results)
	}()

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			workerCtx := context.WithoutCancel(services.WithWorker(ctx, index))
			for task := range tasks {
				results <- runner.Run(workerCtx, task, r.selection)
			}
		}(i + 1)
	}

	dispatched := 0
dispatchLoop:
	for _, name := range r.pending {
		task := job.Job{
			Name:       name,
			InputPath:  filepath.Join(r.summary.InputDir, name),
			OutputPath: filepath.Join(r.summary.OutputDir, o.cfg.Paths.OutputPrefix+name),
		}
		select {
		case <-ctx.Done():
			break dispatchLoop
		case tasks <- task:
			dispatched++
		}
	}
	close(tasks)
	wg.Wait()
	close(results)
	<-collected

	if progress != nil {
		progress.Finish()
	}

	r.summary.Skipped += len(r.files) - len(r.pending)
	if dispatched < len(r.pending) {
		r.summary.NotStarted = len(r.pending) - dispatched
		r.summary.Interrupted = true
		logging.WarnWithContext(r.logger, "dispatch interrupted", "batch_interrupted",
			logging.Int("not_started", r.summary.NotStarted),
			logging.String(logging.FieldImpact, "remaining files are picked up by the next resumed run"),
		)
	}
	return nil
}

// collect is the single writer of the state store.
func (o *Orchestrator) collect(ctx context.Context, r *run, results <-chan job.Outcome) {
	store := o.deps.Store
	stateCtx := context.WithoutCancel(ctx)
	for outcome := range results {
		name := outcome.Job.Name
		switch {
		case outcome.Skipped:
			r.summary.Skipped++
		case outcome.Err == nil:
			r.summary.Processed++
			if err := store.MarkProcessed(stateCtx, name); err != nil {
				o.warnState(r.logger, "processed file not persisted", err)
			}
		default:
			r.summary.Failed++
			r.summary.Failures = append(r.summary.Failures, Failure{
				Name:   name,
				Kind:   services.Kind(outcome.Err),
				Reason: outcome.Reason(),
			})
			if err := store.MarkFailed(stateCtx, name, outcome.Reason()); err != nil {
				o.warnState(r.logger, "failed file not persisted", err)
			}
		}
		if o.deps.Progress != nil {
			o.deps.Progress.Done(outcome)
		}
	}
	sortFailures(r.summary.Failures)
}

func (o *Orchestrator) aggregate(r *run) {
	finalSize, err := fileutil.DirSize(r.summary.OutputDir)
	if err != nil {
		r.logger.Warn("could not size output directory", logging.Error(err))
	}
	r.summary.FinalSize = finalSize
	r.summary.Elapsed = time.Since(r.started)
	r.summary.Phase = PhaseDone

	r.logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_completed"),
		logging.String("result", fmt.Sprintf("%d/%d", r.summary.Succeeded(), r.summary.Total)),
		logging.Int("failed", r.summary.Failed),
		logging.Int64("initial_size_bytes", r.summary.InitialSize),
		logging.Int64("final_size_bytes", r.summary.FinalSize),
		logging.Duration("elapsed", r.summary.Elapsed.Round(time.Second)),
	)
}

// report hands the summary to every reporter. Reporter errors are logged.
func (o *Orchestrator) report(ctx context.Context, r *run) {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, reporter := range o.deps.Reporters {
		if reporter == nil {
			continue
		}
		if err := reporter.Report(ctx, r.summary); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		logging.WarnWithContext(r.logger, "summary reporting failed", "report_failed", logging.Error(err))
	}
}

func (o *Orchestrator) warnState(logger *slog.Logger, msg string, err error) {
	logging.WarnWithContext(logger, msg, "state_io_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, "check permissions on the state directory"),
		logging.String(logging.FieldImpact, "run continues with in-memory state"),
	)
}
