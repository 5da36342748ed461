package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mkvkeep/internal/catalog"
	"mkvkeep/internal/config"
	"mkvkeep/internal/fileutil"
	"mkvkeep/internal/logging"
	"mkvkeep/internal/matcher"
	"mkvkeep/internal/mkvmerge"
	"mkvkeep/internal/selection"
	"mkvkeep/internal/services"
)

// CatalogReader reads a file's track catalog.
type CatalogReader interface {
	Read(ctx context.Context, path string) (*catalog.Catalog, error)
}

// Muxer runs a remux.
type Muxer interface {
	Mux(ctx context.Context, req mkvmerge.MuxRequest) error
}

// ProcessedChecker reports whether a file already completed.
type ProcessedChecker interface {
	IsProcessed(name string) bool
}

// Job names one unit of work.
type Job struct {
	Name       string
	InputPath  string
	OutputPath string
}

// Outcome is the result of running a Job.
type Outcome struct {
	Job         Job
	Skipped     bool
	Err         error
	InputSize   int64
	OutputSize  int64
	Duration    time.Duration
	AudioIDs    []int
	SubtitleIDs []int
}

// Succeeded reports whether the job completed or was skipped.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Reason is the failure text recorded in the state store.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Runner executes jobs.
type Runner struct {
	reader      CatalogReader
	muxer       Muxer
	processed   ProcessedChecker
	spaceFactor float64
	freeSpace   func(path string) (uint64, error)
	logger      *slog.Logger
}

// NewRunner builds a Runner. processed may be nil.
func NewRunner(cfg *config.Config, reader CatalogReader, muxer Muxer, processed ProcessedChecker, logger *slog.Logger) *Runner {
	factor := 1.5
	if cfg != nil && cfg.Resources.SpaceFactor > 0 {
		factor = cfg.Resources.SpaceFactor
	}
	return &Runner{
		reader:      reader,
		muxer:       muxer,
		processed:   processed,
		spaceFactor: factor,
		freeSpace:   fileutil.FreeSpace,
		logger:      logging.NewComponentLogger(logger, "job"),
	}
}

// WithFreeSpaceFunc overrides free space probing for tests.
func (r *Runner) WithFreeSpaceFunc(fn func(path string) (uint64, error)) {
	if r != nil && fn != nil {
		r.freeSpace = fn
	}
}

// Run processes job against the reference selection. It never panics on
// file-level problems; every failure is returned in the Outcome.
func (r *Runner) Run(ctx context.Context, job Job, sel selection.Selection) Outcome {
	ctx = services.WithFile(ctx, job.Name)
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()
	outcome := Outcome{Job: job}

	if r.processed != nil && r.processed.IsProcessed(job.Name) {
		logger.Debug("file already processed", logging.String(logging.FieldEventType, "job_skipped"))
		outcome.Skipped = true
		return outcome
	}

	outcome.Err = r.run(ctx, logger, job, sel, &outcome)
	outcome.Duration = time.Since(started)
	if outcome.Err != nil {
		logging.WarnWithContext(logger, "file processing failed", "job_failed",
			logging.String(logging.FieldErrorKind, services.Kind(outcome.Err)),
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, hintFor(outcome.Err)),
			logging.String(logging.FieldImpact, "file recorded as failed; batch continues"),
		)
		return outcome
	}
	logger.Info("file processed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.Int64("input_size_bytes", outcome.InputSize),
		logging.Int64("output_size_bytes", outcome.OutputSize),
		logging.TrackIDs("audio_tracks", outcome.AudioIDs),
		logging.TrackIDs("subtitle_tracks", outcome.SubtitleIDs),
		logging.Duration("elapsed", outcome.Duration.Round(time.Millisecond)),
	)
	return outcome
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, job Job, sel selection.Selection, outcome *Outcome) error {
	info, err := os.Stat(job.InputPath)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "job", "stat input", job.InputPath, err)
	}
	outcome.InputSize = info.Size()

	if err := r.ensureSpace(job, info.Size()); err != nil {
		return err
	}

	cat, err := r.reader.Read(ctx, job.InputPath)
	if err != nil {
		return err
	}

	req, err := r.plan(logger, job, cat, sel)
	if err != nil {
		return err
	}
	outcome.AudioIDs = req.AudioTrackIDs
	outcome.SubtitleIDs = req.SubtitleTrackIDs

	// A started mkvmerge process is bounded only by its own timeout.
	if err := r.muxer.Mux(context.WithoutCancel(ctx), req); err != nil {
		return err
	}

	out, err := os.Stat(job.OutputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrEmptyOutput, "job", "validate output", job.OutputPath+" was not created", nil)
		}
		return services.Wrap(services.ErrEmptyOutput, "job", "validate output", job.OutputPath, err)
	}
	if out.Size() == 0 {
		_ = os.Remove(job.OutputPath)
		return services.Wrap(services.ErrEmptyOutput, "job", "validate output", job.OutputPath+" is empty", nil)
	}
	outcome.OutputSize = out.Size()
	return nil
}

func (r *Runner) ensureSpace(job Job, size int64) error {
	dir := filepath.Dir(job.OutputPath)
	free, err := r.freeSpace(dir)
	if err != nil {
		return services.Wrap(services.ErrInsufficientSpace, "job", "free space", dir, err)
	}
	required := uint64(float64(size) * r.spaceFactor)
	if free < required {
		return services.Wrap(services.ErrInsufficientSpace, "job", "free space",
			fmt.Sprintf("%s has %d bytes free, need %d", dir, free, required), nil)
	}
	return nil
}

// plan maps the reference selection onto cat and builds the mux request.
func (r *Runner) plan(logger *slog.Logger, job Job, cat *catalog.Catalog, sel selection.Selection) (mkvmerge.MuxRequest, error) {
	req := mkvmerge.MuxRequest{InputPath: job.InputPath, OutputPath: job.OutputPath}

	audio := matcher.Resolve(sel.Audio, cat)
	for i, result := range audio {
		if !result.Found() {
			if i == 0 {
				return req, services.Wrap(services.ErrNoMatchingTrack, "job", "match audio",
					"no track for "+sel.Audio[0].Label(), nil)
			}
			logging.WarnWithContext(logger, "reference audio track not found", "track_unmatched",
				logging.String("reference", sel.Audio[i].Label()),
				logging.String(logging.FieldImpact, "track omitted from output"),
			)
			continue
		}
		logMatch(logger, sel.Audio[i], result)
		req.AudioTrackIDs = append(req.AudioTrackIDs, result.Track.ID)
	}

	subs := matcher.Resolve(sel.Subtitles, cat)
	for i, result := range subs {
		if !result.Found() {
			if i == 0 {
				return req, services.Wrap(services.ErrNoMatchingTrack, "job", "match subtitles",
					"no track for "+sel.Subtitles[0].Label(), nil)
			}
			logging.WarnWithContext(logger, "reference subtitle track not found", "track_unmatched",
				logging.String("reference", sel.Subtitles[i].Label()),
				logging.String(logging.FieldImpact, "track omitted from output"),
			)
			continue
		}
		logMatch(logger, sel.Subtitles[i], result)
		req.SubtitleTrackIDs = append(req.SubtitleTrackIDs, result.Track.ID)
	}

	logRemoved(logger, cat, req.AudioTrackIDs)
	return req, nil
}

func logMatch(logger *slog.Logger, reference catalog.Track, result matcher.Result) {
	attrs := []logging.Attr{
		logging.String("reference", reference.Label()),
		logging.String("track", result.Track.Label()),
		logging.String("tier", result.Tier.String()),
	}
	if result.Tier == matcher.TierSimilarity {
		attrs = append(attrs, logging.Float64("similarity", result.Similarity))
	}
	logger.Debug("track matched", logging.Args(attrs...)...)
}

// logRemoved reports dubbed audio tracks that will not be kept.
func logRemoved(logger *slog.Logger, cat *catalog.Catalog, kept []int) {
	keep := make(map[int]struct{}, len(kept))
	for _, id := range kept {
		keep[id] = struct{}{}
	}
	var removed []string
	for _, track := range cat.RemovableAudio() {
		if _, ok := keep[track.ID]; ok {
			continue
		}
		removed = append(removed, track.Label())
	}
	if len(removed) == 0 {
		return
	}
	logger.Info("removing dubbed audio",
		logging.String(logging.FieldEventType, "audio_removed"),
		logging.Int("removed_count", len(removed)),
		logging.String("removed_tracks", strings.Join(removed, "; ")),
	)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrInsufficientSpace):
		return "free space on the output filesystem or lower resources.space_factor"
	case errors.Is(err, services.ErrNoMatchingTrack):
		return "inspect the file with mkvkeep tracks and rerun with a different selection"
	case errors.Is(err, services.ErrCatalog):
		return "run mkvmerge -J on the file to inspect it"
	case errors.Is(err, services.ErrEmptyOutput):
		return "check mkvmerge output and free space"
	default:
		return "check mkvmerge output in the log"
	}
}
