package report

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"mkvkeep/internal/batch"
	"mkvkeep/internal/job"
	"mkvkeep/internal/logging"
)

// Interactive reports whether stream is a terminal.
func Interactive(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewProgress returns a progress bar on interactive terminals and a
// log-based progress reporter otherwise.
func NewProgress(w io.Writer, logger *slog.Logger) batch.Progress {
	if Interactive(w) {
		return &barProgress{out: w}
	}
	return &logProgress{logger: logging.NewComponentLogger(logger, "progress")}
}

type barProgress struct {
	out      io.Writer
	progress *mpb.Progress
	bar      *mpb.Bar
}

func (b *barProgress) Start(total int) {
	b.progress = mpb.New(mpb.WithOutput(b.out), mpb.WithWidth(64))
	b.bar = b.progress.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Processing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 30),
		),
	)
}

func (b *barProgress) Done(outcome job.Outcome) {
	if b.bar == nil {
		return
	}
	b.bar.EwmaIncrement(outcome.Duration)
}

func (b *barProgress) Finish() {
	if b.progress == nil {
		return
	}
	if b.bar != nil && !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.progress.Wait()
}

type logProgress struct {
	logger *slog.Logger
	total  int
	done   int
}

func (l *logProgress) Start(total int) {
	l.total = total
	l.done = 0
}

func (l *logProgress) Done(outcome job.Outcome) {
	l.done++
	status := "ok"
	if outcome.Err != nil {
		status = "failed"
	}
	l.logger.Info("file finished",
		logging.String(logging.FieldFile, outcome.Job.Name),
		logging.String("status", status),
		logging.Int("done", l.done),
		logging.Int("total", l.total),
	)
}

func (l *logProgress) Finish() {}
