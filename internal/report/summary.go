package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mkvkeep/internal/batch"
)

// TableReporter writes the summary as tables to a writer.
type TableReporter struct {
	out io.Writer
}

// NewTableReporter constructs a TableReporter.
func NewTableReporter(out io.Writer) *TableReporter {
	return &TableReporter{out: out}
}

// Report implements batch.Reporter.
func (r *TableReporter) Report(_ context.Context, s batch.Summary) error {
	_, err := fmt.Fprintln(r.out, RenderSummary(s))
	return err
}

// RenderSummary formats s as a key/value table followed by a failure table
// when any file failed.
func RenderSummary(s batch.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Batch summary")
	tw.AppendRows([]table.Row{
		{"Input", s.InputDir},
		{"Output", s.OutputDir},
		{"Processed", fmt.Sprintf("%d/%d", s.Succeeded(), s.Total)},
		{"Skipped (already done)", s.Skipped},
		{"Failed", s.Failed},
		{"Parallelism", s.Parallelism},
		{"Elapsed", FormatElapsed(s.Elapsed)},
		{"Initial size", humanize.IBytes(nonNegative(s.InitialSize))},
		{"Final size", humanize.IBytes(nonNegative(s.FinalSize))},
		{"Saved", FormatSaved(s)},
	})
	if s.NotStarted > 0 {
		tw.AppendRow(table.Row{"Not started", s.NotStarted})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})

	var b strings.Builder
	b.WriteString(tw.Render())
	if len(s.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(renderFailures(s.Failures))
	}
	return b.String()
}

func renderFailures(failures []batch.Failure) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Failed files")
	tw.AppendHeader(table.Row{"File", "Kind", "Reason"})
	for _, f := range failures {
		tw.AppendRow(table.Row{f.Name, f.Kind, f.Reason})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 80},
	})
	return tw.Render()
}

// FormatSaved renders the saved bytes with the percentage of the input.
func FormatSaved(s batch.Summary) string {
	saved := s.SavedBytes()
	sign := ""
	if saved < 0 {
		sign = "-"
		saved = -saved
	}
	return fmt.Sprintf("%s%s (%.1f%%)", sign, humanize.IBytes(uint64(saved)), s.SavedPercent())
}

// FormatElapsed renders d rounded to seconds.
func FormatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func nonNegative(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
