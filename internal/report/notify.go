package report

import (
	"context"

	"mkvkeep/internal/batch"
	"mkvkeep/internal/notifications"
)

// NotifyReporter pushes the summary through a notification service.
type NotifyReporter struct {
	svc notifications.Service
}

// NewNotifyReporter constructs a NotifyReporter.
func NewNotifyReporter(svc notifications.Service) *NotifyReporter {
	return &NotifyReporter{svc: svc}
}

// Report implements batch.Reporter.
func (r *NotifyReporter) Report(ctx context.Context, s batch.Summary) error {
	if r == nil || r.svc == nil {
		return nil
	}
	return r.svc.Publish(ctx, notifications.EventBatchCompleted, notifications.Payload{
		"succeeded": s.Succeeded(),
		"total":     s.Total,
		"failed":    s.Failed,
		"inputDir":  s.InputDir,
		"elapsed":   s.Elapsed,
		"saved":     FormatSaved(s),
	})
}
