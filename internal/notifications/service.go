package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mkvkeep/internal/config"
)

const userAgent = "mkvkeep/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventBatchStarted   Event = "batch_started"
	EventBatchCompleted Event = "batch_completed"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event fields. Missing keys render as empty values.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

// format renders event. Events without a rendering are suppressed.
func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBatchCompleted:
		succeeded := intValue(payload["succeeded"])
		total := intValue(payload["total"])
		failed := intValue(payload["failed"])
		duration := durationText(payload["elapsed"])
		dir := stringValue(payload["inputDir"])

		title := "mkvkeep - Batch Complete"
		body := fmt.Sprintf("✅ %d/%d files in %s (%s)", succeeded, total, dir, duration)
		priority := ""
		if failed > 0 {
			title = "mkvkeep - Batch Complete (with errors)"
			body = fmt.Sprintf("⚠️ %d/%d files in %s, %d failed (%s)", succeeded, total, dir, failed, duration)
			priority = "high"
		}
		if saved := stringValue(payload["saved"]); saved != "" {
			body += "\nSaved: " + saved
		}
		return message{title: title, body: body, tags: []string{"mkvkeep", "batch", "completed"}, priority: priority}, true
	case EventError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := stringValue(payload["context"]); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if text := stringValue(payload["error"]); text != "" {
			b.WriteString(text)
		} else {
			b.WriteString("unknown")
		}
		return message{title: "mkvkeep - Error", body: b.String(), tags: []string{"mkvkeep", "error", "alert"}, priority: "high"}, true
	case EventTest:
		return message{title: "mkvkeep - Test", body: "🧪 Notification system test", tags: []string{"mkvkeep", "test"}, priority: "low"}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func stringValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case error:
		return strings.TrimSpace(value.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func intValue(v any) int {
	switch value := v.(type) {
	case int:
		return value
	case int64:
		return int(value)
	default:
		return 0
	}
}

func durationText(v any) string {
	d, _ := v.(time.Duration)
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
