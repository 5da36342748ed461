package mkvmerge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"mkvkeep/internal/logging"
	"mkvkeep/internal/services"
)

// Output captures the streams of a finished invocation.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// CommandRunner executes name with args. A non-nil error means the process
// could not start or exited non-zero; Output is populated either way.
type CommandRunner func(ctx context.Context, name string, args ...string) (Output, error)

// Client invokes mkvmerge.
type Client struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
	run     CommandRunner
}

// New constructs a client. A zero timeout disables the per-invocation limit.
func New(binary string, timeout time.Duration, logger *slog.Logger) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "mkvmerge"
	}
	return &Client{
		binary:  binary,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "mkvmerge"),
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (c *Client) WithCommandRunner(r CommandRunner) {
	if c != nil && r != nil {
		c.run = r
	}
}

// Binary returns the executable the client invokes.
func (c *Client) Binary() string {
	return c.binary
}

// Identify runs mkvmerge in JSON identification mode and returns stdout.
// Failures are marked ErrCatalog.
func (c *Client) Identify(ctx context.Context, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrCatalog, "mkvmerge", "identify", "empty path", nil)
	}
	out, err := c.invoke(ctx, "-J", path)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalog, "mkvmerge", "identify", path, err)
	}
	return out.Stdout, nil
}

// Mux runs a remux described by req. Failures are marked ErrToolInvocation
// and carry the tool's diagnostic text.
func (c *Client) Mux(ctx context.Context, req MuxRequest) error {
	if err := req.Validate(); err != nil {
		return services.Wrap(services.ErrToolInvocation, "mkvmerge", "mux", "invalid request", err)
	}
	args := BuildMuxArgs(req)
	c.logger.Debug("executing mkvmerge",
		logging.String("input_path", req.InputPath),
		logging.String("output_path", req.OutputPath),
		logging.String("command", c.binary+" "+strings.Join(args, " ")),
	)
	if _, err := c.invoke(ctx, args...); err != nil {
		return services.Wrap(services.ErrToolInvocation, "mkvmerge", "mux", "", err)
	}
	return nil
}

func (c *Client) invoke(ctx context.Context, args ...string) (Output, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out, err := c.run(runCtx, c.binary, args...)
	if err == nil {
		return out, nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return out, fmt.Errorf("timed out after %s", c.timeout)
	}
	if msg := diagnostic(out); msg != "" {
		return out, fmt.Errorf("%w: %s", err, msg)
	}
	return out, err
}

// diagnostic prefers stderr; mkvmerge prints its own "Error:" lines on stdout,
// so those are used when stderr is empty.
func diagnostic(out Output) string {
	if msg := strings.TrimSpace(string(out.Stderr)); msg != "" {
		return msg
	}
	var lines []string
	for _, line := range strings.Split(string(out.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Error:") || strings.HasPrefix(line, "Warning:") {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "; ")
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second
	err := cmd.Run()
	return Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}
