package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultToolTimeout bounds every external tool invocation.
const DefaultToolTimeout = 10 * time.Second

var (
	// ErrToolNotFound means the binary is not installed or not on PATH.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolTimeout means the tool did not finish within the timeout.
	ErrToolTimeout = errors.New("tool timed out")
)

// Runner executes an external tool and returns its captured output.
// A non-zero exit status is not an error: listing tools such as ffmpeg
// exit with failure after printing what we need.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns a runner using DefaultToolTimeout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: DefaultToolTimeout}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case err == nil:
	case errors.Is(err, exec.ErrNotFound):
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrToolNotFound, name, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("%w: %s after %s", ErrToolTimeout, name, timeout)
	default:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, nil, fmt.Errorf("run %s: %w", name, err)
		}
	}

	return stdout.Bytes(), stderr.Bytes(), nil
}
