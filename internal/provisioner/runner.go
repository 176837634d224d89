// Package provisioner runs the external provisioning script for a cloud
// platform and collects its output.
package provisioner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// MaxOutput caps the stdout and stderr kept from one run.
const MaxOutput = 1 << 20

var (
	// ErrTimeout is returned when the script outlives the configured timeout.
	ErrTimeout = errors.New("provisioning timed out")
	// ErrUnknownPlatform is returned for platforms other than aws and azure.
	ErrUnknownPlatform = errors.New("unsupported cloud platform")
)

// ExitError reports a non-zero exit of the script.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("provisioning script exited with code %d", e.Code)
}

// Runner executes Command with the platform appended as the last argument.
// No shell is involved.
type Runner struct {
	Command []string
	Timeout time.Duration
}

// NewRunner returns a Runner executing command with the given timeout.
func NewRunner(command []string, timeout time.Duration) *Runner {
	return &Runner{Command: command, Timeout: timeout}
}

// limitedBuffer keeps the first max bytes written to it and discards the rest.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

// Run executes the script for platform and returns its stdout. The process
// is killed when ctx is done or the timeout passes.
func (r *Runner) Run(ctx context.Context, platform string) (string, error) {
	if platform != "aws" && platform != "azure" {
		return "", ErrUnknownPlatform
	}
	if len(r.Command) == 0 {
		return "", errors.New("provisioning command not configured")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, r.Command[1:]...), platform)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	stdout := &limitedBuffer{max: MaxOutput}
	stderr := &limitedBuffer{max: MaxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// children of the script may hold the output pipes open after a kill
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return stdout.buf.String(), ErrTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.buf.String(), &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.buf.String()}
		}
		return "", err
	}
	return stdout.buf.String(), nil
}
