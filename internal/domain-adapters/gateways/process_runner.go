package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/ochairo/fetchrun/internal/domain/entities"
	"github.com/ochairo/fetchrun/internal/domain/interfaces/gateways"
)

// ProcessRunner runs staged artifacts as child processes
type ProcessRunner struct{}

// NewProcessRunner creates a new process runner
func NewProcessRunner() *ProcessRunner {
	return &ProcessRunner{}
}

// Run starts the executable at path with args, waits for it, and returns
// its stdout, stderr and exit code. A non-zero exit status is reported in
// the output, not as an error. Errors mean the process could not be
// launched or was killed because ctx ended.
func (r *ProcessRunner) Run(ctx context.Context, path string, args ...string) (*gateways.ProcessOutput, error) {
	//nolint:gosec // G204: running the staged artifact is the purpose of this gateway
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &gateways.ProcessOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return out, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		return out, fmt.Errorf("artifact run interrupted: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}

	return nil, fmt.Errorf("%w: %s: %w", entities.ErrProcessSpawn, path, err)
}
