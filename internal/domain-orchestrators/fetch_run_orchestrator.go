// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ochairo/fetchrun/internal/domain/entities"
	"github.com/ochairo/fetchrun/internal/domain/interfaces"
	"github.com/ochairo/fetchrun/internal/domain/interfaces/gateways"
)

// FetchRunOrchestrator downloads an artifact, verifies it, makes it
// executable and runs it with a single argument
type FetchRunOrchestrator struct {
	stager      gateways.Stager
	downloader  gateways.Downloader
	checksum    gateways.ChecksumVerifier
	signature   gateways.SignatureVerifier
	permissions gateways.PermissionSetter
	runner      gateways.ProcessRunner
	logger      interfaces.Logger
}

// FetchRunDeps holds the gateways used by the orchestrator. Signature may
// be nil when no signature verification is configured.
type FetchRunDeps struct {
	Stager      gateways.Stager
	Downloader  gateways.Downloader
	Checksum    gateways.ChecksumVerifier
	Signature   gateways.SignatureVerifier
	Permissions gateways.PermissionSetter
	Runner      gateways.ProcessRunner
	Logger      interfaces.Logger
}

// NewFetchRunOrchestrator creates a new fetch-and-run orchestrator
func NewFetchRunOrchestrator(deps FetchRunDeps) *FetchRunOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &FetchRunOrchestrator{
		stager:      deps.Stager,
		downloader:  deps.Downloader,
		checksum:    deps.Checksum,
		signature:   deps.Signature,
		permissions: deps.Permissions,
		runner:      deps.Runner,
		logger:      logger,
	}
}

// FetchAndRun stages the artifact at source, runs it with runArg and
// returns what it printed. Failures to fetch, stage, verify, chmod or
// launch abort the run with no result. A non-zero exit status of the
// artifact does not: the result carries the exit code, and Changed is
// always true.
func (o *FetchRunOrchestrator) FetchAndRun(ctx context.Context, source entities.ArtifactSource, runArg string) (*entities.InvocationResult, error) {
	startTime := time.Now()
	id := uuid.NewString()
	log := func(msg string, fields ...interfaces.Field) {
		o.logger.Info(msg, append([]interfaces.Field{interfaces.F("invocation", id)}, fields...)...)
	}

	// Step 1: Pick the staging location
	path, ephemeral, release, err := o.stager.Prepare(source)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare staging path: %w", err)
	}
	defer release()

	// Step 2: Download
	log("downloading artifact", interfaces.F("url", source.URL), interfaces.F("path", path))
	size, err := o.downloader.Download(ctx, source.URL, path)
	if err != nil {
		return nil, fmt.Errorf("failed to download artifact: %w", err)
	}
	artifact := &entities.LocalArtifact{Path: path, Size: size, Ephemeral: ephemeral}

	// Step 3: Integrity checks, before anything becomes executable
	if err := o.verify(ctx, source, artifact); err != nil {
		return nil, err
	}

	// Step 4: Copy read bits to execute bits
	mode, err := o.permissions.MakeExecutable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to make artifact executable: %w", err)
	}
	artifact.Mode = mode

	// Step 5: Run
	log("running artifact", interfaces.F("arg", runArg), interfaces.F("bytes", artifact.Size), interfaces.F("mode", fmt.Sprintf("%04o", mode)))
	out, err := o.runner.Run(ctx, path, runArg)
	if err != nil {
		return nil, fmt.Errorf("failed to run artifact: %w", err)
	}

	result := &entities.InvocationResult{
		InvocationID: id,
		Changed:      true,
		Alerts:       out.Stdout,
		Stderr:       out.Stderr,
		ExitCode:     out.ExitCode,
		Duration:     time.Since(startTime),
	}
	if !ephemeral {
		result.StagedPath = path
	}

	if !result.Succeeded() {
		o.logger.Warn("artifact exited with non-zero status",
			interfaces.F("invocation", id),
			interfaces.F("exit_code", result.ExitCode),
		)
	}
	log("artifact finished", interfaces.F("exit_code", result.ExitCode), interfaces.F("duration", result.Duration))

	return result, nil
}

func (o *FetchRunOrchestrator) verify(ctx context.Context, source entities.ArtifactSource, artifact *entities.LocalArtifact) error {
	if source.SHA256 != "" {
		if err := o.checksum.VerifyChecksum(ctx, artifact.Path, source.SHA256); err != nil {
			return fmt.Errorf("failed to verify artifact checksum: %w", err)
		}
	}

	if source.SignatureURL != "" {
		if o.signature == nil {
			return fmt.Errorf("%w: signature URL set but no signing keys configured", entities.ErrIntegrity)
		}
		if err := o.signature.VerifyGPGSignature(ctx, artifact.Path, source.SignatureURL); err != nil {
			return fmt.Errorf("failed to verify artifact signature: %w", err)
		}
	}

	return nil
}

// GetRunSummary returns a human-readable summary of a run
func GetRunSummary(r *entities.InvocationResult) string {
	status := "succeeded"
	if !r.Succeeded() {
		status = fmt.Sprintf("exited with status %d", r.ExitCode)
	}
	return fmt.Sprintf("Invocation %s %s in %v (%d bytes of output)", r.InvocationID, status, r.Duration, len(r.Alerts))
}
