// Package gateways defines contracts for external systems the fetch-and-run flow talks to.
package gateways

import (
	"context"

	"github.com/ochairo/fetchrun/internal/domain/entities"
)

// Downloader fetches a remote artifact into a local file
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Stager decides where an artifact is staged. The returned release func
// must be called once the artifact is no longer needed.
type Stager interface {
	Prepare(source entities.ArtifactSource) (path string, ephemeral bool, release func(), err error)
}

// ChecksumVerifier verifies file digests
type ChecksumVerifier interface {
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
}

// SignatureVerifier verifies detached OpenPGP signatures
type SignatureVerifier interface {
	VerifyGPGSignature(ctx context.Context, filePath, sigURL string) error
}

// PermissionSetter makes a staged file executable
type PermissionSetter interface {
	MakeExecutable(path string) (uint32, error)
}

// ProcessRunner launches a staged artifact and captures its output
type ProcessRunner interface {
	Run(ctx context.Context, path string, args ...string) (*ProcessOutput, error)
}

// ProcessOutput is what a finished child process produced
type ProcessOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}
