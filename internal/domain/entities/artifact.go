// Package entities defines core domain models and data structures.
package entities

import "time"

// ArtifactSource identifies a remote binary artifact
type ArtifactSource struct {
	URL          string
	SHA256       string // Optional hex digest checked before the artifact is made executable
	SignatureURL string // Optional detached OpenPGP signature
}

// LocalArtifact is a downloaded artifact staged on disk
type LocalArtifact struct {
	Path      string
	Size      int64
	Mode      uint32
	Ephemeral bool // Removed when the invocation returns
}

// InvocationResult is the outcome of running a staged artifact
type InvocationResult struct {
	InvocationID string
	Changed      bool
	Alerts       string // Captured stdout of the artifact
	Stderr       string
	ExitCode     int
	Duration     time.Duration
	StagedPath   string // Set only for a fixed staging path; ephemeral staging is gone by the time the result is returned
}

// Succeeded reports whether the artifact exited with status zero
func (r *InvocationResult) Succeeded() bool {
	return r.ExitCode == 0
}
