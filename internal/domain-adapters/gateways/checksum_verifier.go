package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ochairo/fetchrun/internal/domain/entities"
)

// checksumVerifier implements checksum verification using pure Go
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum verifies a file's SHA256 checksum. A mismatch wraps
// entities.ErrIntegrity; an unreadable file wraps entities.ErrIO.
func (v *checksumVerifier) VerifyChecksum(_ context.Context, filePath, expectedSum string) error {
	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return err
	}

	expected := strings.ToLower(strings.TrimSpace(expectedSum))
	if actualSum != expected {
		return fmt.Errorf("%w: checksum mismatch: expected %s, got %s", entities.ErrIntegrity, expected, actualSum)
	}

	return nil
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is user-provided for checksum calculation
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open file: %w", entities.ErrIO, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: failed to hash file: %w", entities.ErrIO, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// ParseChecksumFile extracts the digest from a sha256sum style file
// ("<hash>  <filename>")
func ParseChecksumFile(checksumFile string) (string, error) {
	//nolint:gosec // G304: checksumFile is user-provided path for verification
	data, err := os.ReadFile(checksumFile)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read checksum file: %w", entities.ErrIO, err)
	}

	parts := strings.Fields(string(data))
	if len(parts) < 1 {
		return "", fmt.Errorf("invalid checksum file format")
	}
	return parts[0], nil
}
