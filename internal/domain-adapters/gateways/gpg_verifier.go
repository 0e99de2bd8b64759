package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/fetchrun/internal/domain/entities"
	"github.com/ochairo/fetchrun/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external GPG adapter to implement the domain gateway interface
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a new GPG verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier(verifier *gpg.Verifier) *gpgVerifier {
	if verifier == nil {
		verifier = gpg.NewVerifier()
	}
	return &gpgVerifier{
		verifier: verifier,
	}
}

// ImportGPGKeysFromURL imports all GPG keys from a KEYS file URL
func (g *gpgVerifier) ImportGPGKeysFromURL(ctx context.Context, keysURL string) error {
	if err := g.verifier.ImportKeysFromURL(ctx, keysURL); err != nil {
		return fmt.Errorf("failed to import GPG keys from URL: %w", err)
	}
	return nil
}

// ImportGPGKeyFromFile imports a GPG key from a local file
func (g *gpgVerifier) ImportGPGKeyFromFile(keyPath string) error {
	if err := g.verifier.ImportKeyFromFile(keyPath); err != nil {
		return fmt.Errorf("failed to import GPG key from file: %w", err)
	}
	return nil
}

// VerifyGPGSignature verifies a detached GPG signature downloaded from a URL
func (g *gpgVerifier) VerifyGPGSignature(ctx context.Context, filePath, sigURL string) error {
	if err := g.verifier.VerifySignature(ctx, filePath, sigURL); err != nil {
		return fmt.Errorf("%w: GPG signature verification failed: %w", entities.ErrIntegrity, err)
	}
	return nil
}

// VerifyGPGSignatureFromFile verifies a detached GPG signature from a local file
func (g *gpgVerifier) VerifyGPGSignatureFromFile(filePath, sigPath string) error {
	if err := g.verifier.VerifySignatureFromFile(filePath, sigPath); err != nil {
		return fmt.Errorf("%w: GPG signature verification failed: %w", entities.ErrIntegrity, err)
	}
	return nil
}

// GetKeyringSize returns the number of keys loaded
func (g *gpgVerifier) GetKeyringSize() int {
	return g.verifier.GetKeyringSize()
}
