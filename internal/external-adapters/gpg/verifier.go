// Package gpg provides GPG signature verification capabilities.
package gpg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const (
	armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE-----"

	// Limits on downloaded key and signature material
	maxKeysFileBytes  = 10 << 20
	maxSignatureBytes = 10 << 10
)

// Verifier checks detached OpenPGP signatures using ProtonMail's go-crypto.
// This is in external-adapters to isolate the external dependency
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// Option configures a Verifier
type Option func(*Verifier)

// WithHTTPClient overrides the client used to fetch keys and signatures
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) {
		v.httpClient = c
	}
}

// NewVerifier creates a new GPG verifier
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		keyring: make(openpgp.EntityList, 0),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ImportKeyRing imports armored or binary public keys from r
func (v *Verifier) ImportKeyRing(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, maxKeysFileBytes))
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// ImportKeysFromURL imports all GPG keys from a KEYS file URL
func (v *Verifier) ImportKeysFromURL(ctx context.Context, keysURL string) error {
	data, err := v.fetch(ctx, keysURL, maxKeysFileBytes)
	if err != nil {
		return fmt.Errorf("failed to download KEYS file: %w", err)
	}

	if err := v.ImportKeyRing(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to parse KEYS file: %w", err)
	}
	return nil
}

// ImportKeyFromFile imports a GPG key from a file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	return v.ImportKeyRing(f)
}

// VerifySignature verifies filePath against a detached signature fetched from sigURL
func (v *Verifier) VerifySignature(ctx context.Context, filePath, sigURL string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported")
	}

	sigData, err := v.fetch(ctx, sigURL, maxSignatureBytes)
	if err != nil {
		return fmt.Errorf("failed to download signature: %w", err)
	}

	return v.verifyFile(filePath, sigData)
}

// VerifySignatureFromFile verifies a detached signature from a local file
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported")
	}

	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}

	return v.verifyFile(filePath, sigData)
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}

// ClearKeyring clears all imported keys
func (v *Verifier) ClearKeyring() {
	v.keyring = make(openpgp.EntityList, 0)
}

func (v *Verifier) verifyFile(filePath string, sigData []byte) error {
	if len(sigData) < 10 {
		return fmt.Errorf("signature too small to be a valid GPG signature")
	}

	//nolint:gosec // G304: filePath is the artifact under verification
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	sig := bytes.NewReader(sigData)
	if bytes.HasPrefix(bytes.TrimSpace(sigData), []byte(armoredSignaturePrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, f, sig, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, f, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

func (v *Verifier) fetch(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
