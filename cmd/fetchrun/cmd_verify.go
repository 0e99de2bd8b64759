package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/fetchrun/internal/domain-adapters/gateways"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		checksumFile string
		gpgSig       string
		verifyAll    bool
	)

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify the checksum and signature of a local artifact",
		Long: `Verify checksums and detached OpenPGP signatures for a downloaded artifact.

Supports:
  - Checksums: SHA-256 given inline (--sha256) or as a sha256sum file (--checksum)
  - GPG: detached signature (armored or binary) from a file or an HTTPS URL`,
		Example: `  # Verify checksum
  fetchrun verify prometheus_merger --checksum prometheus_merger.sha256

  # Verify GPG signature
  fetchrun verify prometheus_merger --gpg-sig prometheus_merger.asc --gpg-key-file release.pub

  # Verify everything found next to the file
  fetchrun verify prometheus_merger --all --gpg-keys-url https://example.com/KEYS`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}

			return executeVerify(cmd.Context(), a.stdout, verifyRequest{
				filePath:     args[0],
				sha256:       cfg.SHA256,
				checksumFile: checksumFile,
				gpgSig:       gpgSig,
				gpgKeyFile:   cfg.GPGKeyFile,
				gpgKeysURL:   cfg.GPGKeysURL,
				verifyAll:    verifyAll,
			})
		},
	}

	f := cmd.Flags()
	f.String("sha256", "", "expected SHA-256 of the file")
	f.StringVar(&checksumFile, "checksum", "", "checksum file to verify against (.sha256)")
	f.StringVar(&gpgSig, "gpg-sig", "", "GPG signature file (.asc/.sig) or HTTPS URL")
	f.String("gpg-key-file", "", "public key file for GPG verification")
	f.String("gpg-keys-url", "", "URL to KEYS file for GPG verification")
	f.BoolVar(&verifyAll, "all", false, "verify all checksum and signature files found next to <file>")

	return cmd
}

type verifyRequest struct {
	filePath     string
	sha256       string
	checksumFile string
	gpgSig       string
	gpgKeyFile   string
	gpgKeysURL   string
	verifyAll    bool
}

func executeVerify(ctx context.Context, out io.Writer, req verifyRequest) error {
	verified := 0
	failed := 0

	// Auto-detect files if --all is specified
	if req.verifyAll {
		if req.checksumFile == "" && req.sha256 == "" && fileExists(req.filePath+".sha256") {
			req.checksumFile = req.filePath + ".sha256"
		}
		if req.gpgSig == "" {
			for _, ext := range []string{".asc", ".sig"} {
				if fileExists(req.filePath + ext) {
					req.gpgSig = req.filePath + ext
					break
				}
			}
		}
	}

	fmt.Fprintf(out, "🔍 Verifying %s\n\n", filepath.Base(req.filePath))

	// Verify checksum
	if req.sha256 != "" || req.checksumFile != "" {
		fmt.Fprintf(out, "📋 Verifying checksum...\n")
		if err := verifyChecksum(ctx, req.filePath, req.sha256, req.checksumFile); err != nil {
			fmt.Fprintf(out, "❌ Checksum verification FAILED: %v\n\n", err)
			failed++
		} else {
			fmt.Fprintf(out, "✅ Checksum verified\n\n")
			verified++
		}
	}

	// Verify GPG signature
	if req.gpgSig != "" {
		fmt.Fprintf(out, "🔐 Verifying GPG signature...\n")
		if err := verifyGPGSignature(ctx, req.filePath, req.gpgSig, req.gpgKeyFile, req.gpgKeysURL); err != nil {
			fmt.Fprintf(out, "❌ GPG signature verification FAILED: %v\n\n", err)
			failed++
		} else {
			fmt.Fprintf(out, "✅ GPG signature verified\n\n")
			verified++
		}
	}

	// Print summary
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(out, "✅ Verified: %d checks\n", verified)
	if failed > 0 {
		fmt.Fprintf(out, "❌ Failed: %d checks\n", failed)
	}
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if failed > 0 {
		return fmt.Errorf("%d verification checks failed", failed)
	}

	if verified == 0 {
		return fmt.Errorf("no verification checks performed (specify --sha256, --checksum or --gpg-sig)")
	}

	return nil
}

func verifyChecksum(ctx context.Context, filePath, expected, checksumFile string) error {
	verifier := gateways.NewChecksumVerifier()

	if expected == "" {
		parsed, err := gateways.ParseChecksumFile(checksumFile)
		if err != nil {
			return err
		}
		expected = parsed
	}

	return verifier.VerifyChecksum(ctx, filePath, expected)
}

func verifyGPGSignature(ctx context.Context, filePath, gpgSig, gpgKeyFile, gpgKeysURL string) error {
	keyring, err := loadSigningKeys(ctx, gpgKeyFile, gpgKeysURL)
	if err != nil {
		return err
	}
	if keyring == nil {
		return fmt.Errorf("no GPG keys imported for verification (use --gpg-key-file or --gpg-keys-url)")
	}

	verifier := gateways.NewGPGVerifier(keyring)
	if strings.HasPrefix(gpgSig, "https://") {
		return verifier.VerifyGPGSignature(ctx, filePath, gpgSig)
	}
	return verifier.VerifyGPGSignatureFromFile(filePath, gpgSig)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
