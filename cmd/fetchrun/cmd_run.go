package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ochairo/fetchrun/internal/config"
	"github.com/ochairo/fetchrun/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/fetchrun/internal/domain-orchestrators"
	"github.com/ochairo/fetchrun/internal/domain/entities"
	"github.com/ochairo/fetchrun/internal/domain/interfaces"
	"github.com/ochairo/fetchrun/internal/external-adapters/gpg"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download the artifact and run it against a rules path",
		Example: `  # Run the default merger release
  fetchrun run --rules-path /etc/prometheus/rules

  # Pin the artifact by checksum and use a fixed staging path
  fetchrun run --rules-path ./rules --sha256 <hex> --staging-path /tmp/prom_merge

  # Verify a detached signature with keys from a KEYS file
  fetchrun run --rules-path ./rules \
    --signature-url https://example.com/prometheus_merger.asc \
    --gpg-keys-url https://example.com/KEYS`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return a.fail(err)
			}

			result, err := executeRun(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("run failed", interfaces.F("error", err))
				return a.fail(err)
			}

			logger.Debug(orchestrators.GetRunSummary(result))
			return a.respond(responseFromResult(result))
		},
	}

	f := cmd.Flags()
	f.String("rules-path", "", "path passed to the artifact as its only argument (required)")
	f.String("source-url", "", "HTTPS URL of the artifact (default: prometheus_merger v0.2.0 release)")
	f.String("sha256", "", "expected SHA-256 of the artifact")
	f.String("signature-url", "", "URL of a detached OpenPGP signature of the artifact")
	f.String("gpg-key-file", "", "public key file used to verify the signature")
	f.String("gpg-keys-url", "", "URL of a KEYS file used to verify the signature")
	f.String("staging-path", "", "fixed staging path; guarded by <path>.lock and kept after the run")
	f.String("staging-dir", "", "parent of the per-run staging directory (default: OS temp dir)")
	f.Duration("timeout", 0, "overall time limit for download and run (default: none)")

	return cmd
}

// executeRun wires the gateways and runs one fetch-and-run invocation
func executeRun(ctx context.Context, cfg *config.Config, logger interfaces.Logger) (*entities.InvocationResult, error) {
	if cfg.RulesPath == "" {
		return nil, errors.New("rules path is required (--rules-path or FETCHRUN_RULES_PATH)")
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	deps := orchestrators.FetchRunDeps{
		Stager:      gateways.NewStager(cfg.StagingPath, cfg.StagingDir),
		Downloader:  gateways.NewDownloader(gateways.WithDownloadLogger(logger)),
		Checksum:    gateways.NewChecksumVerifier(),
		Permissions: gateways.NewPermissionSetter(),
		Runner:      gateways.NewProcessRunner(),
		Logger:      logger,
	}

	if cfg.SignatureURL != "" {
		keyring, err := loadSigningKeys(ctx, cfg.GPGKeyFile, cfg.GPGKeysURL)
		if err != nil {
			return nil, err
		}
		if keyring != nil {
			deps.Signature = gateways.NewGPGVerifier(keyring)
		}
	}

	orchestrator := orchestrators.NewFetchRunOrchestrator(deps)

	source := entities.ArtifactSource{
		URL:          cfg.SourceURL,
		SHA256:       cfg.SHA256,
		SignatureURL: cfg.SignatureURL,
	}
	return orchestrator.FetchAndRun(ctx, source, cfg.RulesPath)
}

// loadSigningKeys imports public keys from a file and/or a KEYS URL. It
// returns nil when neither is configured.
func loadSigningKeys(ctx context.Context, keyFile, keysURL string) (*gpg.Verifier, error) {
	if keyFile == "" && keysURL == "" {
		return nil, nil //nolint:nilnil // no keys configured
	}

	keyring := gpg.NewVerifier()
	if keyFile != "" {
		if err := keyring.ImportKeyFromFile(keyFile); err != nil {
			return nil, fmt.Errorf("failed to load signing keys: %w", err)
		}
	}
	if keysURL != "" {
		if err := keyring.ImportKeysFromURL(ctx, keysURL); err != nil {
			return nil, fmt.Errorf("failed to load signing keys: %w", err)
		}
	}
	return keyring, nil
}
