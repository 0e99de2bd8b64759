package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ochairo/fetchrun/internal/domain/interfaces"
	"github.com/ochairo/fetchrun/internal/domain/services"
	"github.com/ochairo/fetchrun/internal/external-adapters/yaml"
)

func newMergeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge alert rule files and apply overrides without downloading anything",
		Long: `merge loads every rule file in --rules-path, applies override rules by
negating their label selectors into the rules they name, drops disabled
rules and prints the merged YAML in the "alerts" field of the result.`,
		Example: `  fetchrun merge --rules-path /etc/prometheus/rules`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return a.fail(err)
			}
			if cfg.RulesPath == "" {
				return a.fail(errors.New("rules path is required (--rules-path or FETCHRUN_RULES_PATH)"))
			}

			repo := yaml.NewRulesRepository(cfg.RulesPath, logger)
			service := services.NewRulesService(repo, yaml.NewRulesParser(), logger)

			merged, err := service.MergeAll(cmd.Context())
			if err != nil {
				logger.Error("merge failed", interfaces.F("error", err))
				return a.fail(err)
			}

			return a.respond(Response{
				Msg:     "rules merged",
				Alerts:  merged,
				Changed: true,
			})
		},
	}

	cmd.Flags().String("rules-path", "", "directory holding alert rule files (required)")

	return cmd
}
