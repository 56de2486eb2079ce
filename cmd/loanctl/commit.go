package main

import (
	"github.com/spf13/cobra"

	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/generic/store"
	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/store/sqlite"
)

// ─── commit ─────────────────────────────────────────────────────────────────

func newCommitCmd(g *globals) *cobra.Command {
	var dbPath, key string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Synthesize a loan and append its scheduled transactions to the ledger",
		Long: `Synthesize a loan and append its templates to the ledger in one batch.
With --key, committing the same loan again is rejected instead of
duplicating templates. --dry-run commits to an in-memory ledger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}
			logger := g.logger(cmd, cfg)

			lc, err := g.readLoan(cmd, cfg)
			if err != nil {
				return err
			}

			var s generic.Store
			if dryRun {
				s = store.NewMemory()
			} else {
				db, err := sqlite.New(cfg.Database.Path)
				if err != nil {
					return err
				}
				defer db.Close()
				s = db
			}

			syn, err := loan.Commit(cmd.Context(), generic.NewLedger(s), lc, generic.CalendarOracle{},
				loan.CommitOptions{IdempotencyKey: key})
			if err != nil {
				logger.Error().Err(err).Str("loan", lc.DisplayName()).Msg("commit failed")
				return err
			}
			logger.Info().
				Str("loan", lc.DisplayName()).
				Int("templates", len(syn.Templates())).
				Bool("dry_run", dryRun).
				Msg("loan committed")
			return printTemplates(cmd, syn.Templates())
		},
	}
	addLoanFlag(cmd, g)
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides [database].path)")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key for this commit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Commit to an in-memory ledger")
	return cmd
}
