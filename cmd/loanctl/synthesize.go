package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
)

// ─── synthesize ─────────────────────────────────────────────────────────────

func newSynthesizeCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Print the scheduled transactions a loan produces, without storing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			lc, err := g.readLoan(cmd, cfg)
			if err != nil {
				return err
			}
			syn, err := loan.Synthesize(lc, generic.CalendarOracle{})
			if err != nil {
				return err
			}
			return printTemplates(cmd, syn.Templates())
		},
	}
	addLoanFlag(cmd, g)
	return cmd
}

// templateView is the printed form of a template.
type templateView struct {
	ID             generic.TemplateID            `json:"id,omitempty"`
	Name           string                        `json:"name"`
	Recurrence     string                        `json:"recurrence"`
	Start          generic.TimePoint             `json:"start"`
	LastOccurred   generic.TimePoint             `json:"last_occurred"`
	End            generic.TimePoint             `json:"end"`
	InstanceCount  int                           `json:"instance_count"`
	IdempotencyKey string                        `json:"idempotency_key,omitempty"`
	Transactions   []generic.TemplateTransaction `json:"transactions"`
}

func printTemplates(cmd *cobra.Command, sts []generic.ScheduledTransaction) error {
	views := make([]templateView, len(sts))
	for i, st := range sts {
		views[i] = templateView{
			ID:             st.ID,
			Name:           st.Name,
			Recurrence:     st.Frequency.String(),
			Start:          st.Start,
			LastOccurred:   st.LastOccurred,
			End:            st.End,
			InstanceCount:  st.InstanceCount,
			IdempotencyKey: st.IdempotencyKey,
			Transactions:   st.Transactions,
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}
