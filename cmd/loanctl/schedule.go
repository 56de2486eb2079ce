package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
)

// ─── schedule ───────────────────────────────────────────────────────────────

func newScheduleCmd(g *globals) *cobra.Command {
	var rangeName, from, to, asOf string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the payment schedule over a review range",
		Long: `Print one row per date with the loan payment, its principal and interest
parts and every enabled repayment option. Ranges: current_year (default),
now_plus_one, whole_loan, custom (with --from and --to).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			lc, err := g.readLoan(cmd, cfg)
			if err != nil {
				return err
			}

			fromTP, err := parseDateFlag("from", from)
			if err != nil {
				return err
			}
			toTP, err := parseDateFlag("to", to)
			if err != nil {
				return err
			}
			asOfTP, err := parseDateFlag("as-of", asOf)
			if err != nil {
				return err
			}
			today := generic.Today()
			if asOfTP.IsZero() {
				asOfTP = today
			}

			oracle := generic.CalendarOracle{}
			period, err := loan.RangeFor(loan.ReviewRange(rangeName), lc, oracle, today, generic.Period{Start: fromTP, End: toTP})
			if err != nil {
				return err
			}
			schedule, err := loan.BuildSchedule(lc, oracle, period.Start, period.End, asOfTP)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(schedule)
			}
			return printSchedule(cmd, lc, schedule)
		},
	}
	addLoanFlag(cmd, g)
	cmd.Flags().StringVar(&rangeName, "range", string(loan.RangeCurrentYear), "Review range")
	cmd.Flags().StringVar(&from, "from", "", "Custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Custom range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Date elapsed payments are counted to (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printSchedule(cmd *cobra.Command, lc loan.LoanConfig, s *loan.Schedule) error {
	out := cmd.OutOrStdout()
	payment, err := loan.Payment(lc)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s per period, %d of %d paid, final payment %s\n\n",
		lc.DisplayName(), payment.StringFixed(generic.CurrencyPlaces), s.Elapsed, lc.TotalPeriods(), s.Final)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Date\t#\t%s\t\n", strings.Join(s.Columns, "\t"))
	for _, row := range s.Rows {
		cells := make([]string, len(row.Cells))
		for i := range row.Cells {
			if v, ok := row.Cell(i); ok {
				cells[i] = v.StringFixed(generic.CurrencyPlaces)
			}
		}
		n := ""
		if row.Period > 0 {
			n = fmt.Sprint(row.Period)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", row.Date, n, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
