package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize/english"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/payoff-engine/factory"
	"github.com/warp/payoff-engine/payoff"
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringP("file", "f", "", `Plan JSON file ("-" reads stdin)`)
	planCmd.Flags().Bool("compare", false, "Simulate both strategies side by side")
	planCmd.Flags().String("lang", "", "Schedule language (en, es); overrides the file")
	planCmd.Flags().String("strategy", "", "avalanche or snowball; overrides the file")
	planCmd.Flags().Float64("extra", 0, "Extra monthly payment; overrides the file")
	_ = planCmd.MarkFlagRequired("file")
}

// ─── plan ───────────────────────────────────────────────────────────────────

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Simulate a payoff plan from a JSON file",
	Long: `Simulate a payoff plan and print each debt's outcome and schedule.

The file uses the same format as POST /api/plans/simulate:

  {"strategy": "avalanche", "extra_payment": 100, "language": "en",
   "debts": [{"id": "visa", "creditor": "Visa", "balance": 2500,
              "apr": 19.99, "minimum_payment": 75}]}`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	raw, err := readPlanFile(cmd, path)
	if err != nil {
		return err
	}

	input, phrases, err := factory.ParsePlan(string(raw))
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("strategy") {
		s, _ := cmd.Flags().GetString("strategy")
		if input.Strategy, err = payoff.ParseStrategy(s); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("extra") {
		extra, _ := cmd.Flags().GetFloat64("extra")
		input.ExtraPayment = decimal.NewFromFloat(extra)
	}
	if cmd.Flags().Changed("lang") {
		lang, _ := cmd.Flags().GetString("lang")
		phrases = payoff.PhrasebookFor(lang)
	}

	engine := payoff.NewEngine(phrases)
	out := cmd.OutOrStdout()

	if compare, _ := cmd.Flags().GetBool("compare"); compare {
		cmp, err := engine.Compare(input.Debts, input.ExtraPayment)
		if err != nil {
			return err
		}
		renderComparison(out, cmp, phrases)
		return nil
	}

	summary, err := engine.Simulate(*input)
	if err != nil {
		return err
	}
	renderSummary(out, summary, phrases)
	return nil
}

func readPlanFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read plan file: %w", err)
	}
	return raw, nil
}

// ─── rendering ──────────────────────────────────────────────────────────────

func renderSummary(w io.Writer, s *payoff.PlanSummary, p payoff.Phrasebook) {
	if len(s.Debts) == 0 {
		fmt.Fprintln(w, "No debts.")
		return
	}

	capacity := s.OriginalTotalMonthly.Add(s.ExtraPayment)
	fmt.Fprintf(w, "Strategy: %s\n", s.Strategy)
	fmt.Fprintf(w, "Monthly capacity: %s (minimums %s + extra %s)\n",
		p.Money(capacity), p.Money(s.OriginalTotalMonthly), p.Money(s.ExtraPayment))
	if s.DebtFree {
		fmt.Fprintf(w, "Debt-free in %s. Total interest %s.\n", span(s.TotalMonthsToDebtFree), p.Money(s.TotalInterestPaid))
	} else {
		fmt.Fprintf(w, "Not debt-free after %s. Total interest %s.\n", span(s.TotalMonthsToDebtFree), p.Money(s.TotalInterestPaid))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDEBT\tCREDITOR\tBALANCE\tAPR\tMONTHS\tINTEREST\tSTATUS")
	for _, d := range s.Debts {
		status := "paid off"
		if !d.PaidOff {
			status = "unpaid " + p.Money(d.RemainingBalance)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s%%\t%d\t%s\t%s\n",
			d.Priority, d.ID, d.Creditor, p.Money(d.Balance), d.APR.String(),
			d.MonthsToPayoff, p.Money(d.TotalInterestPaid), status)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Schedule:")
	for _, d := range s.Debts {
		fmt.Fprintf(w, "  %s\n", d.ID)
		schedule := d.Schedule
		if len(schedule) == 0 {
			schedule = []string{p.GenericSchedule(d.MinimumPayment)}
		}
		for _, line := range schedule {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range s.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn.Message)
		}
	}
}

func renderComparison(w io.Writer, c *payoff.Comparison, p payoff.Phrasebook) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tMONTHS\tINTEREST\tTOTAL PAID\tDEBT-FREE")
	for _, s := range []*payoff.PlanSummary{c.Avalanche, c.Snowball} {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%t\n",
			s.Strategy, s.TotalMonthsToDebtFree, p.Money(s.TotalInterestPaid), p.Money(s.TotalAmountPaid), s.DebtFree)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Recommended: %s\n", c.Recommended)
	fmt.Fprintf(w, "Avalanche saves %s in interest and %s.\n", p.Money(c.InterestSaved), english.Plural(c.MonthsSaved, "month", ""))
}

// span renders a month count as years and months.
func span(months int) string {
	years, rest := months/12, months%12
	switch {
	case years == 0:
		return english.Plural(rest, "month", "")
	case rest == 0:
		return english.Plural(years, "year", "")
	}
	return english.Plural(years, "year", "") + " " + english.Plural(rest, "month", "")
}
