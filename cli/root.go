/*
Package cli implements the payoff command line.

COMMANDS:
  payoff serve   [--config payoff.toml]          Start the HTTP API
  payoff plan    -f plan.json [--compare] [--lang es]
  payoff version

SEE ALSO:
  - cmd/payoff/main.go: Entry point
  - config/config.go: Server configuration
  - factory/plan.go: Plan file format
*/
package cli

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time:
//
//	go build -ldflags "-X github.com/warp/payoff-engine/cli.Version=v1.2.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "payoff",
	Short: "Debt payoff planner",
	Long: `Payoff simulates month-by-month repayment of a set of debts under the
avalanche (highest rate first) or snowball (smallest balance first) strategy
and turns the result into a short payment schedule for each debt.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
