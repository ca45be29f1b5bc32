/*
main.go - Application entry point

PURPOSE:
  Runs the payoff command line. See cli/ for the commands.

EXAMPLES:
  # Start the API with defaults (SQLite payoff.db, in-memory plan cache)
  payoff serve

  # Start with a config file
  payoff serve --config /etc/payoff/payoff.toml

  # Simulate a plan file
  payoff plan -f plan.json --compare

ENVIRONMENT:
  PAYOFF_ADDR, PAYOFF_STORE_DRIVER, PAYOFF_STORE_DSN, PAYOFF_REDIS_ADDR,
  PAYOFF_LOG_LEVEL override the config file (serve only).

SEE ALSO:
  - cli/serve.go: Server startup and graceful shutdown
  - config/config.go: Config file format
*/
package main

import (
	"os"

	"github.com/warp/payoff-engine/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
