package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/l1sweep/simulator"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the simulator and the trace files are present.",
	Long: "`check` resolves the simulator executable and lists which of the " +
		"four trace files exist. It exits with status 1 if anything is missing.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		failed := false

		exe, err := simulator.ResolveExecutable(cfg.Simulator)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Simulator: %v\n", err)
			failed = true
		} else {
			fmt.Fprintf(os.Stderr, "Simulator: %s\n", exe)
		}

		available := simulator.AvailableTraces(cfg.TracePrefix)
		missing := simulator.MissingTraces(cfg.TracePrefix)

		fmt.Printf("%d\n", len(available))

		if len(available) > 0 {
			fmt.Fprintf(os.Stderr, "\nAvailable traces (%d):\n", len(available))
			for _, p := range available {
				fmt.Fprintf(os.Stderr, "  ok      %s\n", p)
			}
		}

		if len(missing) > 0 {
			fmt.Fprintf(os.Stderr, "\nMissing traces (%d):\n", len(missing))
			for _, p := range missing {
				fmt.Fprintf(os.Stderr, "  missing %s\n", p)
			}
			failed = true
		}

		if failed {
			exitf(1, "\nPrecheck failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
