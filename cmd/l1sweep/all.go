package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/l1sweep/results"
	"github.com/sarchlab/l1sweep/sweep"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run the repeated runs and then every sweep.",
	Long: "`all` is `repeat` followed by `sweep` over every configured axis, " +
		"sharing one session and one JSON report.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		selectors := mustSelectors(cmd)
		s := newSession(cmd)

		r := results.NewReport(s.cfg.TracePrefix, s.cfg.Defaults)
		r.Metadata.SessionID = s.sessionID()

		if s.cfg.Runs > 0 {
			runRepeat(cmd.Context(), s, selectors, r)
		}

		summary := runSweep(cmd.Context(), s, sweep.Axes())
		r.AddSweep(summary)

		writeJSONReport(cmd, r)

		if summary.Succeeded() == 0 {
			exitf(1, "No sweep value succeeded")
		}
	},
}

func init() {
	addRepeatFlags(allCmd)
	addOutputFlags(allCmd)
	rootCmd.AddCommand(allCmd)
}
