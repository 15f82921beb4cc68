package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/l1sweep/results"
	"github.com/sarchlab/l1sweep/stats"
	"github.com/sarchlab/l1sweep/sweep"
)

var repeatCmd = &cobra.Command{
	Use:   "repeat",
	Short: "Run the simulator repeatedly at the default parameters.",
	Long: "`repeat` runs the simulator --runs times with the default cache " +
		"parameters and prints the mean and standard deviation of each " +
		"metric, per core and for the bus.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		selectors := mustSelectors(cmd)
		s := newSession(cmd)

		r := results.NewReport(s.cfg.TracePrefix, s.cfg.Defaults)
		r.Metadata.SessionID = s.sessionID()

		if !runRepeat(cmd.Context(), s, selectors, r) {
			exitf(1, "No run succeeded")
		}

		writeJSONReport(cmd, r)
	},
}

func init() {
	addRepeatFlags(repeatCmd)
	repeatCmd.Flags().String("json", "", "write a JSON report to this file; - for stdout")
	rootCmd.AddCommand(repeatCmd)
}

func addRepeatFlags(cmd *cobra.Command) {
	cmd.Flags().Int("runs", 0, "number of runs (default from config, 10)")
	cmd.Flags().StringSlice("metrics", nil,
		"metrics to summarize, from: "+strings.Join(stats.SelectorNames(), ", "))
}

func mustSelectors(cmd *cobra.Command) []stats.Selector {
	names, _ := cmd.Flags().GetStringSlice("metrics")
	if len(names) == 0 {
		return stats.DefaultSelectors()
	}

	selectors := make([]stats.Selector, 0, len(names))
	for _, name := range names {
		sel, err := stats.SelectorByName(name)
		if err != nil {
			exitf(2, "Error: %v", err)
		}
		selectors = append(selectors, sel)
	}

	return selectors
}

// runRepeat runs the repetitions, prints the aggregates and adds them to r.
// It reports whether any run succeeded.
func runRepeat(
	ctx context.Context,
	s *session,
	selectors []stats.Selector,
	r *results.Report,
) bool {
	cfg, err := s.cfg.Defaults.Derive(sweep.CacheSize, s.cfg.Defaults.CacheSizeKB)
	if err != nil {
		exitf(2, "Invalid defaults: %v", err)
	}

	fmt.Printf("Running %d simulations with %s\n", s.cfg.Runs, cfg)

	runs, failures := s.orch.Repeat(ctx, cfg, s.cfg.Runs)
	for _, f := range failures {
		if f.Stage == sweep.StageCancelled && s.store != nil {
			s.store.RecordRunFailure(f)
		}
	}

	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d runs failed\n", len(failures), s.cfg.Runs)
	}

	summaries, err := stats.Aggregate(runs, selectors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	stats.Print(os.Stdout, summaries)
	r.AddAggregates(len(runs), summaries)

	return true
}
