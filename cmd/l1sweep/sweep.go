package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sarchlab/l1sweep/results"
	"github.com/sarchlab/l1sweep/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [axis...]",
	Short: "Sweep cache size, associativity and block size.",
	Long: "`sweep [axis...]` varies each named axis (cache_size, " +
		"associativity, block_size; default all) while the others stay at " +
		"their defaults. It writes the results table and one chart per axis, " +
		"and exits with status 1 if no value succeeded.",
	Args: func(cmd *cobra.Command, args []string) error {
		_, err := parseAxes(args)
		return err
	},
	Run: func(cmd *cobra.Command, args []string) {
		axes, _ := parseAxes(args)
		s := newSession(cmd)

		r := results.NewReport(s.cfg.TracePrefix, s.cfg.Defaults)
		r.Metadata.SessionID = s.sessionID()

		summary := runSweep(cmd.Context(), s, axes)
		r.AddSweep(summary)

		writeJSONReport(cmd, r)

		if summary.Succeeded() == 0 {
			exitf(1, "No sweep value succeeded")
		}
	},
}

func init() {
	addOutputFlags(sweepCmd)
	rootCmd.AddCommand(sweepCmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("chart-dir", "", "directory for <axis>_variation charts")
	cmd.Flags().String("chart-format", "", "chart format: png, svg or pdf")
	cmd.Flags().String("table", "", "CSV results table")
	cmd.Flags().String("json", "", "write a JSON report to this file; - for stdout")
}

func parseAxes(args []string) ([]sweep.Axis, error) {
	if len(args) == 0 {
		return sweep.Axes(), nil
	}

	axes := make([]sweep.Axis, 0, len(args))
	for _, a := range args {
		axis, err := sweep.ParseAxis(a)
		if err != nil {
			return nil, err
		}
		axes = append(axes, axis)
	}

	return axes, nil
}

// runSweep sweeps the configured values of the given axes and writes the
// table and charts from whatever succeeded.
func runSweep(ctx context.Context, s *session, axes []sweep.Axis) sweep.Summary {
	plan := s.cfg.Axes.Only(axes...)
	summary := s.orch.SweepAll(ctx, plan)

	if s.store != nil {
		for _, f := range summary.Failures() {
			if f.Stage == sweep.StageCancelled {
				s.store.RecordFailure(f)
			}
		}
	}

	fmt.Println()
	results.PrintSummary(os.Stdout, summary)

	if s.cfg.TablePath != "" {
		if err := writeTable(s.cfg.TablePath, summary.Records); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing table: %v\n", err)
		} else {
			fmt.Printf("Results table: %s\n", s.cfg.TablePath)
		}
	}

	if s.cfg.ChartDir != "" {
		paths, err := renderCharts(s.cfg.ChartDir, summary.Records, s.cfg.ChartFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering charts: %v\n", err)
		}
		for _, p := range paths {
			fmt.Printf("Chart: %s\n", p)
		}
	}

	return summary
}

func writeTable(path string, records []sweep.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := results.WriteTable(f, records); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func renderCharts(dir string, records []sweep.Record, ext string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return results.RenderCharts(dir, records, ext)
}

func writeJSONReport(cmd *cobra.Command, r *results.Report) {
	path, _ := cmd.Flags().GetString("json")
	if path == "" {
		return
	}

	if path == "-" {
		if err := results.WriteJSON(os.Stdout, r); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON report: %v\n", err)
		}
		return
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON report: %v\n", err)
		return
	}
	defer f.Close()

	if err := results.WriteJSON(f, r); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON report: %v\n", err)
	}
}
