package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/l1sweep/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse <report>",
	Short: "Parse a simulator report.",
	Long: "`parse <report>` parses one simulator report and prints it as " +
		"JSON, or in the simulator's own layout with --echo.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := report.ParseFile(args[0])
		if err != nil {
			exitf(1, "Error: %v", err)
		}

		echo, _ := cmd.Flags().GetBool("echo")
		if echo {
			if err := report.Write(os.Stdout, res); err != nil {
				exitf(1, "Error: %v", err)
			}
			return
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(res); err != nil {
			exitf(1, "Error: %v", err)
		}
	},
}

func init() {
	parseCmd.Flags().Bool("echo", false, "re-render the report instead of printing JSON")
	rootCmd.AddCommand(parseCmd)
}
