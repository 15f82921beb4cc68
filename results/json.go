package results

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sarchlab/l1sweep/report"
	"github.com/sarchlab/l1sweep/stats"
	"github.com/sarchlab/l1sweep/sweep"
)

// Version is reported in the metadata of every JSON report.
const Version = "0.1.0"

// Report is the complete JSON output of a harness invocation.
type Report struct {
	Metadata Metadata `json:"metadata"`

	// Records are the successful sweep values.
	Records []sweep.Record `json:"records,omitempty"`

	// Axes counts successes and failures per swept axis.
	Axes []AxisOutcome `json:"axes,omitempty"`

	// Aggregates summarize repeated runs.
	Aggregates []stats.Summary `json:"aggregates,omitempty"`
}

// Metadata describes the invocation.
type Metadata struct {
	Timestamp    string         `json:"timestamp"`
	Version      string         `json:"version"`
	ReportFormat int            `json:"report_format"`
	TracePrefix  string         `json:"trace_prefix"`
	Defaults     sweep.Defaults `json:"defaults"`
	SessionID    string         `json:"session_id,omitempty"`
	RepeatedRuns int            `json:"repeated_runs,omitempty"`
}

// AxisOutcome is the JSON form of sweep.AxisSummary.
type AxisOutcome struct {
	Axis      sweep.Axis `json:"axis"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Failures  []string   `json:"failures,omitempty"`
}

// NewReport fills the metadata of a report.
func NewReport(tracePrefix string, defaults sweep.Defaults) *Report {
	return &Report{
		Metadata: Metadata{
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Version:      Version,
			ReportFormat: report.FormatVersion,
			TracePrefix:  tracePrefix,
			Defaults:     defaults,
		},
	}
}

// AddSweep adds the records and per-axis outcomes of a sweep.
func (r *Report) AddSweep(s sweep.Summary) {
	r.Records = append(r.Records, s.Records...)

	for _, a := range s.Axes {
		outcome := AxisOutcome{
			Axis:      a.Axis,
			Succeeded: a.Succeeded,
			Failed:    a.Failed,
		}
		for _, f := range a.Failures {
			outcome.Failures = append(outcome.Failures, f.Error())
		}
		r.Axes = append(r.Axes, outcome)
	}
}

// AddAggregates adds repeated-run summaries over n runs.
func (r *Report) AddAggregates(n int, summaries []stats.Summary) {
	r.Metadata.RepeatedRuns = n
	r.Aggregates = append(r.Aggregates, summaries...)
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
