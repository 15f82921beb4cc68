package sweep

import "context"

// AxisSummary counts the outcome of one axis of a plan.
type AxisSummary struct {
	Axis      Axis          `json:"axis"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []*ValueError `json:"-"`
}

// Summary is the outcome of a whole plan.
type Summary struct {
	Axes    []AxisSummary `json:"axes"`
	Records []Record      `json:"records"`
}

// Succeeded returns the number of successful values across all axes.
func (s Summary) Succeeded() int {
	n := 0
	for _, a := range s.Axes {
		n += a.Succeeded
	}
	return n
}

// Failed returns the number of failed values across all axes.
func (s Summary) Failed() int {
	n := 0
	for _, a := range s.Axes {
		n += a.Failed
	}
	return n
}

// Failures returns every value error, in plan order.
func (s Summary) Failures() []*ValueError {
	var out []*ValueError
	for _, a := range s.Axes {
		out = append(out, a.Failures...)
	}
	return out
}

// SweepAll sweeps every axis of the plan in order. Cancellation stops the
// current axis and marks every remaining value of the plan as cancelled.
func (o *Orchestrator) SweepAll(ctx context.Context, plan Plan) Summary {
	var summary Summary

	for _, av := range plan {
		records, failures := o.Sweep(ctx, av.Axis, av.Values)

		summary.Records = append(summary.Records, records...)
		summary.Axes = append(summary.Axes, AxisSummary{
			Axis:      av.Axis,
			Succeeded: len(records),
			Failed:    len(failures),
			Failures:  failures,
		})
	}

	return summary
}
