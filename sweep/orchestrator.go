// Package sweep runs the simulator over ranges of cache parameters.
//
// A sweep varies exactly one axis (cache size, associativity or block size)
// while the other two stay at their defaults. Each value is derived, run and
// parsed on its own; a value that fails is reported and skipped, and the
// sweep moves on to the next value.
package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/l1sweep/geometry"
	"github.com/sarchlab/l1sweep/report"
	"github.com/sarchlab/l1sweep/simulator"
)

// Record is the outcome of one successful sweep value.
type Record struct {
	Axis        Axis                 `json:"axis"`
	Value       float64              `json:"value"`
	Config      geometry.CacheConfig `json:"config"`
	MaxExecTime uint64               `json:"max_exec_time"`

	// OutputPath is the report the record was parsed from.
	OutputPath string `json:"output_path"`

	// Result is the full parsed report.
	Result report.SimulationResult `json:"-"`
}

// Stage names the step at which a value failed.
type Stage string

// Stages of a single run.
const (
	StageConfigure Stage = "configure"
	StageRun       Stage = "run"
	StageParse     Stage = "parse"
	StageCancelled Stage = "cancelled"
)

// ValueError is the failure of one sweep value.
type ValueError struct {
	Axis  Axis
	Value float64
	Stage Stage
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s=%s: %s: %v", e.Axis, formatValue(e.Value), e.Stage, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

// RunError is the failure of one repeated run.
type RunError struct {
	Run   int
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %d: %s: %v", e.Run, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// An Orchestrator drives the simulator through sweeps and repeated runs.
// Invocations are strictly sequential.
type Orchestrator struct {
	*sim.HookableBase

	runner      simulator.Runner
	tracePrefix string
	outputDir   string
	defaults    Defaults
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOutputDir sets where reports are written. Default: current directory.
func WithOutputDir(dir string) Option {
	return func(o *Orchestrator) {
		o.outputDir = dir
	}
}

// WithDefaults sets the values of the axes that are not being swept.
func WithDefaults(d Defaults) Option {
	return func(o *Orchestrator) {
		o.defaults = d
	}
}

// NewOrchestrator creates an Orchestrator running the given traces.
func NewOrchestrator(
	runner simulator.Runner,
	tracePrefix string,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		HookableBase: sim.NewHookableBase(),
		runner:       runner,
		tracePrefix:  tracePrefix,
		outputDir:    ".",
		defaults:     DefaultParameters(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Defaults returns the values held fixed during sweeps.
func (o *Orchestrator) Defaults() Defaults {
	return o.defaults
}

// OutputPath returns the report path used for one sweep value.
func (o *Orchestrator) OutputPath(axis Axis, value float64) string {
	name := fmt.Sprintf("%s_%s_%s.txt",
		filepath.Base(o.tracePrefix), axis, formatValue(value))
	return filepath.Join(o.outputDir, name)
}

// RunOutputPath returns the report path used for one repeated run.
func (o *Orchestrator) RunOutputPath(run int) string {
	name := fmt.Sprintf("%s_run%d.txt", filepath.Base(o.tracePrefix), run)
	return filepath.Join(o.outputDir, name)
}

// Sweep runs every value of one axis, in order. It returns a record for
// each value that succeeded and an error for each that did not. If ctx is
// cancelled, the remaining values are reported as cancelled and the records
// collected so far are returned.
func (o *Orchestrator) Sweep(
	ctx context.Context,
	axis Axis,
	values []float64,
) ([]Record, []*ValueError) {
	records := make([]Record, 0, len(values))
	var failures []*ValueError

	for i, value := range values {
		if ctx.Err() != nil {
			for _, rest := range values[i:] {
				failures = append(failures, &ValueError{
					Axis:  axis,
					Value: rest,
					Stage: StageCancelled,
					Err:   ctx.Err(),
				})
			}
			break
		}

		ev := &Event{
			Kind:       KindSweep,
			Axis:       axis,
			Value:      value,
			Run:        i,
			OutputPath: o.OutputPath(axis, value),
		}

		res, stage, err := o.runOne(ctx, ev, func() (geometry.CacheConfig, error) {
			return o.defaults.Derive(axis, value)
		})
		if err != nil {
			failures = append(failures, &ValueError{
				Axis:  axis,
				Value: value,
				Stage: stage,
				Err:   err,
			})
			continue
		}

		records = append(records, Record{
			Axis:        axis,
			Value:       value,
			Config:      ev.Config,
			MaxExecTime: res.Bus.MaxExecTime,
			OutputPath:  ev.OutputPath,
			Result:      res,
		})
	}

	return records, failures
}

// Repeat runs the simulator n times with the same configuration and returns
// the parsed reports of the runs that succeeded, in run order.
func (o *Orchestrator) Repeat(
	ctx context.Context,
	cfg geometry.CacheConfig,
	n int,
) ([]report.SimulationResult, []*RunError) {
	var (
		results  []report.SimulationResult
		failures []*RunError
	)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			for run := i; run < n; run++ {
				failures = append(failures, &RunError{
					Run:   run,
					Stage: StageCancelled,
					Err:   ctx.Err(),
				})
			}
			break
		}

		ev := &Event{
			Kind:       KindRepeat,
			Run:        i,
			OutputPath: o.RunOutputPath(i),
		}

		res, stage, err := o.runOne(ctx, ev, func() (geometry.CacheConfig, error) {
			return cfg, cfg.Validate()
		})
		if err != nil {
			failures = append(failures, &RunError{Run: i, Stage: stage, Err: err})
			continue
		}

		results = append(results, res)
	}

	return results, failures
}

// runOne derives the configuration, runs the simulator and parses the
// report for a single event, invoking hooks around it.
func (o *Orchestrator) runOne(
	ctx context.Context,
	ev *Event,
	derive func() (geometry.CacheConfig, error),
) (report.SimulationResult, Stage, error) {
	fail := func(stage Stage, err error) (report.SimulationResult, Stage, error) {
		ev.Stage = stage
		ev.Err = err
		o.InvokeHook(sim.HookCtx{Domain: o, Pos: HookPosRunFailed, Item: ev})
		return report.SimulationResult{}, stage, err
	}

	cfg, err := derive()
	if err != nil {
		return fail(StageConfigure, err)
	}
	ev.Config = cfg

	o.InvokeHook(sim.HookCtx{Domain: o, Pos: HookPosRunStart, Item: ev})

	if err := os.MkdirAll(filepath.Dir(ev.OutputPath), 0o755); err != nil {
		return fail(StageRun, err)
	}

	info, err := o.runner.Run(ctx, cfg, o.tracePrefix, ev.OutputPath)
	ev.Info = info
	if err != nil {
		return fail(StageRun, err)
	}

	res, err := report.ParseFile(ev.OutputPath)
	if err != nil {
		return fail(StageParse, err)
	}
	ev.Result = &res

	o.InvokeHook(sim.HookCtx{Domain: o, Pos: HookPosRunDone, Item: ev})

	return res, "", nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
