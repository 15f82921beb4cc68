package sweep

import (
	"log"
	"strconv"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/l1sweep/geometry"
	"github.com/sarchlab/l1sweep/report"
	"github.com/sarchlab/l1sweep/simulator"
)

// HookPosRunStart triggers after the configuration is derived and before the
// simulator starts.
var HookPosRunStart = &sim.HookPos{Name: "RunStart"}

// HookPosRunDone triggers after a report is parsed.
var HookPosRunDone = &sim.HookPos{Name: "RunDone"}

// HookPosRunFailed triggers when any stage of a run fails.
var HookPosRunFailed = &sim.HookPos{Name: "RunFailed"}

// Kind tells sweep runs from repeated runs.
type Kind string

// Kinds of run.
const (
	KindSweep  Kind = "sweep"
	KindRepeat Kind = "repeat"
)

// Event is the hook item describing one run. Fields are filled in as the
// run progresses.
type Event struct {
	Kind Kind

	// Axis and Value are set for sweep runs only.
	Axis  Axis
	Value float64

	// Run is the index within the sweep or the repetition.
	Run int

	Config     geometry.CacheConfig
	OutputPath string
	Info       simulator.RunInfo

	// Result is set at HookPosRunDone.
	Result *report.SimulationResult

	// Stage and Err are set at HookPosRunFailed.
	Stage Stage
	Err   error
}

// LogHook prints failed runs, and every run start and finish when Verbose
// is set.
type LogHook struct {
	*log.Logger

	Verbose bool
}

// NewLogHook creates a LogHook that writes through logger.
func NewLogHook(logger *log.Logger, verbose bool) *LogHook {
	return &LogHook{Logger: logger, Verbose: verbose}
}

// Func implements sim.Hook.
func (h *LogHook) Func(ctx sim.HookCtx) {
	ev, ok := ctx.Item.(*Event)
	if !ok {
		return
	}

	name := h.describe(ev)

	if ctx.Pos != HookPosRunFailed && !h.Verbose {
		return
	}

	switch ctx.Pos {
	case HookPosRunStart:
		h.Printf("%s: running %s", name, ev.Config)
	case HookPosRunDone:
		h.Printf("%s: done in %s, max exec time %d cycles",
			name, ev.Info.WallTime.Round(time.Millisecond), ev.Result.Bus.MaxExecTime)
	case HookPosRunFailed:
		h.Printf("%s: failed at %s: %v", name, ev.Stage, ev.Err)
	}
}

func (h *LogHook) describe(ev *Event) string {
	if ev.Kind == KindRepeat {
		return "run " + strconv.Itoa(ev.Run)
	}
	return ev.Axis.String() + "=" + formatValue(ev.Value)
}
