package store

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/l1sweep/sweep"
)

// RecordingHook writes every finished or failed run of an orchestrator to a
// Store.
type RecordingHook struct {
	store *Store
}

// NewRecordingHook creates a hook that records into s.
func NewRecordingHook(s *Store) *RecordingHook {
	return &RecordingHook{store: s}
}

// Func implements sim.Hook.
func (h *RecordingHook) Func(ctx sim.HookCtx) {
	ev, ok := ctx.Item.(*sweep.Event)
	if !ok {
		return
	}

	switch ctx.Pos {
	case sweep.HookPosRunDone:
		h.done(ev)
	case sweep.HookPosRunFailed:
		h.failed(ev)
	}
}

func (h *RecordingHook) done(ev *sweep.Event) {
	if ev.Result == nil {
		return
	}

	if ev.Kind == sweep.KindRepeat {
		h.store.RecordRun(ev.Run, *ev.Result, ev.Info)
		return
	}

	h.store.RecordSweep(sweep.Record{
		Axis:        ev.Axis,
		Value:       ev.Value,
		Config:      ev.Config,
		MaxExecTime: ev.Result.Bus.MaxExecTime,
		OutputPath:  ev.OutputPath,
	})
}

func (h *RecordingHook) failed(ev *sweep.Event) {
	if ev.Kind == sweep.KindRepeat {
		h.store.RecordRunFailure(&sweep.RunError{
			Run:   ev.Run,
			Stage: ev.Stage,
			Err:   ev.Err,
		})
		return
	}

	h.store.RecordFailure(&sweep.ValueError{
		Axis:  ev.Axis,
		Value: ev.Value,
		Stage: ev.Stage,
		Err:   ev.Err,
	})
}
