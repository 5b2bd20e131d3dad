package sync

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/bolasblack/taskstodo/internal/remote"
	"github.com/bolasblack/taskstodo/internal/task"
	"github.com/bolasblack/taskstodo/internal/util"
)

// Options tune a run.
type Options struct {
	// DryRun computes the plan and mutates nothing.
	DryRun bool
	// Reset discards the stored snapshot before diffing, so nothing is
	// deleted on either side. A dry run only ignores it.
	Reset bool
	// Progress receives user-facing step messages. Nil is silent.
	Progress io.Writer
}

// Engine runs syncs between one local store and one remote store.
type Engine struct {
	env    *util.Env
	local  LocalStore
	remote remote.Store
	snap   SnapshotStore
	lock   Locker
	opts   Options
}

// NewEngine creates an Engine from externally-created dependencies.
func NewEngine(env *util.Env, local LocalStore, rs remote.Store, snap SnapshotStore, lk Locker) *Engine {
	return &Engine{env: env, local: local, remote: rs, snap: snap, lock: lk}
}

// WithOptions returns a copy using opts.
func (e *Engine) WithOptions(opts Options) *Engine {
	c := *e
	c.opts = opts
	return &c
}

// run is the state of a single Run call.
type run struct {
	*Engine
	ctx    context.Context
	sel    remote.Selector
	logger *log.Logger
	phase  Phase
	result *Result
}

// Run performs one sync against the list chosen by sel.
//
// lock.ErrAlreadyRunning is returned untouched when another run holds the
// lock. Any failure after the lock is taken leaves the snapshot as it was
// and still releases the lock.
func (e *Engine) Run(ctx context.Context, sel remote.Selector) (_ *Result, err error) {
	id := uuid.NewString()
	base := e.env.Logger
	r := &run{
		Engine: e,
		ctx:    ctx,
		sel:    sel,
		logger: log.New(base.Writer(), util.RunPrefix(id)+base.Prefix(), base.Flags()),
		phase:  PhaseInit,
		result: &Result{RunID: id, List: sel.String(), DryRun: e.opts.DryRun},
	}

	if err := e.lock.Acquire(); err != nil {
		r.logger.Printf("not started: %v", err)
		return nil, err
	}
	r.enter(PhaseLocked)

	defer func() {
		if rerr := e.lock.Release(); rerr != nil {
			r.logger.Printf("failed to release lock: %v", rerr)
			if err == nil {
				err = fmt.Errorf("failed to release lock: %w", rerr)
			}
		}
		if err != nil {
			r.logger.Printf("aborted during %s: %v", r.phase, err)
			r.phase = PhaseAborted
		}
	}()

	if err := r.diff(); err != nil {
		return nil, err
	}
	if e.opts.DryRun {
		r.logger.Printf("dry run, plan: %s", planSummary(r.result.Plan))
		r.enter(PhaseDone)
		return r.result, nil
	}
	if err := r.reconcile(); err != nil {
		return nil, err
	}
	if err := r.snapshot(); err != nil {
		return nil, err
	}
	r.enter(PhaseDone)
	return r.result, nil
}

func (r *run) enter(p Phase) {
	r.phase = p
	r.logger.Printf("%s", p)
}

func (r *run) diff() error {
	r.enter(PhaseDiffing)

	var base []task.Task
	switch {
	case r.opts.Reset && r.opts.DryRun:
		r.logger.Printf("reset: ignoring stored snapshot")
	case r.opts.Reset:
		r.logger.Printf("reset: deleting stored snapshot")
		if err := r.snap.Delete(); err != nil {
			return err
		}
	default:
		var err error
		if base, err = r.snap.Load(); err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
	}

	util.ProgressStep(r.opts.Progress, "Fetching %s\n", r.sel)
	rt, err := r.remote.Fetch(r.ctx, r.sel)
	if err != nil {
		return err
	}
	lt, err := r.local.Read()
	if err != nil {
		return fmt.Errorf("failed to read local tasks: %w", err)
	}

	r.result.Remote = rt
	r.result.Local = lt
	r.result.Plan = task.Diff(base, lt, rt)
	r.logger.Printf("base=%d local=%d remote=%d plan: %s", len(base), len(lt), len(rt), planSummary(r.result.Plan))
	return nil
}

func (r *run) reconcile() error {
	r.enter(PhaseReconciling)
	p := r.result.Plan

	steps := []struct {
		tasks []task.Task
		verb  string
		noun  string
		apply func([]task.Task) error
	}{
		{p.RemoteDelete, "Deleting", "remote task", func(ts []task.Task) error {
			return r.remote.DeleteMany(r.ctx, r.sel, ts)
		}},
		{p.LocalAdd, "Adding", "local task", func(ts []task.Task) error {
			if err := r.local.Append(ts); err != nil {
				return fmt.Errorf("failed to append local tasks: %w", err)
			}
			return nil
		}},
		{p.LocalDelete, "Removing", "local task", func(ts []task.Task) error {
			if err := r.local.Remove(ts); err != nil {
				return fmt.Errorf("failed to remove local tasks: %w", err)
			}
			return nil
		}},
		{p.RemoteAdd, "Creating", "remote task", func(ts []task.Task) error {
			return r.remote.CreateMany(r.ctx, r.sel, ts)
		}},
	}

	for _, s := range steps {
		if len(s.tasks) == 0 {
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		util.ProgressStep(r.opts.Progress, "%s %s\n", s.verb, util.Count(len(s.tasks), s.noun))
		if err := s.apply(s.tasks); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) snapshot() error {
	r.enter(PhaseSnapshotting)

	converged, err := r.local.Read()
	if err != nil {
		return fmt.Errorf("failed to re-read local tasks: %w", err)
	}
	if err := r.snap.Save(converged); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	r.result.Snapshot = converged
	return nil
}

func planSummary(p task.Plan) string {
	return fmt.Sprintf("local +%d/-%d remote +%d/-%d",
		len(p.LocalAdd), len(p.LocalDelete), len(p.RemoteAdd), len(p.RemoteDelete))
}
