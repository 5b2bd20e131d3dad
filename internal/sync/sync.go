// Package sync reconciles the calcurse TODO record with a remote task list.
//
// One run takes the marker lock, diffs both sides against the last converged
// snapshot, applies the minimal set of adds and deletes on each side and
// stores the re-read local record as the new snapshot.
package sync

import (
	"github.com/bolasblack/taskstodo/internal/task"
)

// LocalStore is the calcurse side of a sync.
// Implemented by todo.Store; sync depends only on this interface.
type LocalStore interface {
	Read() ([]task.Task, error)
	Append(tasks []task.Task) error
	Remove(tasks []task.Task) error
}

// SnapshotStore persists the merge base between runs.
// Implemented by state.Snapshot.
type SnapshotStore interface {
	Load() ([]task.Task, error)
	Save(tasks []task.Task) error
	Delete() error
}

// Locker provides cross-process exclusion.
// Implemented by lock.Lock.
type Locker interface {
	Acquire() error
	Release() error
}

// Phase is the engine state reached by a run.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseLocked
	PhaseDiffing
	PhaseReconciling
	PhaseSnapshotting
	PhaseDone
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseLocked:
		return "locked"
	case PhaseDiffing:
		return "diffing"
	case PhaseReconciling:
		return "reconciling"
	case PhaseSnapshotting:
		return "snapshotting"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	}
	return "unknown"
}

// Result describes a completed run.
type Result struct {
	RunID string `json:"runId"`
	// List is the selector the run was made against, for reporting.
	List   string      `json:"list"`
	Remote []task.Task `json:"remote"`
	Local  []task.Task `json:"local"`
	Plan   task.Plan   `json:"plan"`
	// Snapshot is the new merge base; nil for a dry run.
	Snapshot []task.Task `json:"snapshot,omitempty"`
	DryRun   bool        `json:"dryRun,omitempty"`
}

// Empty reports whether the run had nothing to do.
func (r *Result) Empty() bool {
	return r.Plan.Empty()
}
