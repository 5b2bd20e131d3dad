package sync

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bolasblack/taskstodo/internal/lock"
	"github.com/bolasblack/taskstodo/internal/remote"
	"github.com/bolasblack/taskstodo/internal/state"
	"github.com/bolasblack/taskstodo/internal/task"
	"github.com/bolasblack/taskstodo/internal/todo"
	"github.com/bolasblack/taskstodo/internal/util"
)

var (
	taskA = task.Task{Title: "A"}
	taskB = task.Task{Title: "B"}
	taskC = task.Task{Title: "C"}
	taskD = task.Task{Title: "D", Note: "with a note"}
)

var inbox = remote.Selector{Title: "Inbox"}

type fixture struct {
	env    *util.Env
	local  *todo.Store
	remote *remote.MemoryStore
	listID string
	snap   *state.Snapshot
	lock   *lock.Lock
	engine *Engine
}

func newFixture(t *testing.T, base, local, rt []task.Task) *fixture {
	t.Helper()
	env := util.NewTestEnv()
	f := &fixture{
		env:    env,
		local:  todo.New(env.Fs, "/calcurse"),
		remote: remote.NewMemoryStore(),
		snap:   state.New(env.Fs, "/data"),
		lock:   lock.New(env.Fs, "/data/lock"),
	}
	f.listID = f.remote.AddList("Inbox", rt...)
	if base != nil {
		require.NoError(t, f.snap.Save(base))
	}
	if len(local) > 0 {
		require.NoError(t, f.local.Append(local))
	}
	f.engine = NewEngine(env, f.local, f.remote, f.snap, f.lock)
	return f
}

func (f *fixture) localTasks(t *testing.T) []task.Task {
	t.Helper()
	got, err := f.local.Read()
	require.NoError(t, err)
	return got
}

func (f *fixture) snapshot(t *testing.T) []task.Task {
	t.Helper()
	got, err := f.snap.Load()
	require.NoError(t, err)
	return got
}

func (f *fixture) mutatingCalls() []string {
	var out []string
	for _, c := range f.remote.Calls {
		if !strings.HasPrefix(c, "fetch ") {
			out = append(out, c)
		}
	}
	return out
}

func TestRun_ThreeWay(t *testing.T) {
	f := newFixture(t,
		[]task.Task{taskA, taskB},
		[]task.Task{taskA, taskC},
		[]task.Task{taskB, taskD},
	)

	res, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.Equal(t, task.Plan{
		LocalAdd:     []task.Task{taskD},
		LocalDelete:  []task.Task{taskA},
		RemoteAdd:    []task.Task{taskC},
		RemoteDelete: []task.Task{taskB},
	}, res.Plan)

	want := []task.Task{taskC, taskD}
	assert.Equal(t, want, f.localTasks(t))
	assert.Equal(t, want, f.remote.Tasks(f.listID))
	assert.Equal(t, want, f.snapshot(t))
	assert.Equal(t, want, res.Snapshot)

	held, err := f.lock.Held()
	require.NoError(t, err)
	assert.False(t, held, "lock must be released")
}

func TestRun_ThreeWayWithUntouchedTask(t *testing.T) {
	f := newFixture(t,
		[]task.Task{taskA, taskB},
		[]task.Task{taskA, taskC},
		[]task.Task{taskA, taskB, taskD},
	)

	res, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.Empty(t, res.Plan.LocalDelete)
	want := []task.Task{taskA, taskC, taskD}
	assert.Equal(t, want, f.localTasks(t))
	assert.ElementsMatch(t, want, f.remote.Tasks(f.listID))
	assert.Equal(t, want, f.snapshot(t))
}

func TestRun_EmptyTitleRemoteTask(t *testing.T) {
	blank := task.Task{}
	f := newFixture(t, nil, []task.Task{taskA}, []task.Task{blank})

	_, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	want := []task.Task{taskA, blank}
	assert.Equal(t, want, f.localTasks(t))
	assert.Equal(t, want, f.snapshot(t))

	res, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t, nil, []task.Task{taskA, taskC}, []task.Task{taskB, taskD})

	_, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)
	local, rt, snap := f.localTasks(t), f.remote.Tasks(f.listID), f.snapshot(t)
	assert.ElementsMatch(t, local, rt)
	f.remote.Calls = nil

	res, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.Empty(t, f.mutatingCalls())
	assert.Equal(t, local, f.localTasks(t))
	assert.Equal(t, rt, f.remote.Tasks(f.listID))
	assert.Equal(t, snap, f.snapshot(t))
}

func TestRun_FirstRunPullsRemote(t *testing.T) {
	milk := task.Task{Title: "buy milk"}
	f := newFixture(t, nil, nil, []task.Task{milk})

	_, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	content, err := afero.ReadFile(f.env.Fs, "/calcurse/todo")
	require.NoError(t, err)
	assert.Equal(t, "[0] buy milk\n", string(content))
	assert.Equal(t, []task.Task{milk}, f.snapshot(t))
	assert.Equal(t, []task.Task{milk}, f.remote.Tasks(f.listID))
}

func TestRun_DeletionPropagates(t *testing.T) {
	f := newFixture(t, nil, []task.Task{taskA, taskB}, []task.Task{taskA, taskB})
	_, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	require.NoError(t, f.local.Remove([]task.Task{taskB}))

	res, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.Equal(t, []task.Task{taskB}, res.Plan.RemoteDelete)
	assert.Equal(t, []task.Task{taskA}, f.remote.Tasks(f.listID))
	assert.Equal(t, []task.Task{taskA}, f.snapshot(t))
}

func TestRun_NoteTravelsToLocal(t *testing.T) {
	f := newFixture(t, nil, nil, []task.Task{taskD})

	_, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.Equal(t, []task.Task{taskD}, f.localTasks(t))
	exists, err := afero.Exists(f.env.Fs, "/calcurse/notes/"+todo.NoteHash(taskD.Note))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRun_LockHeld(t *testing.T) {
	f := newFixture(t, []task.Task{taskA}, []task.Task{taskB}, []task.Task{taskC})
	require.NoError(t, f.lock.Acquire())
	before, _ := afero.ReadFile(f.env.Fs, "/calcurse/todo")

	res, err := f.engine.Run(context.Background(), inbox)

	assert.ErrorIs(t, err, lock.ErrAlreadyRunning)
	assert.Nil(t, res)
	assert.Empty(t, f.remote.Calls)
	assert.Equal(t, []task.Task{taskC}, f.remote.Tasks(f.listID))
	after, _ := afero.ReadFile(f.env.Fs, "/calcurse/todo")
	assert.Equal(t, before, after)
	assert.Equal(t, []task.Task{taskA}, f.snapshot(t))

	held, _ := f.lock.Held()
	assert.True(t, held, "foreign lock must stay in place")
}

func TestRun_RemoteUnavailable(t *testing.T) {
	f := newFixture(t, []task.Task{taskA}, []task.Task{taskA, taskB}, []task.Task{taskA})
	f.remote.Err = errors.New("connection refused")

	_, err := f.engine.Run(context.Background(), inbox)

	assert.ErrorIs(t, err, remote.ErrRemoteUnavailable)
	assert.Equal(t, []task.Task{taskA}, f.snapshot(t))
	held, _ := f.lock.Held()
	assert.False(t, held)
}

// failingRemote fails CreateMany after the other side was already modified.
type failingRemote struct {
	*remote.MemoryStore
}

func (failingRemote) CreateMany(context.Context, remote.Selector, []task.Task) error {
	return errors.New("quota exceeded")
}

func TestRun_FailureMidReconcileKeepsSnapshot(t *testing.T) {
	f := newFixture(t, nil, []task.Task{taskA}, []task.Task{taskB})
	engine := NewEngine(f.env, f.local, failingRemote{f.remote}, f.snap, f.lock)

	_, err := engine.Run(context.Background(), inbox)

	assert.ErrorContains(t, err, "quota exceeded")
	exists, _ := afero.Exists(f.env.Fs, f.snap.Path())
	assert.False(t, exists, "snapshot must not be written")
	held, _ := f.lock.Held()
	assert.False(t, held)
}

func TestRun_MalformedLocalRecord(t *testing.T) {
	f := newFixture(t, nil, nil, []task.Task{taskA})
	require.NoError(t, afero.WriteFile(f.env.Fs, "/calcurse/todo", []byte("garbage\n"), 0o644))

	_, err := f.engine.Run(context.Background(), inbox)

	assert.ErrorIs(t, err, todo.ErrMalformedRecord)
	assert.Empty(t, f.mutatingCalls())
	held, _ := f.lock.Held()
	assert.False(t, held)
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t, []task.Task{taskA, taskB}, []task.Task{taskA, taskC}, []task.Task{taskB, taskD})
	var progress bytes.Buffer
	engine := f.engine.WithOptions(Options{DryRun: true, Progress: &progress})

	res, err := engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.False(t, res.Empty())
	assert.Nil(t, res.Snapshot)
	assert.Empty(t, f.mutatingCalls())
	assert.Equal(t, []task.Task{taskA, taskC}, f.localTasks(t))
	assert.Equal(t, []task.Task{taskA, taskB}, f.snapshot(t))
	assert.Contains(t, progress.String(), "Fetching Inbox")
}

func TestRun_Reset(t *testing.T) {
	tests := []struct {
		name       string
		reset      bool
		wantRemote []task.Task
		wantLocal  []task.Task
	}{
		{"snapshot deletes remote B", false, []task.Task{taskA}, []task.Task{taskA}},
		{"reset keeps the union", true, []task.Task{taskA, taskB}, []task.Task{taskA, taskB}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []task.Task{taskA, taskB}, []task.Task{taskA}, []task.Task{taskA, taskB})

			_, err := f.engine.WithOptions(Options{Reset: tt.reset}).Run(context.Background(), inbox)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRemote, f.remote.Tasks(f.listID))
			assert.Equal(t, tt.wantLocal, f.localTasks(t))
		})
	}
}

func TestRun_ResetDeletesSnapshotBeforeDiff(t *testing.T) {
	f := newFixture(t, []task.Task{taskA, taskB}, []task.Task{taskA, taskC}, []task.Task{taskA, taskB})
	engine := NewEngine(f.env, f.local, failingRemote{f.remote}, f.snap, f.lock)

	_, err := engine.WithOptions(Options{Reset: true}).Run(context.Background(), inbox)

	assert.ErrorContains(t, err, "quota exceeded")
	exists, _ := afero.Exists(f.env.Fs, f.snap.Path())
	assert.False(t, exists, "reset must discard the old snapshot")
}

func TestRun_DryRunResetKeepsSnapshot(t *testing.T) {
	f := newFixture(t, []task.Task{taskA, taskB}, []task.Task{taskA}, []task.Task{taskA, taskB})

	res, err := f.engine.WithOptions(Options{Reset: true, DryRun: true}).Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.Equal(t, []task.Task{taskB}, res.Plan.LocalAdd)
	assert.Empty(t, res.Plan.RemoteDelete)
	assert.Equal(t, []task.Task{taskA, taskB}, f.snapshot(t))
}

func TestRun_ProgressCountsTasks(t *testing.T) {
	f := newFixture(t, nil, []task.Task{taskA}, []task.Task{taskB, taskD})
	var progress bytes.Buffer

	_, err := f.engine.WithOptions(Options{Progress: &progress}).Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.Equal(t, "→ Fetching Inbox\n→ Adding 2 local tasks\n→ Creating 1 remote task\n", progress.String())
}

func TestRun_CanceledContext(t *testing.T) {
	f := newFixture(t, nil, []task.Task{taskA}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Run(ctx, inbox)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.mutatingCalls())
	held, _ := f.lock.Held()
	assert.False(t, held)
}

func TestRun_LogsRunID(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	var logs bytes.Buffer
	f.env.Logger.SetOutput(&logs)

	res, err := f.engine.Run(context.Background(), inbox)
	require.NoError(t, err)

	assert.Contains(t, logs.String(), util.RunPrefix(res.RunID))
	assert.Contains(t, logs.String(), "snapshotting")
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseInit, "init"},
		{PhaseLocked, "locked"},
		{PhaseDiffing, "diffing"},
		{PhaseReconciling, "reconciling"},
		{PhaseSnapshotting, "snapshotting"},
		{PhaseDone, "done"},
		{PhaseAborted, "aborted"},
		{Phase(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.phase.String())
	}
}
