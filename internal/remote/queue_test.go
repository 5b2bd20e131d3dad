package remote

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bolasblack/taskstodo/internal/task"
)

func titles(tasks []task.Task) []string {
	var out []string
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestCreateQueue_SequentialSubmitsReversed(t *testing.T) {
	var got []task.Task
	q := createQueue{workers: 1}

	err := q.drain(context.Background(), []task.Task{{Title: "a"}, {Title: "b"}, {Title: "c"}},
		func(_ context.Context, tk task.Task) error {
			got = append(got, tk)
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, titles(got))
}

func TestCreateQueue_SequentialStopsOnError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	q := createQueue{}

	err := q.drain(context.Background(), []task.Task{{Title: "a"}, {Title: "b"}},
		func(context.Context, task.Task) error {
			calls++
			return boom
		})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestCreateQueue_PoolIsBounded(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
		total    atomic.Int32
	)
	q := createQueue{workers: 2, delay: time.Millisecond}

	tasks := make([]task.Task, 8)
	for i := range tasks {
		tasks[i] = task.Task{Title: string(rune('a' + i))}
	}

	err := q.drain(context.Background(), tasks, func(context.Context, task.Task) error {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)
		total.Add(1)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(8), total.Load())
	assert.LessOrEqual(t, maxSeen, 2)
}

func TestCreateQueue_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := createQueue{workers: 1}.drain(ctx, []task.Task{{Title: "a"}}, func(context.Context, task.Task) error {
		t.Error("create should not be called after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
