package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/bolasblack/taskstodo/internal/task"
)

var (
	// ErrTaskNotFound is returned when a task position is outside the list.
	ErrTaskNotFound = errors.New("invalid task number")
	// ErrPositionOutOfRange is returned when a move target is outside the list.
	ErrPositionOutOfRange = errors.New("new position is out of range")
)

// Manager edits lists and single tasks directly, outside of a sync.
// Task positions are 1-based in list order, as printed by show.
type Manager interface {
	CreateList(ctx context.Context, title string) (TaskList, error)
	RenameList(ctx context.Context, sel Selector, title string) error
	DeleteList(ctx context.Context, sel Selector) error

	// CreateTask adds t at the head of the list.
	CreateTask(ctx context.Context, sel Selector, t task.Task) error
	UpdateTask(ctx context.Context, sel Selector, pos int, patch TaskPatch) error
	DeleteTask(ctx context.Context, sel Selector, pos int) error
	// MoveTask moves the task at pos so that it ends up at position to.
	MoveTask(ctx context.Context, sel Selector, pos, to int) error
}

// TaskPatch lists the fields to change; nil fields are kept.
type TaskPatch struct {
	Title *string
	Note  *string
}

func (p TaskPatch) apply(t task.Task) task.Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	return t
}

// taskIndex converts a 1-based position in a list of n tasks to an index.
func taskIndex(n, pos int) (int, error) {
	if pos < 1 || pos > n {
		return 0, fmt.Errorf("%w: %d", ErrTaskNotFound, pos)
	}
	return pos - 1, nil
}

// moveIndex validates a move of the task at index i to 1-based position to.
// It returns the target index and the index of the task that will precede
// the moved one, -1 meaning the head of the list.
func moveIndex(n, i, to int) (target, prev int, err error) {
	if to < 1 || to > n {
		return 0, 0, fmt.Errorf("%w: %d", ErrPositionOutOfRange, to)
	}
	target = to - 1
	switch {
	case target == i:
		return target, i - 1, nil
	case target < i:
		return target, target - 1, nil
	default:
		return target, target, nil
	}
}
