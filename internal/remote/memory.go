package remote

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/bolasblack/taskstodo/internal/task"
)

// MemoryStore is an in-memory Store with the same list semantics as the
// Google Tasks adapter: creates insert at the head of the list, deletes
// address tasks by their current position.
// Records all calls for assertions in tests.
type MemoryStore struct {
	mu     sync.Mutex
	lists  []memoryList
	nextID int

	// Err, when set, is returned (wrapped with ErrRemoteUnavailable) from
	// every call, simulating an unreachable server.
	Err error

	// Calls records each operation as "fetch <list>", "create <list> <title>"
	// or "delete <list> <position> <title>", in order. Manager calls are
	// recorded the same way, with 0-based positions.
	Calls []string
}

type memoryList struct {
	TaskList
	tasks []task.Task
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddList adds a list holding tasks in order and returns its ID.
func (m *MemoryStore) AddList(title string, tasks ...task.Task) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addListLocked(title, tasks)
}

func (m *MemoryStore) addListLocked(title string, tasks []task.Task) string {
	m.nextID++
	id := fmt.Sprintf("list-%d", m.nextID)
	m.lists = append(m.lists, memoryList{
		TaskList: TaskList{ID: id, Title: title},
		tasks:    slices.Clone(tasks),
	})
	return id
}

// Tasks returns the current tasks of the list with the given ID.
func (m *MemoryStore) Tasks(listID string) []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lists {
		if l.ID == listID {
			return slices.Clone(l.tasks)
		}
	}
	return nil
}

// Lists implements Lister.
func (m *MemoryStore) Lists(ctx context.Context) ([]TaskList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, unavailable("list task lists", m.Err)
	}
	var out []TaskList
	for _, l := range m.lists {
		out = append(out, l.TaskList)
	}
	return out, nil
}

// Fetch implements Store.
func (m *MemoryStore) Fetch(ctx context.Context, sel Selector) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.selectLocked(sel)
	if err != nil {
		return nil, err
	}
	m.Calls = append(m.Calls, "fetch "+l.ID)
	return slices.Clone(l.tasks), nil
}

// CreateMany implements Store. Submission is sequential, in reverse order.
func (m *MemoryStore) CreateMany(ctx context.Context, sel Selector, tasks []task.Task) error {
	q := createQueue{workers: 1}
	return q.drain(ctx, tasks, func(ctx context.Context, t task.Task) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		l, err := m.selectLocked(sel)
		if err != nil {
			return err
		}
		m.Calls = append(m.Calls, fmt.Sprintf("create %s %s", l.ID, t.Title))
		l.tasks = slices.Insert(l.tasks, 0, t)
		return nil
	})
}

// DeleteMany implements Store, deleting in descending position order.
func (m *MemoryStore) DeleteMany(ctx context.Context, sel Selector, tasks []task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.selectLocked(sel)
	if err != nil {
		return err
	}

	for _, pos := range deletePositions(l.tasks, tasks) {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.Calls = append(m.Calls, fmt.Sprintf("delete %s %d %s", l.ID, pos, l.tasks[pos].Title))
		l.tasks = slices.Delete(l.tasks, pos, pos+1)
	}
	return nil
}

// CreateList implements Manager.
func (m *MemoryStore) CreateList(ctx context.Context, title string) (TaskList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return TaskList{}, unavailable("create task list "+title, m.Err)
	}
	id := m.addListLocked(title, nil)
	m.Calls = append(m.Calls, "create-list "+title)
	return TaskList{ID: id, Title: title}, nil
}

// RenameList implements Manager.
func (m *MemoryStore) RenameList(ctx context.Context, sel Selector, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.selectLocked(sel)
	if err != nil {
		return err
	}
	m.Calls = append(m.Calls, fmt.Sprintf("rename-list %s %s", l.ID, title))
	l.Title = title
	return nil
}

// DeleteList implements Manager.
func (m *MemoryStore) DeleteList(ctx context.Context, sel Selector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.selectLocked(sel)
	if err != nil {
		return err
	}
	id := l.ID
	m.Calls = append(m.Calls, "delete-list "+id)
	m.lists = slices.DeleteFunc(m.lists, func(l memoryList) bool { return l.ID == id })
	return nil
}

// CreateTask implements Manager.
func (m *MemoryStore) CreateTask(ctx context.Context, sel Selector, t task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.selectLocked(sel)
	if err != nil {
		return err
	}
	m.Calls = append(m.Calls, fmt.Sprintf("create %s %s", l.ID, t.Title))
	l.tasks = slices.Insert(l.tasks, 0, t)
	return nil
}

// UpdateTask implements Manager.
func (m *MemoryStore) UpdateTask(ctx context.Context, sel Selector, pos int, patch TaskPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, i, err := m.taskLocked(sel, pos)
	if err != nil {
		return err
	}
	m.Calls = append(m.Calls, fmt.Sprintf("update %s %d %s", l.ID, i, l.tasks[i].Title))
	l.tasks[i] = patch.apply(l.tasks[i])
	return nil
}

// DeleteTask implements Manager.
func (m *MemoryStore) DeleteTask(ctx context.Context, sel Selector, pos int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, i, err := m.taskLocked(sel, pos)
	if err != nil {
		return err
	}
	m.Calls = append(m.Calls, fmt.Sprintf("delete %s %d %s", l.ID, i, l.tasks[i].Title))
	l.tasks = slices.Delete(l.tasks, i, i+1)
	return nil
}

// MoveTask implements Manager.
func (m *MemoryStore) MoveTask(ctx context.Context, sel Selector, pos, to int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, i, err := m.taskLocked(sel, pos)
	if err != nil {
		return err
	}
	target, _, err := moveIndex(len(l.tasks), i, to)
	if err != nil || target == i {
		return err
	}
	m.Calls = append(m.Calls, fmt.Sprintf("move %s %d %d %s", l.ID, i, target, l.tasks[i].Title))
	t := l.tasks[i]
	l.tasks = slices.Insert(slices.Delete(l.tasks, i, i+1), target, t)
	return nil
}

func (m *MemoryStore) taskLocked(sel Selector, pos int) (*memoryList, int, error) {
	l, err := m.selectLocked(sel)
	if err != nil {
		return nil, 0, err
	}
	i, err := taskIndex(len(l.tasks), pos)
	if err != nil {
		return nil, 0, err
	}
	return l, i, nil
}

func (m *MemoryStore) selectLocked(sel Selector) (*memoryList, error) {
	if m.Err != nil {
		return nil, unavailable("select "+sel.String(), m.Err)
	}
	var lists []TaskList
	for _, l := range m.lists {
		lists = append(lists, l.TaskList)
	}
	picked, err := selectList(lists, sel)
	if err != nil {
		return nil, err
	}
	for i := range m.lists {
		if m.lists[i].ID == picked.ID {
			return &m.lists[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrListNotFound, sel.Title)
}

// deletePositions resolves each wanted task to its position in current and
// returns the positions in descending order, so that deleting them one by
// one never shifts a position still to be deleted. Every occurrence of a
// wanted task is deleted; tasks not present are skipped.
func deletePositions(current, wanted []task.Task) []int {
	set := task.Set(wanted)
	var positions []int
	for i, t := range current {
		if set.Contains(t) {
			positions = append(positions, i)
		}
	}
	slices.Reverse(positions)
	return positions
}
