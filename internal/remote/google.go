package remote

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"

	"github.com/bolasblack/taskstodo/internal/task"
)

// pageSize is the maximum page size accepted by the Tasks API.
const pageSize = 100

// Compile-time assertions.
var (
	_ Store   = (*GoogleStore)(nil)
	_ Lister  = (*GoogleStore)(nil)
	_ Manager = (*GoogleStore)(nil)
	_ Store   = (*MemoryStore)(nil)
	_ Lister  = (*MemoryStore)(nil)
	_ Manager = (*MemoryStore)(nil)
)

// GoogleStore is a Store backed by the Google Tasks API.
type GoogleStore struct {
	svc      *gtasks.Service
	opts     Options
	resolver cachedResolver
}

// NewGoogleStore creates a GoogleStore using an authorized HTTP client.
// cache may be nil to always resolve lists from the server.
func NewGoogleStore(ctx context.Context, client *http.Client, cache *ListCache, opts Options) (*GoogleStore, error) {
	svc, err := gtasks.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, unavailable("create tasks service", err)
	}
	return newGoogleStore(svc, cache, opts), nil
}

func newGoogleStore(svc *gtasks.Service, cache *ListCache, opts Options) *GoogleStore {
	g := &GoogleStore{svc: svc, opts: opts}
	g.resolver = cachedResolver{cache: cache, refresh: g.Lists}
	return g
}

// Lists implements Lister.
func (g *GoogleStore) Lists(ctx context.Context) ([]TaskList, error) {
	var lists []TaskList
	err := g.svc.Tasklists.List().MaxResults(pageSize).Pages(ctx, func(page *gtasks.TaskLists) error {
		for _, item := range page.Items {
			lists = append(lists, TaskList{ID: item.Id, Title: item.Title, Updated: item.Updated})
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("list task lists", err)
	}
	return lists, nil
}

// Fetch implements Store.
func (g *GoogleStore) Fetch(ctx context.Context, sel Selector) ([]task.Task, error) {
	var items []*gtasks.Task
	err := g.withList(ctx, sel, func(list TaskList) error {
		var err error
		items, err = g.listItems(ctx, list.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]task.Task, 0, len(items))
	for _, item := range items {
		out = append(out, task.Task{Title: item.Title, Note: item.Notes})
	}
	return out, nil
}

// CreateMany implements Store.
func (g *GoogleStore) CreateMany(ctx context.Context, sel Selector, tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	list, err := g.resolver.resolve(ctx, sel)
	if err != nil {
		return err
	}

	return g.opts.queue().drain(ctx, tasks, func(ctx context.Context, t task.Task) error {
		item := &gtasks.Task{Title: t.Title, Notes: t.Note}
		if _, err := g.svc.Tasks.Insert(list.ID, item).Context(ctx).Do(); err != nil {
			return unavailable("create task "+t.Title, err)
		}
		g.opts.logf("Created remote task %q in list %s", t.Title, list.ID)
		return nil
	})
}

// DeleteMany implements Store. The list is re-read so that each task is
// resolved against the current server order, then tasks are deleted from
// the highest position down.
func (g *GoogleStore) DeleteMany(ctx context.Context, sel Selector, tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	return g.withList(ctx, sel, func(list TaskList) error {
		items, err := g.listItems(ctx, list.ID)
		if err != nil {
			return err
		}

		current := make([]task.Task, len(items))
		for i, item := range items {
			current[i] = task.Task{Title: item.Title, Note: item.Notes}
		}

		for _, pos := range deletePositions(current, tasks) {
			item := items[pos]
			if err := g.svc.Tasks.Delete(list.ID, item.Id).Context(ctx).Do(); err != nil {
				if isNotFound(err) {
					continue
				}
				return unavailable("delete task "+item.Title, err)
			}
			g.opts.logf("Deleted remote task %q (position %d) in list %s", item.Title, pos, list.ID)
		}
		return nil
	})
}

// CreateList implements Manager.
func (g *GoogleStore) CreateList(ctx context.Context, title string) (TaskList, error) {
	item, err := g.svc.Tasklists.Insert(&gtasks.TaskList{Title: title}).Context(ctx).Do()
	if err != nil {
		return TaskList{}, unavailable("create task list "+title, err)
	}
	g.opts.logf("Created task list %q (%s)", title, item.Id)
	g.refreshCache(ctx)
	return TaskList{ID: item.Id, Title: item.Title, Updated: item.Updated}, nil
}

// RenameList implements Manager.
func (g *GoogleStore) RenameList(ctx context.Context, sel Selector, title string) error {
	err := g.withList(ctx, sel, func(list TaskList) error {
		if _, err := g.svc.Tasklists.Patch(list.ID, &gtasks.TaskList{Title: title}).Context(ctx).Do(); err != nil {
			return unavailable("rename task list "+list.Title, err)
		}
		g.opts.logf("Renamed task list %s to %q", list.ID, title)
		return nil
	})
	if err != nil {
		return err
	}
	g.refreshCache(ctx)
	return nil
}

// DeleteList implements Manager.
func (g *GoogleStore) DeleteList(ctx context.Context, sel Selector) error {
	err := g.withList(ctx, sel, func(list TaskList) error {
		if err := g.svc.Tasklists.Delete(list.ID).Context(ctx).Do(); err != nil {
			return unavailable("delete task list "+list.Title, err)
		}
		g.opts.logf("Deleted task list %q (%s)", list.Title, list.ID)
		return nil
	})
	if err != nil {
		return err
	}
	g.refreshCache(ctx)
	return nil
}

// CreateTask implements Manager.
func (g *GoogleStore) CreateTask(ctx context.Context, sel Selector, t task.Task) error {
	return g.withList(ctx, sel, func(list TaskList) error {
		if _, err := g.svc.Tasks.Insert(list.ID, &gtasks.Task{Title: t.Title, Notes: t.Note}).Context(ctx).Do(); err != nil {
			return unavailable("create task "+t.Title, err)
		}
		g.opts.logf("Created remote task %q in list %s", t.Title, list.ID)
		return nil
	})
}

// UpdateTask implements Manager.
func (g *GoogleStore) UpdateTask(ctx context.Context, sel Selector, pos int, patch TaskPatch) error {
	return g.withTask(ctx, sel, pos, func(list TaskList, items []*gtasks.Task, i int) error {
		body := &gtasks.Task{}
		if patch.Title != nil {
			body.Title = *patch.Title
			body.ForceSendFields = append(body.ForceSendFields, "Title")
		}
		if patch.Note != nil {
			body.Notes = *patch.Note
			body.ForceSendFields = append(body.ForceSendFields, "Notes")
		}
		if _, err := g.svc.Tasks.Patch(list.ID, items[i].Id, body).Context(ctx).Do(); err != nil {
			return unavailable("update task "+items[i].Title, err)
		}
		g.opts.logf("Updated remote task %q (position %d) in list %s", items[i].Title, i, list.ID)
		return nil
	})
}

// DeleteTask implements Manager.
func (g *GoogleStore) DeleteTask(ctx context.Context, sel Selector, pos int) error {
	return g.withTask(ctx, sel, pos, func(list TaskList, items []*gtasks.Task, i int) error {
		if err := g.svc.Tasks.Delete(list.ID, items[i].Id).Context(ctx).Do(); err != nil {
			return unavailable("delete task "+items[i].Title, err)
		}
		g.opts.logf("Deleted remote task %q (position %d) in list %s", items[i].Title, i, list.ID)
		return nil
	})
}

// MoveTask implements Manager.
func (g *GoogleStore) MoveTask(ctx context.Context, sel Selector, pos, to int) error {
	return g.withTask(ctx, sel, pos, func(list TaskList, items []*gtasks.Task, i int) error {
		target, prev, err := moveIndex(len(items), i, to)
		if err != nil || target == i {
			return err
		}

		call := g.svc.Tasks.Move(list.ID, items[i].Id)
		if prev >= 0 {
			call = call.Previous(items[prev].Id)
		}
		if _, err := call.Context(ctx).Do(); err != nil {
			return unavailable("move task "+items[i].Title, err)
		}
		g.opts.logf("Moved remote task %q from position %d to %d in list %s", items[i].Title, i, target, list.ID)
		return nil
	})
}

// withTask resolves sel, reads the list and runs fn with the index of the
// task at the 1-based position pos. Only the list read is retried on a
// stale list ID; fn runs once.
func (g *GoogleStore) withTask(ctx context.Context, sel Selector, pos int, fn func(TaskList, []*gtasks.Task, int) error) error {
	var list TaskList
	var items []*gtasks.Task
	err := g.withList(ctx, sel, func(l TaskList) error {
		var err error
		list = l
		items, err = g.listItems(ctx, l.ID)
		return err
	})
	if err != nil {
		return err
	}

	i, err := taskIndex(len(items), pos)
	if err != nil {
		return err
	}
	return fn(list, items, i)
}

// refreshCache rewrites the list cache after a list was created, renamed
// or deleted.
func (g *GoogleStore) refreshCache(ctx context.Context) {
	if g.resolver.cache == nil {
		return
	}
	lists, err := g.Lists(ctx)
	if err != nil {
		g.opts.logf("Failed to refresh list cache: %v", err)
		return
	}
	if err := g.resolver.cache.Write(lists); err != nil {
		g.opts.logf("Failed to refresh list cache: %v", err)
	}
}

// withList resolves sel and runs fn. If the cached list ID is gone on the
// server (the list was deleted and recreated with the same title), the
// cache is refreshed and fn retried once.
func (g *GoogleStore) withList(ctx context.Context, sel Selector, fn func(TaskList) error) error {
	list, err := g.resolver.resolve(ctx, sel)
	if err != nil {
		return err
	}

	err = fn(list)
	if err == nil || !isNotFound(err) {
		return err
	}

	list, err = g.resolver.resolveFresh(ctx, sel)
	if err != nil {
		return err
	}
	return fn(list)
}

// listItems returns the visible tasks of a list sorted by server position.
func (g *GoogleStore) listItems(ctx context.Context, listID string) ([]*gtasks.Task, error) {
	var items []*gtasks.Task
	err := g.svc.Tasks.List(listID).MaxResults(pageSize).Pages(ctx, func(page *gtasks.Tasks) error {
		for _, item := range page.Items {
			if item.Deleted || item.Hidden {
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("list tasks", err)
	}

	// The API returns tasks by update time; positions are zero-padded
	// strings that sort lexically into list order.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
