// Package remote adapts list-based task services to the sync engine.
//
// A Store exposes fetch/create/delete of tasks against a list chosen by a
// Selector. Server-only fields (ids, update times, positions) never leave
// this package: callers only see task.Task values.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bolasblack/taskstodo/internal/task"
)

var (
	// ErrRemoteUnavailable wraps every transport or API failure.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrListNotFound is returned when no list matches the selector title.
	ErrListNotFound = errors.New("task list does not exist")
	// ErrAmbiguousList is returned when several lists share the selector
	// title and no valid index was given. See AmbiguousListError.
	ErrAmbiguousList = errors.New("multiple task lists with duplicate titles found")
)

// Selector picks a task list by title. Index is 1-based and only consulted
// when several lists share the title; 0 means unspecified.
type Selector struct {
	Title string
	Index int
}

func (s Selector) String() string {
	if s.Index > 0 {
		return fmt.Sprintf("%s #%d", s.Title, s.Index)
	}
	return s.Title
}

// TaskList describes a remote list.
type TaskList struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Updated string `json:"updated,omitempty"`
}

// Store is the remote side of a sync.
type Store interface {
	// Fetch returns the list's tasks in list order.
	Fetch(ctx context.Context, sel Selector) ([]task.Task, error)
	// CreateMany creates tasks so that they appear at the head of the list
	// in the given order.
	CreateMany(ctx context.Context, sel Selector, tasks []task.Task) error
	// DeleteMany deletes every listed task currently present in the list.
	// Tasks not present are skipped.
	DeleteMany(ctx context.Context, sel Selector, tasks []task.Task) error
}

// Lister enumerates the lists available on a remote.
type Lister interface {
	Lists(ctx context.Context) ([]TaskList, error)
}

// AmbiguousListError carries the lists matching an ambiguous selector.
type AmbiguousListError struct {
	Title      string
	Candidates []TaskList
}

func (e *AmbiguousListError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %q:", ErrAmbiguousList, e.Title)
	for i, l := range e.Candidates {
		fmt.Fprintf(&b, "\n%d. ID: %s", i+1, l.ID)
	}
	b.WriteString("\nuse -l to select list number")
	return b.String()
}

func (e *AmbiguousListError) Unwrap() error {
	return ErrAmbiguousList
}

// matchTitle returns the lists whose title equals title, in server order.
func matchTitle(lists []TaskList, title string) []TaskList {
	var out []TaskList
	for _, l := range lists {
		if l.Title == title {
			out = append(out, l)
		}
	}
	return out
}

// selectList applies sel to lists.
func selectList(lists []TaskList, sel Selector) (TaskList, error) {
	matches := matchTitle(lists, sel.Title)
	switch {
	case len(matches) == 0:
		return TaskList{}, fmt.Errorf("%w: %q", ErrListNotFound, sel.Title)
	case len(matches) == 1:
		return matches[0], nil
	case sel.Index >= 1 && sel.Index <= len(matches):
		return matches[sel.Index-1], nil
	default:
		return TaskList{}, &AmbiguousListError{Title: sel.Title, Candidates: matches}
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRemoteUnavailable, op, err)
}
