// Package task defines the task value shared by the local record, the remote
// list and the sync snapshot, and the three-way diff used to reconcile them.
package task

import "fmt"

// Task is a single todo item. Identity across stores is structural:
// two tasks are the same task iff both Title and Note match exactly.
type Task struct {
	Title string `json:"title"`
	// Note is empty when the task carries no note.
	Note string `json:"note,omitempty"`
}

// HasNote reports whether the task carries a note.
func (t Task) HasNote() bool {
	return t.Note != ""
}

func (t Task) String() string {
	if t.HasNote() {
		return fmt.Sprintf("%s (note: %q)", t.Title, t.Note)
	}
	return t.Title
}

// Set is an ordered collection of tasks with structural membership.
// Order is preserved; duplicates are allowed but ignored by Contains.
type Set []Task

// Contains reports whether t is a member of s.
func (s Set) Contains(t Task) bool {
	for _, x := range s {
		if x == t {
			return true
		}
	}
	return false
}

// Minus returns the members of s not in other, in s order, without duplicates.
func (s Set) Minus(other Set) Set {
	var out Set
	for _, t := range s {
		if other.Contains(t) || out.Contains(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Equal reports whether a and b hold the same tasks in the same order.
func Equal(a, b []Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
