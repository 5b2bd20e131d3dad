// Package todo reads and writes the calcurse TODO record: a plain-text file
// with one task per line, plus a sibling notes directory holding
// content-addressed note files.
package todo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/bolasblack/taskstodo/internal/task"
)

const (
	// TodoFilename is the record file name inside the calcurse directory.
	TodoFilename = "todo"
	// NotesDirname is the note directory name inside the calcurse directory.
	NotesDirname = "notes"
)

var (
	// ErrMalformedRecord is returned when a record line does not match the layout.
	ErrMalformedRecord = errors.New("malformed todo record")
	// ErrNoteHashMismatch is returned when a referenced note is missing,
	// unreadable, or its content does not hash to its name.
	ErrNoteHashMismatch = errors.New("note hash mismatch")
)

// Store is the local task store rooted at a calcurse data directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// New creates a Store for the calcurse data directory dir.
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// TodoPath returns the path of the record file.
func (s *Store) TodoPath() string {
	return filepath.Join(s.dir, TodoFilename)
}

// NotesDir returns the path of the notes directory.
func (s *Store) NotesDir() string {
	return filepath.Join(s.dir, NotesDirname)
}

// Read parses the record into tasks, in file order.
// A missing record reads as an empty list.
func (s *Store) Read() ([]task.Task, error) {
	lines, err := s.readLines()
	if err != nil {
		return nil, err
	}

	var tasks []task.Task
	for i, raw := range lines {
		if raw == "" {
			continue
		}
		t, err := s.resolve(raw)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.TodoPath(), i+1, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Append adds tasks to the end of the record, writing note files first.
func (s *Store) Append(tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, t := range tasks {
		hash := ""
		if t.HasNote() {
			h, err := s.writeNote(t.Note)
			if err != nil {
				return err
			}
			hash = h
		}
		buf.WriteString(formatTask(t, hash))
		buf.WriteByte('\n')
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create calcurse directory: %w", err)
	}

	needsNewline, err := s.missingTrailingNewline()
	if err != nil {
		return err
	}

	f, err := s.fs.OpenFile(s.TodoPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open todo file: %w", err)
	}
	defer f.Close()

	if needsNewline {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			return fmt.Errorf("failed to append to todo file: %w", err)
		}
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append to todo file: %w", err)
	}
	return f.Close()
}

// Remove rewrites the record without the lines whose task is in tasks.
// Matching is structural (title and note). Lines that cannot be resolved
// are kept verbatim. Note files of removed lines are left in place.
func (s *Store) Remove(tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	lines, err := s.readLines()
	if err != nil {
		return err
	}

	drop := task.Set(tasks)
	var buf bytes.Buffer
	for _, raw := range lines {
		if raw == "" {
			continue
		}
		if t, err := s.resolve(raw); err == nil && drop.Contains(t) {
			continue
		}
		buf.WriteString(raw)
		buf.WriteByte('\n')
	}

	return s.replace(buf.Bytes())
}

func (s *Store) resolve(raw string) (task.Task, error) {
	l, err := parseLine(raw)
	if err != nil {
		return task.Task{}, err
	}
	t := task.Task{Title: l.Title}
	if l.Hash != "" {
		note, err := s.readNote(l.Hash)
		if err != nil {
			return task.Task{}, err
		}
		t.Note = note
	}
	return t, nil
}

func (s *Store) readLines() ([]string, error) {
	data, err := afero.ReadFile(s.fs, s.TodoPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read todo file: %w", err)
	}
	return strings.Split(string(data), "\n"), nil
}

func (s *Store) missingTrailingNewline() (bool, error) {
	data, err := afero.ReadFile(s.fs, s.TodoPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read todo file: %w", err)
	}
	return len(data) > 0 && data[len(data)-1] != '\n', nil
}

// replace swaps the record for content through a temp file in the same directory.
func (s *Store) replace(content []byte) error {
	tmp, err := afero.TempFile(s.fs, s.dir, ".todo-*")
	if err != nil {
		return fmt.Errorf("failed to create temp todo file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temp todo file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temp todo file: %w", err)
	}
	if err := s.fs.Chmod(tmpPath, 0o644); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp todo file: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.TodoPath()); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to replace todo file: %w", err)
	}
	return nil
}
