// Package state persists the sync snapshot: the task set as of the end of the
// last successful sync, used as the merge base for the next three-way diff.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bolasblack/taskstodo/internal/task"
)

// SnapshotFilename is the name of the snapshot file inside the data directory.
const SnapshotFilename = "calcurse-sync.json"

// Snapshot is the persisted merge base.
type Snapshot struct {
	fs      afero.Fs
	dataDir string
}

// New creates a Snapshot stored under dataDir.
func New(fs afero.Fs, dataDir string) *Snapshot {
	return &Snapshot{fs: fs, dataDir: dataDir}
}

// Path returns the path to the snapshot file.
func (s *Snapshot) Path() string {
	return filepath.Join(s.dataDir, SnapshotFilename)
}

// Load reads the snapshot.
// Returns nil and no error if no snapshot exists yet (first run).
func (s *Snapshot) Load() ([]task.Task, error) {
	data, err := afero.ReadFile(s.fs, s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return tasks, nil
}

// Save replaces the snapshot with tasks.
// Creates the data directory if it does not exist.
func (s *Snapshot) Save(tasks []task.Task) error {
	if err := s.fs.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := s.fs.Rename(tmp, s.Path()); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot, so the next sync runs as a first sync.
func (s *Snapshot) Delete() error {
	err := s.fs.Remove(s.Path())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
