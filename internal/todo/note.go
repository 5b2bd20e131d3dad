package todo

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// NoteHash returns the content address of a note: the hex SHA-1 of the note
// text followed by one newline, which is exactly the note file content.
func NoteHash(note string) string {
	sum := sha1.Sum([]byte(note + "\n"))
	return hex.EncodeToString(sum[:])
}

func (s *Store) notePath(hash string) string {
	return filepath.Join(s.NotesDir(), hash)
}

// readNote loads and verifies the note stored under hash.
func (s *Store) readNote(hash string) (string, error) {
	data, err := afero.ReadFile(s.fs, s.notePath(hash))
	if err != nil {
		return "", fmt.Errorf("%w: note %s: %v", ErrNoteHashMismatch, hash, err)
	}

	sum := sha1.Sum(data)
	if got := hex.EncodeToString(sum[:]); got != hash {
		return "", fmt.Errorf("%w: note %s has digest %s", ErrNoteHashMismatch, hash, got)
	}

	return strings.TrimSuffix(string(data), "\n"), nil
}

// writeNote stores note under its content address and returns the address.
func (s *Store) writeNote(note string) (string, error) {
	hash := NoteHash(note)
	if err := s.fs.MkdirAll(s.NotesDir(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create notes directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.notePath(hash), []byte(note+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write note %s: %w", hash, err)
	}
	return hash, nil
}
