package todo

import (
	"fmt"

	"github.com/bolasblack/taskstodo/internal/task"
)

// Record line layout:
//
//	[0] title                    plain
//	[0]>3a9c...(40 hex) title    note-bearing
//
// The three-byte status prefix is calcurse's priority and is opaque here.
const (
	statusLen     = 3
	plainMarker   = ' '
	noteMarker    = '>'
	hashLen       = 40
	DefaultStatus = "[0]"
)

// line is a parsed record line. Title and Hash are extracted; the note text
// itself lives in the note file and is resolved by the store.
type line struct {
	Status string
	Hash   string // empty for plain lines
	Title  string
}

func parseLine(s string) (line, error) {
	if len(s) < statusLen+1 || s[0] != '[' || s[statusLen-1] != ']' {
		return line{}, fmt.Errorf("%w: missing status prefix", ErrMalformedRecord)
	}

	l := line{Status: s[:statusLen]}
	rest := s[statusLen+1:]

	switch s[statusLen] {
	case plainMarker:
		l.Title = rest
	case noteMarker:
		if len(rest) < hashLen+1 || rest[hashLen] != ' ' || !isHex(rest[:hashLen]) {
			return line{}, fmt.Errorf("%w: bad note reference", ErrMalformedRecord)
		}
		l.Hash = rest[:hashLen]
		l.Title = rest[hashLen+1:]
	default:
		return line{}, fmt.Errorf("%w: unexpected marker %q", ErrMalformedRecord, s[statusLen])
	}

	return l, nil
}

func (l line) String() string {
	if l.Hash != "" {
		return l.Status + string(noteMarker) + l.Hash + " " + l.Title
	}
	return l.Status + string(plainMarker) + l.Title
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

// formatTask renders a new record line for t, given the digest of its note.
func formatTask(t task.Task, hash string) string {
	return line{Status: DefaultStatus, Hash: hash, Title: t.Title}.String()
}
