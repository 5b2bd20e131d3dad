// Package util provides shared utility functions across the CLI and sync engine.
package util

import (
	"fmt"
	"io"
)

// Marks prefixed to progress lines.
const (
	MarkStep = "→"
	MarkDone = "✓"
	MarkFail = "✗"
)

// Progress writes a progress message to w. A nil w is quiet mode.
func Progress(w io.Writer, format string, args ...any) {
	if w != nil {
		_, _ = fmt.Fprintf(w, format, args...)
	}
}

func progressMark(w io.Writer, mark, format string, args ...any) {
	Progress(w, mark+" "+format, args...)
}

// ProgressStep reports a step in progress.
func ProgressStep(w io.Writer, format string, args ...any) {
	progressMark(w, MarkStep, format, args...)
}

// ProgressDone reports a completed step.
func ProgressDone(w io.Writer, format string, args ...any) {
	progressMark(w, MarkDone, format, args...)
}

// ProgressFail reports a failed step the caller recovers from, like one
// failed run of a watch loop.
func ProgressFail(w io.Writer, format string, args ...any) {
	progressMark(w, MarkFail, format, args...)
}

// Count formats n with noun, adding an "s" unless n is 1:
// Count(1, "local task") is "1 local task", Count(3, "local task") is
// "3 local tasks".
func Count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
