package util

import (
	"io"
	"log"

	"github.com/spf13/afero"
)

// Env contains environment dependencies that can be mocked for testing.
type Env struct {
	// Fs is the filesystem to use for file operations.
	Fs afero.Fs
	// Logger receives diagnostic output. Never nil.
	Logger *log.Logger
}

// NewEnv creates an Env with the given filesystem and logger.
// A nil logger discards everything.
func NewEnv(fs afero.Fs, logger *log.Logger) *Env {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Env{Fs: fs, Logger: logger}
}

// NewTestEnv creates an Env with in-memory filesystem and a silent logger (for testing).
func NewTestEnv() *Env {
	return NewEnv(afero.NewMemMapFs(), nil)
}
