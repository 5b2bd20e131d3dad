package util

import (
	"io"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions selects where diagnostics go.
type LogOptions struct {
	// File is the log file; empty means the fallback writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Verbose    bool
}

// NewLogger returns a logger writing to a rotated file when File is set,
// otherwise to fallback. Without Verbose and without a file, output is discarded.
// The returned close func flushes and closes the log file.
func NewLogger(opts LogOptions, fallback io.Writer) (*log.Logger, func() error) {
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		return log.New(lj, "", log.LstdFlags), lj.Close
	}
	if !opts.Verbose || fallback == nil {
		return log.New(io.Discard, "", 0), func() error { return nil }
	}
	return log.New(fallback, "", log.Ltime), func() error { return nil }
}
