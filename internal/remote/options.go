package remote

import (
	"log"
	"time"
)

// Options configures a remote store.
type Options struct {
	// CreateWorkers bounds concurrent create calls. Values below 2 submit
	// sequentially, which is the only mode with an exact ordering guarantee.
	CreateWorkers int
	// SubmitDelay spaces submissions when CreateWorkers > 1.
	SubmitDelay time.Duration
	// Logger receives per-call diagnostics. Nil discards them.
	Logger *log.Logger
}

func (o Options) queue() createQueue {
	delay := o.SubmitDelay
	if delay == 0 {
		delay = DefaultSubmitDelay
	}
	return createQueue{workers: o.CreateWorkers, delay: delay}
}

func (o Options) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
