package remote

import (
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bolasblack/taskstodo/internal/task"
)

// DefaultSubmitDelay spaces concurrent creates. Remote ordering follows
// coarse update timestamps, so creates issued too close together may land
// in arbitrary relative order.
const DefaultSubmitDelay = 100 * time.Millisecond

// createQueue drains create calls in submission order.
//
// Each create lands at the head of the remote list, so tasks are submitted
// in reverse of their desired final order. With one worker submission is
// strictly sequential and the final order is exact. With more workers the
// queue is drained by a bounded pool with a fixed delay between submissions,
// which keeps the order approximately only.
type createQueue struct {
	workers int
	delay   time.Duration
}

func (q createQueue) drain(ctx context.Context, tasks []task.Task, create func(context.Context, task.Task) error) error {
	pending := slices.Clone(tasks)
	slices.Reverse(pending)

	if q.workers <= 1 {
		for _, t := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := create(ctx, t); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.workers)
	for i, t := range pending {
		if i > 0 && q.delay > 0 {
			select {
			case <-gctx.Done():
				if err := g.Wait(); err != nil {
					return err
				}
				return ctx.Err()
			case <-time.After(q.delay):
			}
		}
		g.Go(func() error {
			return create(gctx, t)
		})
	}
	return g.Wait()
}
