package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bolasblack/taskstodo/internal/remote"
	"github.com/bolasblack/taskstodo/internal/sync"
	"github.com/bolasblack/taskstodo/internal/util"
)

var (
	syncListNumber int
	syncDryRun     bool
	syncReset      bool
	syncWatch      bool
	syncInterval   time.Duration
	syncQuiet      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <list-title>",
	Short: "Sync the calcurse TODO list with a Google Tasks list",
	Long: `Sync the calcurse TODO list with the Google Tasks list of the given title.

Tasks added on either side since the last sync are copied to the other side,
tasks deleted on either side are deleted on the other. The first sync merges
both lists without deleting anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVarP(&syncListNumber, "list-number", "l", 0, "Select among task lists sharing the title (1-based)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Show what would change without changing anything")
	syncCmd.Flags().BoolVar(&syncReset, "reset", false, "Forget the last sync state and merge both sides")
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "Keep running, syncing on todo changes and periodically")
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "Periodic sync interval in watch mode (default from config)")
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "Suppress progress output")
}

func runSync(cmd *cobra.Command, args []string) error {
	var out io.Writer = cmd.OutOrStdout()
	var progress = out
	if syncQuiet {
		progress = nil
	}

	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	sel := remote.Selector{Title: args[0], Index: syncListNumber}
	ctx := cmd.Context()

	rs, err := newRemote(ctx, a, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	engine := a.engine(rs).WithOptions(sync.Options{
		DryRun:   syncDryRun,
		Reset:    syncReset,
		Progress: progress,
	})

	if syncWatch {
		return watchSync(ctx, a, rs, engine, sel, out, cmd.ErrOrStderr())
	}

	res, err := withSelection(sel, func(sel remote.Selector) (*sync.Result, error) {
		runCtx, cancel := a.withTimeout(ctx)
		defer cancel()
		return engine.Run(runCtx, sel)
	})
	if err != nil {
		return err
	}

	sync.RenderReport(out, res, verbose)
	return nil
}

func watchSync(ctx context.Context, a *app, rs remote.Store, engine *sync.Engine, sel remote.Selector, out, errOut io.Writer) error {
	// Resolve an ambiguous title once up front so every run hits the same list.
	sel, err := withSelection(sel, func(s remote.Selector) (remote.Selector, error) {
		_, err := rs.Fetch(ctx, s)
		return s, err
	})
	if err != nil {
		return err
	}

	interval := syncInterval
	if interval == 0 {
		interval = a.cfg.Watch.Interval.Duration
	}

	fmt.Fprintf(out, "Watching %s (interval %s), press Ctrl-C to stop\n", a.localStore().TodoPath(), interval)
	return sync.Watch(ctx, timeoutRunner{Runner: engine, a: a}, sel, sync.WatchOptions{
		TodoPath: a.localStore().TodoPath(),
		Interval: interval,
		Debounce: a.cfg.Watch.Debounce.Duration,
		Logger:   a.env.Logger,
		OnResult: func(res *sync.Result, err error) {
			if err != nil {
				util.ProgressFail(errOut, "Sync of %s failed: %v\n", sel, err)
				return
			}
			sync.RenderReport(out, res, verbose)
		},
	})
}
