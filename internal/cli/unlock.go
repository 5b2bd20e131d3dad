package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bolasblack/taskstodo/internal/util"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Remove a stale sync lock",
	Long: `Remove the lock marker left behind by a sync that was killed.

Only run this when no other taskstodo sync is running: the lock is a plain
marker file and is not checked for a live owner.`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

func runUnlock(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	lk := a.lock()
	removed, err := lk.Break()
	if err != nil {
		return fmt.Errorf("failed to remove lock: %w", err)
	}
	if !removed {
		fmt.Fprintln(cmd.OutOrStdout(), "No lock held.")
		return nil
	}
	a.env.Logger.Printf("removed lock %s", lk.Path())
	util.ProgressDone(cmd.OutOrStdout(), "Removed %s\n", lk.Path())
	return nil
}
