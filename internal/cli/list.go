package cli

import (
	"github.com/spf13/cobra"

	"github.com/bolasblack/taskstodo/internal/remote"
	"github.com/bolasblack/taskstodo/internal/task"
	"github.com/bolasblack/taskstodo/internal/util"
)

var (
	listListNumber int
	listCreate     bool
	listDelete     bool
	listRename     string
)

var listCmd = &cobra.Command{
	Use:   "list <list-title>",
	Short: "Create, rename or delete a Google Tasks list",
	Long: `Manage the Google Tasks list of the given title.

Without an action flag the tasks of the list are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listListNumber, "list-number", "l", 0, "Select among task lists sharing the title (1-based)")
	listCmd.Flags().BoolVar(&listCreate, "create", false, "Create a new task list")
	listCmd.Flags().BoolVarP(&listDelete, "delete", "d", false, "Delete the task list")
	listCmd.Flags().StringVarP(&listRename, "update", "u", "", "Rename the task list to the given title")
	listCmd.MarkFlagsMutuallyExclusive("create", "delete", "update")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	rs, err := newRemote(cmd.Context(), a, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()
	out := cmd.OutOrStdout()
	sel := remote.Selector{Title: args[0], Index: listListNumber}

	switch {
	case listCreate:
		l, err := rs.CreateList(ctx, sel.Title)
		if err != nil {
			return err
		}
		util.ProgressDone(out, "Created list %s (ID: %s)\n", l.Title, l.ID)

	case listDelete:
		if _, err := withSelection(sel, func(sel remote.Selector) (struct{}, error) {
			return struct{}{}, rs.DeleteList(ctx, sel)
		}); err != nil {
			return err
		}
		util.ProgressDone(out, "Deleted list %s\n", sel.Title)

	case listRename != "":
		if _, err := withSelection(sel, func(sel remote.Selector) (struct{}, error) {
			return struct{}{}, rs.RenameList(ctx, sel, listRename)
		}); err != nil {
			return err
		}
		util.ProgressDone(out, "Renamed list %s to %s\n", sel.Title, listRename)

	default:
		tasks, err := withSelection(sel, func(sel remote.Selector) ([]task.Task, error) {
			return rs.Fetch(ctx, sel)
		})
		if err != nil {
			return err
		}
		printTasks(out, sel.Title, tasks, verbose)
	}
	return nil
}
