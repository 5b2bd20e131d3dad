package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bolasblack/taskstodo/internal/remote"
)

var listsMax int

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show the Google Tasks lists",
	Args:  cobra.NoArgs,
	RunE:  runLists,
}

func init() {
	listsCmd.Flags().IntVarP(&listsMax, "max-results", "m", 100, "Maximum number of lists to show")
}

func runLists(cmd *cobra.Command, args []string) error {
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
	lists, err := rs.Lists(ctx)
	if err != nil {
		return err
	}

	printLists(cmd.OutOrStdout(), lists, listsMax, verbose)
	return nil
}

// printLists writes at most limit lists; limit <= 0 means all.
func printLists(w io.Writer, lists []remote.TaskList, limit int, verbose bool) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No task lists found.")
		return
	}
	if limit > 0 && len(lists) > limit {
		lists = lists[:limit]
	}

	fmt.Fprintln(w, "Task lists:")
	for _, l := range lists {
		fmt.Fprintf(w, "  - %s (ID: %s)\n", l.Title, l.ID)
		if verbose && l.Updated != "" {
			fmt.Fprintf(w, "    Updated: %s\n", l.Updated)
		}
	}
}
