package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bolasblack/taskstodo/internal/remote"
	"github.com/bolasblack/taskstodo/internal/task"
)

var showListNumber int

var showCmd = &cobra.Command{
	Use:   "show <list-title>",
	Short: "Print the tasks of a Google Tasks list",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVarP(&showListNumber, "list-number", "l", 0, "Select among task lists sharing the title (1-based)")
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	rs, err := newRemote(cmd.Context(), a, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	sel := remote.Selector{Title: args[0], Index: showListNumber}
	tasks, err := withSelection(sel, func(sel remote.Selector) ([]task.Task, error) {
		ctx, cancel := a.withTimeout(cmd.Context())
		defer cancel()
		return rs.Fetch(ctx, sel)
	})
	if err != nil {
		return err
	}

	printTasks(cmd.OutOrStdout(), sel.Title, tasks, verbose)
	return nil
}

func printTasks(w io.Writer, title string, tasks []task.Task, verbose bool) {
	if len(tasks) == 0 {
		fmt.Fprintf(w, "No tasks in %s.\n", title)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, t := range tasks {
		fmt.Fprintf(w, "  - %s\n", t.Title)
		if verbose && t.HasNote() {
			fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(t.Note, "\n", "\n    "))
		}
	}
}
