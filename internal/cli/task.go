package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bolasblack/taskstodo/internal/remote"
	"github.com/bolasblack/taskstodo/internal/task"
	"github.com/bolasblack/taskstodo/internal/util"
)

var (
	taskListNumber int
	taskNumber     int
	taskCreate     string
	taskDelete     bool
	taskRename     string
	taskMoveTo     int
	taskNote       string
)

var taskCmd = &cobra.Command{
	Use:   "task <list-title>",
	Short: "Create, edit, move or delete a task in a Google Tasks list",
	Long: `Manage single tasks of the Google Tasks list of the given title.

Tasks are selected by their 1-based position with -t, in the order show
prints them. With -t and no action the task is printed; without -t the
whole list is printed. A "\n" in a note starts a new line.`,
	Args: cobra.ExactArgs(1),
	RunE: runTask,
}

func init() {
	taskCmd.Flags().IntVarP(&taskListNumber, "list-number", "l", 0, "Select among task lists sharing the title (1-based)")
	taskCmd.Flags().IntVarP(&taskNumber, "task", "t", 0, "Select the task at this position (1-based)")
	taskCmd.Flags().StringVar(&taskCreate, "create", "", "Create a new task with the given title")
	taskCmd.Flags().BoolVarP(&taskDelete, "delete", "d", false, "Delete the selected task")
	taskCmd.Flags().StringVarP(&taskRename, "update", "u", "", "Change the title of the selected task")
	taskCmd.Flags().IntVarP(&taskMoveTo, "move", "m", 0, "Move the selected task to this position (1-based)")
	taskCmd.Flags().StringVarP(&taskNote, "note", "n", "", "Set the note of the selected or created task")
	taskCmd.MarkFlagsMutuallyExclusive("create", "delete", "update", "move")
	taskCmd.MarkFlagsMutuallyExclusive("delete", "note")
	taskCmd.MarkFlagsMutuallyExclusive("move", "note")
}

func runTask(cmd *cobra.Command, args []string) error {
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
	sel := remote.Selector{Title: args[0], Index: taskListNumber}
	_, err = withSelection(sel, func(sel remote.Selector) (struct{}, error) {
		return struct{}{}, manageTask(ctx, rs, sel, cmd.OutOrStdout())
	})
	return err
}

func manageTask(ctx context.Context, rs remoteBackend, sel remote.Selector, out io.Writer) error {
	note := strings.ReplaceAll(taskNote, `\n`, "\n")

	if taskCreate != "" {
		if err := rs.CreateTask(ctx, sel, task.Task{Title: taskCreate, Note: note}); err != nil {
			return err
		}
		util.ProgressDone(out, "Created task %s in %s\n", taskCreate, sel.Title)
		return nil
	}

	action := taskDelete || taskRename != "" || taskMoveTo != 0 || taskNote != ""
	if taskNumber == 0 {
		if action {
			return fmt.Errorf("%w: select one with -t", remote.ErrTaskNotFound)
		}
		tasks, err := rs.Fetch(ctx, sel)
		if err != nil {
			return err
		}
		printTasks(out, sel.Title, tasks, verbose)
		return nil
	}

	switch {
	case taskDelete:
		if err := rs.DeleteTask(ctx, sel, taskNumber); err != nil {
			return err
		}
		util.ProgressDone(out, "Deleted task %d from %s\n", taskNumber, sel.Title)

	case taskMoveTo != 0:
		if err := rs.MoveTask(ctx, sel, taskNumber, taskMoveTo); err != nil {
			return err
		}
		util.ProgressDone(out, "Moved task %d to %d in %s\n", taskNumber, taskMoveTo, sel.Title)

	case taskRename != "" || taskNote != "":
		var patch remote.TaskPatch
		if taskRename != "" {
			patch.Title = &taskRename
		}
		if taskNote != "" {
			patch.Note = &note
		}
		if err := rs.UpdateTask(ctx, sel, taskNumber, patch); err != nil {
			return err
		}
		util.ProgressDone(out, "Updated task %d in %s\n", taskNumber, sel.Title)

	default:
		tasks, err := rs.Fetch(ctx, sel)
		if err != nil {
			return err
		}
		if taskNumber < 1 || taskNumber > len(tasks) {
			return fmt.Errorf("%w: %d", remote.ErrTaskNotFound, taskNumber)
		}
		printTask(out, tasks[taskNumber-1])
	}
	return nil
}

func printTask(w io.Writer, t task.Task) {
	fmt.Fprintf(w, "Title: %s\n", t.Title)
	if t.HasNote() {
		fmt.Fprintf(w, "Note: %s\n", t.Note)
	}
}
