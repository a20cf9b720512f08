package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/notebooklm-cli/internal/adapters/render/view"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Track generation and research tasks",
	}

	cmd.AddCommand(newTaskListCmd(app), newTaskWaitCmd(app))

	return cmd
}

func newTaskListCmd(app *app) *cobra.Command {
	var refresh bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := app.tasks.List(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, tasks)
			}
			rendered, err := view.Tasks(tasks, app.viewOptions())
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Poll unfinished tasks once before listing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newTaskWaitCmd(app *app) *cobra.Command {
	var flags waitFlags

	cmd := &cobra.Command{
		Use:   "wait <task-id>",
		Short: "Resume waiting on a recorded task with a fresh deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				task   domain.AsyncTask
				result any
			)
			err := runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), flags.asJSON, fmt.Sprintf("Waiting on task %s...", args[0]), func(ctx context.Context) error {
				var waitErr error
				task, result, waitErr = app.tasks.Wait(ctx, args[0], flags.interval, flags.timeout)
				return waitErr
			})
			if err != nil {
				return waitHint(err)
			}

			return printTask(cmd, app, task, result, flags.asJSON)
		},
	}

	flags.register(cmd, false)

	return cmd
}
