package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/notebooklm-cli/internal/adapters/render/view"
	"github.com/bnema/notebooklm-cli/internal/application"
	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/bnema/notebooklm-cli/internal/rpc"
	"github.com/spf13/cobra"
)

// waitFlags are shared by every command that can block on a task.
type waitFlags struct {
	wait     bool
	interval time.Duration
	timeout  time.Duration
	asJSON   bool
}

func (f *waitFlags) register(cmd *cobra.Command, withWait bool) {
	if withWait {
		cmd.Flags().BoolVar(&f.wait, "wait", false, "Block until the task completes")
	}
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "Poll interval (default from poll.interval)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Give up waiting after this long (default from poll.timeout)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Render JSON output")
}

func newGenerateCmd(app *app) *cobra.Command {
	var flags waitFlags
	var sourceIDs []string
	var language string
	var instructions string
	var format string

	cmd := &cobra.Command{
		Use:   "generate <audio|video|report|quiz|flashcards> <notebook-id>",
		Short: "Start a studio artifact generation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := application.ParseGenerationKind(args[0])
			if err != nil {
				return err
			}
			if language == "" {
				language = app.cfg.Service.Language
			}

			task, err := app.generation.Generate(cmd.Context(), application.GenerateCommand{
				NotebookID:   args[1],
				Kind:         kind,
				SourceIDs:    sourceIDs,
				Language:     language,
				Instructions: instructions,
				ReportFormat: rpc.ReportFormat(format),
			})
			if err != nil {
				return err
			}

			return finishTask(cmd, app, &task, flags, fmt.Sprintf("Generating %s...", kind))
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringSliceVar(&sourceIDs, "source", nil, "Source IDs to use (default: every source)")
	cmd.Flags().StringVar(&language, "language", "", "Output language (default from service.language)")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Extra instructions, or the prompt of a custom report")
	cmd.Flags().StringVar(&format, "format", string(rpc.ReportBriefingDoc), "Report format (briefing-doc|study-guide|blog-post|custom)")

	return cmd
}

// finishTask prints a freshly submitted task or, with --wait, blocks until
// it settles and prints the outcome.
func finishTask(cmd *cobra.Command, app *app, task *domain.AsyncTask, flags waitFlags, label string) error {
	if !flags.wait {
		if flags.asJSON {
			return writeJSON(cmd, task)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Started %s task %s\nWait for it with `nblm task wait %s`\n", task.Kind, task.ID, task.ID)
		return err
	}

	var result any
	err := runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), flags.asJSON, label, func(ctx context.Context) error {
		var awaitErr error
		result, awaitErr = app.tasks.Await(ctx, task, flags.interval, flags.timeout)
		return awaitErr
	})
	if err != nil {
		return waitHint(err)
	}

	return printTask(cmd, app, *task, result, flags.asJSON)
}

func printTask(cmd *cobra.Command, app *app, task domain.AsyncTask, result any, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, task)
	}
	rendered, err := view.Task(task, result, app.viewOptions())
	return writeRendered(cmd, rendered, err)
}
