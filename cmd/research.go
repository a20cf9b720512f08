package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/application"
	"github.com/spf13/cobra"
)

func newResearchCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Discover sources with web or Drive research",
	}

	cmd.AddCommand(newResearchStartCmd(app), newResearchImportCmd(app))

	return cmd
}

func newResearchStartCmd(app *app) *cobra.Command {
	var flags waitFlags
	var deep bool
	var drive bool

	cmd := &cobra.Command{
		Use:   "start <notebook-id> <query>",
		Short: "Start a research task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := app.research.Start(cmd.Context(), application.StartResearchCommand{
				NotebookID: args[0],
				Query:      strings.Join(args[1:], " "),
				Deep:       deep,
				Drive:      drive,
			})
			if err != nil {
				return err
			}

			label := "Researching..."
			if deep {
				label = "Running deep research..."
			}
			return finishTask(cmd, app, &task, flags, label)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&deep, "deep", false, "Run deep research (web only, takes minutes)")
	cmd.Flags().BoolVar(&drive, "drive", false, "Search Google Drive instead of the web")

	return cmd
}

func newResearchImportCmd(app *app) *cobra.Command {
	var urls []string

	cmd := &cobra.Command{
		Use:   "import <notebook-id> <task-id>",
		Short: "Import the sources found by a completed research task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := app.research.Import(cmd.Context(), application.ImportResearchCommand{
				NotebookID: args[0],
				TaskID:     args[1],
				URLs:       urls,
			})
			if err != nil {
				return err
			}

			for _, ref := range refs {
				if err := printSourceRef(cmd, ref); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sources\n", len(refs))
			return err
		},
	}

	cmd.Flags().StringSliceVar(&urls, "url", nil, "Only import these source URLs (default: all)")

	return cmd
}
