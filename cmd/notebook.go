package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/notebooklm-cli/internal/adapters/render/view"
	"github.com/spf13/cobra"
)

func newNotebookCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notebook",
		Aliases: []string{"nb"},
		Short:   "List and manage notebooks",
	}

	cmd.AddCommand(
		newNotebookListCmd(app),
		newNotebookCreateCmd(app),
		newNotebookRenameCmd(app),
		newNotebookDeleteCmd(app),
	)

	return cmd
}

func newNotebookListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notebooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			notebooks, err := app.notebooks.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, notebooks)
			}
			rendered, err := view.Notebooks(notebooks, app.viewOptions())
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newNotebookCreateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create a notebook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notebook, err := app.notebooks.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created notebook %s\n", notebook.ID)
			return nil
		},
	}
}

func newNotebookRenameCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <notebook-id> <title>",
		Short: "Rename a notebook",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			notebook, err := app.notebooks.Rename(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed notebook %s to %q\n", notebook.ID, notebook.Title)
			return nil
		},
	}
}

func newNotebookDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <notebook-id>",
		Short: "Delete a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.notebooks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted notebook %s\n", args[0])
			return nil
		},
	}
}
