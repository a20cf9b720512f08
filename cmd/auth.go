package cmd

import (
	"fmt"
	"io"

	"github.com/bnema/notebooklm-cli/internal/adapters/render/view"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the NotebookLM browser session",
	}

	cmd.AddCommand(newAuthImportCmd(app), newAuthCheckCmd(app), newAuthRemoveCmd(app))

	return cmd
}

func newAuthImportCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <storage_state.json|->",
		Short: "Import a browser storage state export",
		Long:  "Import the cookies of a signed-in browser session. Pass the path of a Playwright storage_state.json export, or - to read it from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if path == "-" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read storage state: %w", err)
				}
				bundle, err := app.auth.Import(cmd.Context(), raw)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d Google cookies\n", len(bundle.Cookies))
				return nil
			}

			bundle, err := app.auth.ImportFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d Google cookies\n", len(bundle.Cookies))
			return nil
		},
	}
}

func newAuthCheckCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch fresh session tokens to verify the stored cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.sessions.runtime(cmd.Context())
			if err != nil {
				return err
			}

			status, err := app.auth.Check(cmd.Context(), rt.store, rt.refresher)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			rendered, err := view.Session(status, app.viewOptions())
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Forget the stored browser session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.auth.Remove(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Removed stored session")
			return nil
		},
	}
}
