package cmd

import (
	"github.com/bnema/notebooklm-cli/internal/adapters/render/view"
	"github.com/spf13/cobra"
)

func newArtifactCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Inspect studio artifacts",
	}

	cmd.AddCommand(newArtifactListCmd(app))

	return cmd
}

func newArtifactListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <notebook-id>",
		Short: "List the artifacts of a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifacts, err := app.generation.Artifacts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, artifacts)
			}
			rendered, err := view.Artifacts(args[0], artifacts)
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
