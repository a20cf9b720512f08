package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bnema/notebooklm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newSourceCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Add sources to a notebook",
	}

	cmd.AddCommand(newSourceAddURLCmd(app), newSourceAddTextCmd(app))

	return cmd
}

func newSourceAddURLCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-url <notebook-id> <url>",
		Short: "Add a web page or YouTube video as a source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := app.notebooks.AddURLSource(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printSourceRef(cmd, ref)
		},
	}
}

func newSourceAddTextCmd(app *app) *cobra.Command {
	var title string
	var file string

	cmd := &cobra.Command{
		Use:   "add-text <notebook-id>",
		Short: "Add pasted text as a source",
		Long:  "Add pasted text as a source. The text is read from --file, or from stdin when --file is - or omitted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, file)
			if err != nil {
				return err
			}
			ref, err := app.notebooks.AddTextSource(cmd.Context(), args[0], title, content)
			if err != nil {
				return err
			}
			return printSourceRef(cmd, ref)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Source title")
	cmd.Flags().StringVar(&file, "file", "-", "File holding the text, - for stdin")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func readContent(cmd *cobra.Command, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "" || file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read source text: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("source text is empty")
	}
	return string(data), nil
}

func printSourceRef(cmd *cobra.Command, ref domain.SourceRef) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Added source %s (%s)\n", ref.ID, ref.Title)
	return err
}
