package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/notebooklm-cli/internal/adapters/render/view"
	"github.com/bnema/notebooklm-cli/internal/domain"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var jsonOutput = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := jsonOutput.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func writeRendered(cmd *cobra.Command, rendered string, err error) error {
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func (a *app) viewOptions() view.Options {
	return view.Options{Now: a.now()}
}

// waitHint turns a poll timeout into an error that tells the user how to
// resume.
func waitHint(err error) error {
	var timeout *domain.TimeoutError
	if errors.As(err, &timeout) {
		return fmt.Errorf("%w; resume with `nblm task wait %s`", err, timeout.TaskID)
	}
	return err
}
