package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRPCCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpc",
		Short: "Low-level access to batch RPC methods",
	}

	cmd.AddCommand(newRPCCallCmd(app), newRPCMethodsCmd(app))

	return cmd
}

func newRPCCallCmd(app *app) *cobra.Command {
	var notebookID string

	cmd := &cobra.Command{
		Use:   "call <method> [params-json]",
		Short: "Call a registered method with raw positional params",
		Long:  "Call a registered method with raw positional params. The method is a symbolic name such as GET_SOURCE_GUIDE; params are a JSON array sent as-is. The decoded payload is printed as JSON.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := ""
			if len(args) == 2 {
				params = args[1]
			}

			payload, err := app.raw.Call(cmd.Context(), args[0], params, notebookID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, payload)
		},
	}

	cmd.Flags().StringVar(&notebookID, "notebook", "", "Notebook ID for the source-path of notebook scoped methods")

	return cmd
}

func newRPCMethodsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List registered methods and their wire codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, method := range app.methods.Methods() {
				desc, err := app.methods.Lookup(method)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-26s %-8s %s\n", method, desc.Code, desc.HumanName)
			}
			return nil
		},
	}
}
