package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

const metricsShutdownTimeout = 2 * time.Second

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nblm",
		Short:         "NotebookLM CLI (nblm): notebooks, sources and studio artifacts",
		Long:          "nblm drives NotebookLM over its batch RPC endpoint with a browser session you import once. It manages notebooks and sources, starts audio, video, report and quiz generation, runs web research and waits on the resulting tasks.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp(stderrWriter{root: rootCmd})
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		rootCmd.AddCommand(newVersionCmd())
		return rootCmd
	}

	var stopMetrics func(context.Context) error
	if app.cfg.MetricsAddr != "" {
		rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
			stop, err := serveMetrics(app.cfg.MetricsAddr, app.registry, app.logger)
			if err != nil {
				return err
			}
			stopMetrics = stop
			return nil
		}
		rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
			if stopMetrics == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			return stopMetrics(ctx)
		}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAuthCmd(app),
		newNotebookCmd(app),
		newSourceCmd(app),
		newGenerateCmd(app),
		newArtifactCmd(app),
		newResearchCmd(app),
		newTaskCmd(app),
		newRPCCmd(app),
	)

	return rootCmd
}
