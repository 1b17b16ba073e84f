package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/CSB-hub/Seokwoo-Github/compileinfo"
	"github.com/CSB-hub/Seokwoo-Github/config"
	"github.com/CSB-hub/Seokwoo-Github/workflow"
)

// workflowCmd builds a command that runs fn over a freshly built workflow.
func workflowCmd(opts *globalOptions, use, short string, fn func(*workflow.Workflow) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, done, err := opts.newWorkflow(cmd)
			if err != nil {
				return err
			}
			defer done()

			return fn(w)
		},
	}
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	return workflowCmd(opts, "run", "Filter, compute statistics, draw every chart and write summaries",
		func(w *workflow.Workflow) error {
			finish := attachProgress(w, os.Stderr)
			defer finish()

			if err := w.RunAll(); err != nil {
				return err
			}
			return w.Supplementary()
		})
}

func newFilterCmd(opts *globalOptions) *cobra.Command {
	return workflowCmd(opts, "filter", "Write filtered, retained and truncated copies of every rank table",
		func(w *workflow.Workflow) error {
			finish := attachProgress(w, os.Stderr)
			defer finish()

			return w.ProcessAll()
		})
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return workflowCmd(opts, "stats", "Compute classification statistics and write the summary tables",
		func(w *workflow.Workflow) error {
			if _, _, err := w.ComputeStats(); err != nil {
				return err
			}
			return w.Export()
		})
}

func newPlotCmd(opts *globalOptions) *cobra.Command {
	return workflowCmd(opts, "plot", "Draw the summary line charts and cumulative barplots",
		func(w *workflow.Workflow) error {
			return w.Plot()
		})
}

func newSupplementaryCmd(opts *globalOptions) *cobra.Command {
	return workflowCmd(opts, "supplementary", "Draw barplots showing every taxon of each truncated table",
		func(w *workflow.Workflow) error {
			return w.Supplementary()
		})
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "metabarcoding.toml"
			if len(args) > 0 {
				path = args[0]
			}

			if err := config.WriteDefault(path); err != nil {
				return err
			}

			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return compileinfo.Fprint(cmd.OutOrStdout())
		},
	}
}
