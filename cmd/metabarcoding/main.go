// metabarcoding filters noise taxa out of per-rank abundance tables
// (level-1.csv ... level-7.csv), measures how well each sample is classified
// at every rank, and draws summary charts next to the input files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CSB-hub/Seokwoo-Github/compileinfo"
)

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "metabarcoding",
		Short: "Taxonomy filtering, classification statistics and charts for metabarcoding tables",
		Long: `metabarcoding reads one abundance table per taxonomic rank (level-N.csv),
writes filtered, retained and truncated copies of each, computes the
unclassified fraction of every sample per rank and the retained-column ratio
per rank, and draws line charts and stacked barplots as PDF.`,
		Version:       compileinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.register(root)

	root.AddCommand(
		newRunCmd(opts),
		newFilterCmd(opts),
		newStatsCmd(opts),
		newPlotCmd(opts),
		newSupplementaryCmd(opts),
		newInitCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
