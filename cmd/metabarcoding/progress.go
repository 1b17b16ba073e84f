package main

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/CSB-hub/Seokwoo-Github/abundance"
	"github.com/CSB-hub/Seokwoo-Github/filter"
	"github.com/CSB-hub/Seokwoo-Github/workflow"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// attachProgress shows a bar over the rank tables on w while they are
// filtered, if w is a terminal. The returned function finishes the bar.
func attachProgress(w *workflow.Workflow, out io.Writer) func() {
	if !isTerminal(out) {
		return func() {}
	}

	bar := progressbar.NewOptions(len(w.Ranks()),
		progressbar.OptionSetDescription("Filtering"),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)

	w.OnRankProcessed = func(r abundance.Rank, _ *filter.Result) {
		bar.Describe("Filtering " + r.Name)
		_ = bar.Add(1)
	}

	return func() { _ = bar.Finish() }
}
