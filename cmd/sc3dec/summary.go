package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// printSummary renders the results as a table. Unless all is set, only
// failed scripts get a row of their own.
func printSummary(w io.Writer, results []result, all bool) {
	t := table.NewWriter()
	t.SetTitle("Decode summary")
	t.AppendHeader(table.Row{"Script", "Status", "Instructions", "Time", "Error"})

	var total time.Duration
	for _, r := range results {
		total += r.elapsed
		if !all && r.status != statusFailed {
			continue
		}
		errText := ""
		if r.err != nil {
			errText = r.err.Error()
		}
		t.AppendRow(table.Row{r.name, r.status, r.instructions, r.elapsed.Round(time.Microsecond), errText})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d scripts", len(results)),
		fmt.Sprintf("%d decoded, %d unchanged, %d skipped, %d failed",
			countStatus(results, statusDecoded),
			countStatus(results, statusUnchanged),
			countStatus(results, statusSkipped),
			countStatus(results, statusFailed)),
		"",
		total.Round(time.Millisecond),
		"",
	})

	fmt.Fprintln(w, t.Render())
}
