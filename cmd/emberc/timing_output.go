package main

import (
	"fmt"
	"io"

	"emberc/internal/observ"
)

func printTimings(out io.Writer, report observ.Report) {
	if out == nil || len(report.Phases) == 0 {
		return
	}
	for _, p := range report.Phases {
		if p.Note != "" {
			fmt.Fprintf(out, "%-12s %8.2f ms  (%s)\n", p.Name, p.DurationMS, p.Note)
		} else {
			fmt.Fprintf(out, "%-12s %8.2f ms\n", p.Name, p.DurationMS)
		}
	}
	fmt.Fprintf(out, "%-12s %8.2f ms\n", "total", report.TotalMS)
}
