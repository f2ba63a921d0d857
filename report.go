package kernelbench

import (
	"fmt"
	"io"
	"strings"
)

// Layout of PrintComparisons rows
const (
	reportLabelWidth = 30
	reportValueWidth = 14
	minBarWidth      = 10
	// DefaultReportWidth is used when the output is not a terminal
	DefaultReportWidth = 80
)

// PrintComparisons prints each comparison as a pair of horizontal bars
// scaled to the slowest measurement, followed by its speedup. width is the
// total line width available.
func PrintComparisons(w io.Writer, comparisons []Comparison, width int) {
	barWidth := width - reportLabelWidth - reportValueWidth - 2
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	var slowest float64
	for _, c := range comparisons {
		slowest = max(slowest, c.Baseline.Milliseconds(), c.Optimized.Milliseconds())
	}

	for _, c := range comparisons {
		fmt.Fprintf(w, "%s (%.2fx speedup)\n", c.Name, c.Speedup)
		printBar(w, c.Baseline, slowest, barWidth)
		printBar(w, c.Optimized, slowest, barWidth)
		fmt.Fprintln(w)
	}
}

func printBar(w io.Writer, m Measurement, slowest float64, barWidth int) {
	n := 0
	if slowest > 0 {
		n = int(m.Milliseconds() / slowest * float64(barWidth))
	}
	if n == 0 && m.Milliseconds() > 0 {
		n = 1
	}
	label := m.Unit
	if len(label) > reportLabelWidth-2 {
		label = label[:reportLabelWidth-2]
	}
	fmt.Fprintf(w, "  %-*s %-*s %*s\n",
		reportLabelWidth-2, label,
		barWidth, strings.Repeat("█", n),
		reportValueWidth-1, fmt.Sprintf("%.4f ms", m.Milliseconds()))
}
