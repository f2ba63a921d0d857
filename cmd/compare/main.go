// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command compare compares a kernelbench session against a baseline session
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/LynnColeArt/kernelbench"
)

type ComparisonResult struct {
	Suite  string
	Status string // "PASS", "FAIL", "SLOWER", "FASTER"

	BaselineMs float64 // optimized unit latency in the baseline session
	CurrentMs  float64 // optimized unit latency in the current session
	// Change is BaselineMs/CurrentMs: above 1 the current session is faster.
	Change float64

	BaselineSpeedup float64
	CurrentSpeedup  float64

	Message string
}

func main() {
	var (
		baselineFile = flag.String("baseline", "baseline.json", "Baseline session file")
		currentFile  = flag.String("current", "", "Current session file (default: latest in -log-dir)")
		logDir       = flag.String("log-dir", kernelbench.DefaultLogDir, "Session directory used when -current is empty")
		perfRegress  = flag.Float64("perf-regress", 1.1, "Performance regression threshold (1.1 = 10% slower)")
	)
	flag.Parse()
	log.SetFlags(0)

	baseline, err := kernelbench.LoadSession(*baselineFile)
	if err != nil {
		log.Fatalf("Failed to load baseline: %v", err)
	}

	path := *currentFile
	if path == "" {
		if path, err = kernelbench.LatestSession(*logDir); err != nil {
			log.Fatalf("Failed to find current session: %v", err)
		}
	}
	current, err := kernelbench.LoadSession(path)
	if err != nil {
		log.Fatalf("Failed to load current results: %v", err)
	}

	comparisons := compareSessions(baseline, current, *perfRegress)
	printSummary(os.Stdout, comparisons)

	for _, comp := range comparisons {
		if comp.Status == "FAIL" || comp.Status == "SLOWER" {
			os.Exit(1)
		}
	}
}

func compareSessions(baseline, current []kernelbench.SessionRecord, perfRegress float64) []ComparisonResult {
	currentMap := make(map[string]kernelbench.SessionRecord)
	for _, rec := range current {
		currentMap[rec.Name] = rec
	}

	comparisons := make([]ComparisonResult, 0, len(baseline))
	for _, base := range baseline {
		if base.Status != "pass" || base.Comparison == nil {
			continue
		}
		comp := ComparisonResult{
			Suite:           base.Name,
			BaselineMs:      base.Comparison.Optimized.Milliseconds(),
			BaselineSpeedup: base.Comparison.Speedup,
		}

		curr, exists := currentMap[base.Name]
		switch {
		case !exists:
			comp.Status = "FAIL"
			comp.Message = "Suite missing in current session"
		case curr.Status != "pass" || curr.Comparison == nil:
			comp.Status = "FAIL"
			comp.Message = "Suite failed in current session: " + curr.Error
		}
		if comp.Status != "" {
			comparisons = append(comparisons, comp)
			continue
		}

		comp.CurrentMs = curr.Comparison.Optimized.Milliseconds()
		comp.CurrentSpeedup = curr.Comparison.Speedup
		if comp.CurrentMs > 0 {
			comp.Change = comp.BaselineMs / comp.CurrentMs
		}

		switch {
		case comp.Change < 1.0/perfRegress:
			comp.Status = "SLOWER"
			comp.Message = fmt.Sprintf("Performance regression: %.2fx slower", 1.0/comp.Change)
		case comp.Change > 1.2:
			comp.Status = "FASTER"
			comp.Message = fmt.Sprintf("Performance improvement: %.2fx faster", comp.Change)
		default:
			comp.Status = "PASS"
		}
		comparisons = append(comparisons, comp)
	}
	return comparisons
}

func printSummary(w io.Writer, comparisons []ComparisonResult) {
	fmt.Fprintln(w, "=== kernelbench Session Comparison ===")
	fmt.Fprintln(w)

	statusCount := make(map[string]int)
	for _, comp := range comparisons {
		statusCount[comp.Status]++
	}

	fmt.Fprintf(w, "Total suites: %d\n", len(comparisons))
	for _, status := range []string{"PASS", "FAIL", "SLOWER", "FASTER"} {
		fmt.Fprintf(w, "  %-7s %d\n", status+":", statusCount[status])
	}
	fmt.Fprintln(w)

	if statusCount["FAIL"] > 0 {
		fmt.Fprintln(w, "FAILURES:")
		for _, comp := range comparisons {
			if comp.Status == "FAIL" {
				fmt.Fprintf(w, "  %s: %s\n", comp.Suite, comp.Message)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "DETAILED RESULTS:")
	fmt.Fprintf(w, "%-20s %-7s %12s %12s %8s %10s %10s\n",
		"Suite", "Status", "Baseline ms", "Current ms", "Change", "Speedup₀", "Speedup₁")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for _, comp := range comparisons {
		fmt.Fprintf(w, "%-20s %-7s %12.4f %12.4f %8.2f %10.2f %10.2f\n",
			comp.Suite, comp.Status,
			comp.BaselineMs, comp.CurrentMs, comp.Change,
			comp.BaselineSpeedup, comp.CurrentSpeedup)
	}
}
