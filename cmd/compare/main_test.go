package main

import (
	"strings"
	"testing"
	"time"

	"github.com/LynnColeArt/kernelbench"
)

func passRecord(name string, optimized time.Duration) kernelbench.SessionRecord {
	return kernelbench.SessionRecord{
		Name:   name,
		Status: "pass",
		Comparison: &kernelbench.Comparison{
			Name:      name,
			Baseline:  kernelbench.Measurement{Iterations: 1, Total: 2 * optimized, Mean: 2 * optimized},
			Optimized: kernelbench.Measurement{Iterations: 1, Total: optimized, Mean: optimized},
			Speedup:   2,
		},
	}
}

func TestCompareSessions(t *testing.T) {
	baseline := []kernelbench.SessionRecord{
		passRecord("steady", 10*time.Millisecond),
		passRecord("regressed", 10*time.Millisecond),
		passRecord("improved", 10*time.Millisecond),
		passRecord("missing", 10*time.Millisecond),
		passRecord("broken", 10*time.Millisecond),
		{Name: "failed-before", Status: "fail", Error: "boom"},
	}
	current := []kernelbench.SessionRecord{
		passRecord("steady", 10500*time.Microsecond),
		passRecord("regressed", 15*time.Millisecond),
		passRecord("improved", 5*time.Millisecond),
		{Name: "broken", Status: "fail", Error: "device lost"},
	}

	want := map[string]string{
		"steady":    "PASS",
		"regressed": "SLOWER",
		"improved":  "FASTER",
		"missing":   "FAIL",
		"broken":    "FAIL",
	}

	results := compareSessions(baseline, current, 1.1)
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for _, r := range results {
		if r.Status != want[r.Suite] {
			t.Errorf("%s: status %s, want %s (%s)", r.Suite, r.Status, want[r.Suite], r.Message)
		}
	}

	for _, r := range results {
		if r.Suite == "broken" && !strings.Contains(r.Message, "device lost") {
			t.Errorf("failure message %q does not carry the error", r.Message)
		}
		if r.Suite == "improved" && r.Change != 2 {
			t.Errorf("improved change = %v, want 2", r.Change)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	results := []ComparisonResult{
		{Suite: "softmax", Status: "PASS", BaselineMs: 1, CurrentMs: 1, Change: 1},
		{Suite: "winograd", Status: "FAIL", Message: "Suite missing in current session"},
	}
	var out strings.Builder
	printSummary(&out, results)
	text := out.String()
	for _, s := range []string{"Total suites: 2", "FAILURES:", "winograd: Suite missing", "softmax"} {
		if !strings.Contains(text, s) {
			t.Errorf("summary missing %q:\n%s", s, text)
		}
	}
}
