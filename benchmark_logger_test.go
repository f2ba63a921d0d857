package kernelbench

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorderRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	r, err := NewRecorder(dir, "session")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(r.Path()), "session_") {
		t.Errorf("unexpected session file %s", r.Path())
	}

	c, _ := Compare("fused-conv", measurementOf(10*time.Millisecond, 10), measurementOf(5*time.Millisecond, 10))
	if err := r.RecordComparison(c); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordFailure("softmax", errors.New("unit failed")); err != nil {
		t.Fatal(err)
	}

	latest, err := LatestSession(dir)
	if err != nil {
		t.Fatal(err)
	}
	if latest != r.Path() {
		t.Errorf("LatestSession = %s, want %s", latest, r.Path())
	}

	results, err := LoadSession(latest)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("loaded %d records, want 2", len(results))
	}
	if results[0].Status != "pass" || results[0].Comparison == nil || results[0].Comparison.Speedup != 2 {
		t.Errorf("pass record = %+v", results[0])
	}
	if results[0].Comparison.Baseline.Mean != 10*time.Millisecond {
		t.Errorf("baseline mean not preserved: %v", results[0].Comparison.Baseline.Mean)
	}
	if results[1].Status != "fail" || results[1].Error != "unit failed" {
		t.Errorf("fail record = %+v", results[1])
	}
	if len(r.Results()) != 2 {
		t.Errorf("Results() has %d records", len(r.Results()))
	}

	var out bytes.Buffer
	PrintSummary(&out, filepath.Base(latest), results)
	summary := out.String()
	for _, want := range []string{"fused-conv", "2.00x", "softmax", "FAILED: unit failed", "Passed: 1 | Failed: 1"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestLatestSessionEmptyDir(t *testing.T) {
	if _, err := LatestSession(t.TempDir()); err == nil {
		t.Error("LatestSession on an empty dir succeeded")
	}
}

func TestLoadSessionCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	if _, err := LoadSession(path); err == nil {
		t.Error("LoadSession accepted corrupt JSON")
	}
}
