package kernelbench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// SessionRecord captures the outcome of one comparison in a session
type SessionRecord struct {
	Name       string      `json:"name"`
	Status     string      `json:"status"` // "pass" or "fail"
	Comparison *Comparison `json:"comparison,omitempty"`
	Error      string      `json:"error,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Recorder writes comparison results of a session to a JSON file. The
// file is rewritten after every record so a crash loses nothing.
type Recorder struct {
	mu          sync.Mutex
	results     []SessionRecord
	sessionFile string
}

// NewRecorder starts a session file named after session and the current
// time inside dir, creating dir if needed.
func NewRecorder(dir, session string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	r := &Recorder{
		sessionFile: filepath.Join(dir, fmt.Sprintf("%s_%s.json", session, timestamp)),
	}
	if err := r.flush(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the session file path.
func (r *Recorder) Path() string {
	return r.sessionFile
}

// RecordComparison logs a successful comparison
func (r *Recorder) RecordComparison(c Comparison) error {
	return r.record(SessionRecord{
		Name:       c.Name,
		Status:     "pass",
		Comparison: &c,
	})
}

// RecordFailure logs a comparison that could not be measured
func (r *Recorder) RecordFailure(name string, err error) error {
	return r.record(SessionRecord{
		Name:   name,
		Status: "fail",
		Error:  err.Error(),
	})
}

// Results returns a copy of what has been recorded so far.
func (r *Recorder) Results() []SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SessionRecord(nil), r.results...)
}

func (r *Recorder) record(rec SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.Timestamp = time.Now()
	r.results = append(r.results, rec)
	return r.flush()
}

// flush writes results to disk
func (r *Recorder) flush() error {
	results := r.results
	if results == nil {
		results = []SessionRecord{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(r.sessionFile, data, 0644)
}

// LatestSession returns the path to the most recently modified session
// file in dir.
func LatestSession(dir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no session files found in %s", dir)
	}

	var latest string
	var latestTime time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest = file
			latestTime = info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no readable session files in %s", dir)
	}
	return latest, nil
}

// LoadSession reads a session file written by a Recorder.
func LoadSession(path string) ([]SessionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var results []SessionRecord
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return results, nil
}

// PrintSummary prints one line per recorded comparison and a tally.
func PrintSummary(w io.Writer, title string, results []SessionRecord) {
	fmt.Fprintf(w, "\nBenchmark Summary from %s:\n", title)
	fmt.Fprintln(w, strings.Repeat("=", 72))

	passed, failed := 0, 0
	for _, r := range results {
		switch r.Status {
		case "pass":
			passed++
			c := r.Comparison
			if c == nil {
				fmt.Fprintf(w, "✓ %-28s (no comparison recorded)\n", r.Name)
				continue
			}
			fmt.Fprintf(w, "✓ %-28s %10.4f ms -> %10.4f ms  %6.2fx\n",
				r.Name, c.Baseline.Milliseconds(), c.Optimized.Milliseconds(), c.Speedup)
		case "fail":
			failed++
			fmt.Fprintf(w, "✗ %-28s FAILED: %s\n", r.Name, r.Error)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
}
