package kernelbench

import (
	"strings"
	"testing"
	"time"
)

func TestPrintComparisons(t *testing.T) {
	c, _ := Compare("winograd",
		Measurement{Unit: "direct-conv", Iterations: 10, Total: 40 * time.Millisecond},
		Measurement{Unit: "winograd-conv", Iterations: 10, Total: 20 * time.Millisecond})

	var out strings.Builder
	PrintComparisons(&out, []Comparison{c}, 80)
	text := out.String()

	for _, want := range []string{"winograd (2.00x speedup)", "direct-conv", "4.0000 ms", "2.0000 ms"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
	lines := strings.Split(text, "\n")
	full := strings.Count(lines[1], "█")
	half := strings.Count(lines[2], "█")
	if full != 2*half {
		t.Errorf("bars not proportional: %d vs %d", full, half)
	}
}
