package kernelbench

import (
	"errors"
	"fmt"
)

// HardwareCounters holds CPU counter readings taken across a timed region.
type HardwareCounters struct {
	Cycles       uint64  `json:"cycles"`
	Instructions uint64  `json:"instructions"`
	IPC          float64 `json:"ipc"` // Instructions per cycle
}

// errCountersUnsupported is returned where hardware counters do not exist.
var errCountersUnsupported = errors.New("hardware counters not supported on this platform")

func (hc *HardwareCounters) derive() {
	if hc.Cycles > 0 {
		hc.IPC = float64(hc.Instructions) / float64(hc.Cycles)
	}
}

// PerOp divides the raw counts by the number of timed invocations.
func (hc *HardwareCounters) PerOp(iterations int) (cycles, instructions float64) {
	if hc == nil || iterations <= 0 {
		return 0, 0
	}
	return float64(hc.Cycles) / float64(iterations), float64(hc.Instructions) / float64(iterations)
}

func (hc *HardwareCounters) String() string {
	if hc == nil {
		return "no counters"
	}
	return fmt.Sprintf("cycles=%d instructions=%d ipc=%.2f", hc.Cycles, hc.Instructions, hc.IPC)
}
