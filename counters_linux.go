//go:build linux

package kernelbench

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type perfEventConfig struct {
	name   string
	config uint64
}

// perfMonitor reads hardware counters of the calling thread through
// perf_event_open. The caller must keep the goroutine locked to its OS
// thread between start and stop.
type perfMonitor struct {
	fds      []int
	counters []perfEventConfig
}

func newPerfMonitor() *perfMonitor {
	return &perfMonitor{
		counters: []perfEventConfig{
			{"cycles", unix.PERF_COUNT_HW_CPU_CYCLES},
			{"instructions", unix.PERF_COUNT_HW_INSTRUCTIONS},
		},
	}
}

// start opens and enables every counter.
func (pm *perfMonitor) start() error {
	pm.close()
	pm.fds = make([]int, 0, len(pm.counters))

	for _, counter := range pm.counters {
		attr := &unix.PerfEventAttr{
			Type:   unix.PERF_TYPE_HARDWARE,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: counter.config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}

		// Current thread on any CPU
		fd, err := unix.PerfEventOpen(attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			pm.close()
			return fmt.Errorf("failed to open perf event %s: %w", counter.name, err)
		}
		pm.fds = append(pm.fds, fd)
	}

	for _, fd := range pm.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
			pm.close()
			return fmt.Errorf("failed to reset perf event: %w", err)
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			pm.close()
			return fmt.Errorf("failed to enable perf event: %w", err)
		}
	}
	return nil
}

// stop disables the counters and returns their values.
func (pm *perfMonitor) stop() (*HardwareCounters, error) {
	defer pm.close()

	counters := &HardwareCounters{}
	var buf [8]byte
	for i, fd := range pm.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0); err != nil {
			return nil, fmt.Errorf("failed to disable perf event: %w", err)
		}
		n, err := unix.Read(fd, buf[:])
		if err != nil || n != len(buf) {
			return nil, fmt.Errorf("failed to read perf event %s: n=%d err=%v", pm.counters[i].name, n, err)
		}
		value := binary.NativeEndian.Uint64(buf[:])
		switch pm.counters[i].name {
		case "cycles":
			counters.Cycles = value
		case "instructions":
			counters.Instructions = value
		}
	}
	counters.derive()
	return counters, nil
}

func (pm *perfMonitor) close() {
	for _, fd := range pm.fds {
		unix.Close(fd)
	}
	pm.fds = nil
}
