//go:build !linux

package kernelbench

// perfMonitor is a stub for platforms without perf_event_open.
type perfMonitor struct{}

func newPerfMonitor() *perfMonitor {
	return &perfMonitor{}
}

func (pm *perfMonitor) start() error {
	return errCountersUnsupported
}

func (pm *perfMonitor) stop() (*HardwareCounters, error) {
	return nil, errCountersUnsupported
}

func (pm *perfMonitor) close() {}
