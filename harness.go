package kernelbench

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"
)

// Measurement is the steady-state latency of one unit on one device. Mean
// is Total divided by Iterations and excludes warm-up.
type Measurement struct {
	Unit       string            `json:"unit"`
	Device     string            `json:"device"`
	Iterations int               `json:"iterations"`
	Warmup     int               `json:"warmup"`
	Total      time.Duration     `json:"total"`
	Mean       time.Duration     `json:"mean"`
	Counters   *HardwareCounters `json:"counters,omitempty"`
}

// Milliseconds returns the mean per-call latency in milliseconds, computed
// from Total so that sub-nanosecond precision is not lost.
func (m Measurement) Milliseconds() float64 {
	if m.Iterations <= 0 {
		return 0
	}
	return float64(m.Total) / float64(m.Iterations) / float64(time.Millisecond)
}

// Harness measures computation units on a single device. It holds no
// state between measurements besides its configuration.
type Harness struct {
	device   Device
	counters bool
	logger   *log.Logger
	flusher  *cacheFlusher

	counterWarn sync.Once
}

// NewHarness creates a harness that measures on device. Of cfg it uses
// Counters, ColdCache and Logger; iteration counts are passed per call.
func NewHarness(device Device, cfg Config) (*Harness, error) {
	if device == nil {
		return nil, NewInvalidArgError("NewHarness", "nil device")
	}
	h := &Harness{
		device:   device,
		counters: cfg.Counters,
		logger:   cfg.logger(),
	}
	if cfg.ColdCache {
		h.flusher = newCacheFlusher(cfg.FlushSize)
	}
	return h, nil
}

// Device returns the device the harness measures on.
func (h *Harness) Device() Device {
	return h.device
}

// Measure runs unit on input warmup times untimed, then times iterations
// back-to-back invocations between two device timestamps and returns the
// mean per invocation.
//
// Both the warm-up and the timed loop are followed by a synchronization,
// so the timestamps bracket exactly the timed work. Any failure of the
// unit is returned as is and no measurement is produced; nothing is
// retried.
func (h *Harness) Measure(unit Unit, input *Tensor, iterations, warmup int) (Measurement, error) {
	if iterations <= 0 {
		return Measurement{}, ErrInvalidIterations
	}
	if warmup < 0 {
		return Measurement{}, ErrInvalidWarmup
	}
	if unit == nil {
		return Measurement{}, NewInvalidArgError("Measure", "nil computation unit")
	}
	if input == nil {
		return Measurement{}, NewInvalidArgError("Measure", "nil input tensor")
	}
	if want := unit.InputShape(); !want.Equal(input.Shape()) {
		return Measurement{}, NewInvalidArgError("Measure",
			fmt.Sprintf("unit %s expects input %v, got %v", unit.Name(), want, input.Shape()))
	}

	dev := h.device
	if sd, ok := dev.(streamer); ok {
		st := sd.NewStream()
		defer st.Close()
		dev = st
	}
	task := invocation(unit, input)

	for i := 0; i < warmup; i++ {
		if err := dev.Enqueue(task); err != nil {
			return Measurement{}, abort(dev, err)
		}
	}
	if err := dev.Synchronize(); err != nil {
		return Measurement{}, err
	}

	if h.flusher != nil {
		h.logger.Printf("flushed caches in %v", h.flusher.flush())
	}

	var monitor *perfMonitor
	if h.counters && dev.Info().Kind == DeviceHost {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		monitor = newPerfMonitor()
		if err := monitor.start(); err != nil {
			h.counterWarn.Do(func() {
				h.logger.Printf("hardware counters unavailable: %v", err)
			})
			monitor = nil
		} else {
			defer monitor.close()
		}
	}

	start, err := dev.RecordTimestamp()
	if err != nil {
		return Measurement{}, abort(dev, err)
	}
	for i := 0; i < iterations; i++ {
		if err := dev.Enqueue(task); err != nil {
			return Measurement{}, abort(dev, err)
		}
	}
	end, err := dev.RecordTimestamp()
	if err != nil {
		return Measurement{}, abort(dev, err)
	}
	if err := dev.Synchronize(); err != nil {
		return Measurement{}, err
	}

	var counters *HardwareCounters
	if monitor != nil {
		counters, err = monitor.stop()
		if err != nil {
			h.logger.Printf("reading hardware counters for %s: %v", unit.Name(), err)
			counters = nil
		}
	}

	elapsed, err := dev.ElapsedSince(start, end)
	if err != nil {
		return Measurement{}, err
	}

	m := Measurement{
		Unit:       unit.Name(),
		Device:     dev.Info().Name,
		Iterations: iterations,
		Warmup:     warmup,
		Total:      elapsed,
		Mean:       elapsed / time.Duration(iterations),
		Counters:   counters,
	}
	h.logger.Printf("%s on %s: %.4f ms/call (%d iterations, %d warm-up)",
		m.Unit, m.Device, m.Milliseconds(), iterations, warmup)
	return m, nil
}

// streamer is implemented by devices that can give each measurement its
// own stream, so that concurrent measurements on one device keep their
// failures apart.
type streamer interface {
	NewStream() *Stream
}

// abort drains dev after a failed submission. A unit failure already
// waiting on the device is what the caller needs to see, so it wins over
// err.
func abort(dev Device, err error) error {
	if serr := dev.Synchronize(); serr != nil && IsExecutionError(serr) && !IsExecutionError(err) {
		return serr
	}
	return err
}

// invocation builds the task enqueued for each call. Outputs are dropped,
// or handed back to units that recycle them.
func invocation(unit Unit, input *Tensor) func() error {
	releaser, _ := unit.(OutputReleaser)
	return func() error {
		out, err := unit.Run(input)
		if err != nil {
			return err
		}
		if releaser != nil && out != nil {
			releaser.Release(out)
		}
		return nil
	}
}
