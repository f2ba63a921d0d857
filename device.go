package kernelbench

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// DeviceKind selects the execution model a Device uses.
type DeviceKind string

const (
	// DeviceStream is a queued device: work is enqueued and executed
	// asynchronously, in order, by a dedicated worker.
	DeviceStream DeviceKind = "stream"
	// DeviceHost executes work inline on the calling goroutine.
	DeviceHost DeviceKind = "host"
	// DeviceAuto prefers the stream device and falls back to the host.
	DeviceAuto DeviceKind = "auto"
)

// Device is an execution target for computation units. It can enqueue
// work, act as a synchronization barrier and record timestamps that are
// ordered with the enqueued work.
//
// RecordTimestamp and ElapsedSince are the clock capability: on a queued
// device the timestamp is itself a queued task, on the host it is a plain
// monotonic clock sample. ElapsedSince refuses to report a duration until
// both events have completed.
type Device interface {
	Info() DeviceInfo
	Enqueue(task func() error) error
	Synchronize() error
	RecordTimestamp() (*Event, error)
	ElapsedSince(start, end *Event) (time.Duration, error)
	Close() error
}

// Event is a point on a device's timeline.
type Event struct {
	done chan struct{}
	at   time.Time
}

func newEvent() *Event {
	return &Event{done: make(chan struct{})}
}

func (e *Event) complete() {
	e.at = time.Now()
	close(e.done)
}

// Completed reports whether the device has reached the event.
func (e *Event) Completed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// elapsedBetween is shared by every device; events only carry host
// monotonic readings so the subtraction is the same everywhere.
func elapsedBetween(start, end *Event) (time.Duration, error) {
	if start == nil || end == nil {
		return 0, NewInvalidArgError("ElapsedSince", "nil event")
	}
	if !start.Completed() || !end.Completed() {
		return 0, ErrEventPending
	}
	d := end.at.Sub(start.at)
	if d < 0 {
		return 0, NewInvalidArgError("ElapsedSince", "end event precedes start event")
	}
	return d, nil
}

// runTask executes a task, turning a panic into an error so that a
// crashing unit is reported like a failing one.
func runTask(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task()
}

// GetDeviceCount returns the number of stream devices that can be opened.
// Streams are backed by the CPU, so there is exactly one.
func GetDeviceCount() int {
	return 1
}

// OpenDevice opens the device described by cfg. DeviceAuto falls back to
// the host device when the stream device is unavailable and logs that it
// did so; an explicit DeviceStream request returns the device error.
func OpenDevice(cfg Config) (Device, error) {
	logger := cfg.logger()
	switch cfg.Device {
	case DeviceHost:
		return NewHostDevice(), nil
	case DeviceStream:
		dev, err := NewStreamDevice(cfg.Ordinal, cfg.QueueDepth)
		if err != nil {
			return nil, err
		}
		return dev, nil
	case DeviceAuto, "":
		dev, err := NewStreamDevice(cfg.Ordinal, cfg.QueueDepth)
		if err != nil {
			if !IsDeviceError(err) {
				return nil, err
			}
			logger.Printf("stream device %d unavailable, falling back to host clock: %v", cfg.Ordinal, err)
			return NewHostDevice(), nil
		}
		return dev, nil
	default:
		return nil, NewInvalidArgError("OpenDevice", fmt.Sprintf("unknown device kind %q", cfg.Device))
	}
}

// StreamDevice executes tasks asynchronously and in order on a single
// worker goroutine. Enqueue returns as soon as the task is queued.
//
// Work is submitted through streams. The device's own Enqueue,
// Synchronize and RecordTimestamp use a default stream; NewStream hands
// out further ones so that several goroutines can share the device. All
// streams feed the same worker, so their tasks interleave in submission
// order, but each stream is synchronized and fails independently.
type StreamDevice struct {
	info   DeviceInfo
	tasks  chan func()
	done   chan struct{}
	stream *Stream

	// closeMu is held for reading while a task is being sent so that
	// Close never closes the channel under a sender.
	closeMu sync.RWMutex
	closed  bool
}

// NewStreamDevice opens stream device ordinal with the given queue depth.
func NewStreamDevice(ordinal, queueDepth int) (*StreamDevice, error) {
	if ordinal < 0 || ordinal >= GetDeviceCount() {
		return nil, NewDeviceError("OpenDevice", fmt.Sprintf("stream device %d not present", ordinal), ErrInvalidDevice)
	}
	if queueDepth < 1 {
		return nil, NewDeviceError("OpenDevice", fmt.Sprintf("queue depth %d cannot hold work", queueDepth), nil)
	}

	s := &StreamDevice{
		info:  newDeviceInfo(DeviceStream, ordinal),
		tasks: make(chan func(), queueDepth),
		done:  make(chan struct{}),
	}
	s.stream = s.NewStream()
	go s.worker()
	return s, nil
}

// Info describes the device.
func (s *StreamDevice) Info() DeviceInfo {
	return s.info
}

// worker processes tasks for every stream
func (s *StreamDevice) worker() {
	for task := range s.tasks {
		task()
	}
	close(s.done)
}

func (s *StreamDevice) submit(task func()) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrDeviceClosed
	}
	s.tasks <- task
	return nil
}

// NewStream creates a stream on the device.
func (s *StreamDevice) NewStream() *Stream {
	st := &Stream{dev: s}
	st.idle = sync.NewCond(&st.mu)
	return st
}

// Enqueue adds a task to the default stream.
func (s *StreamDevice) Enqueue(task func() error) error {
	return s.stream.Enqueue(task)
}

// Synchronize waits for the default stream.
func (s *StreamDevice) Synchronize() error {
	return s.stream.Synchronize()
}

// RecordTimestamp enqueues an event on the default stream.
func (s *StreamDevice) RecordTimestamp() (*Event, error) {
	return s.stream.RecordTimestamp()
}

// ElapsedSince returns the time between two completed events.
func (s *StreamDevice) ElapsedSince(start, end *Event) (time.Duration, error) {
	return elapsedBetween(start, end)
}

// Close drains outstanding work and stops the worker. It is safe to call
// more than once.
func (s *StreamDevice) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.tasks)
	s.closeMu.Unlock()

	<-s.done
	return nil
}

// Stream is an ordered submission queue on a StreamDevice. It implements
// Device, so a harness can measure on it directly.
//
// A failing task makes the stream sticky: its later tasks are skipped
// until the next Synchronize, which reports the failure and clears it.
// Other streams on the same device are not affected.
type Stream struct {
	dev *StreamDevice

	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	err     error
}

// Info describes the device the stream runs on.
func (st *Stream) Info() DeviceInfo {
	return st.dev.info
}

func (st *Stream) submit(task func()) error {
	st.mu.Lock()
	st.pending++
	st.mu.Unlock()

	err := st.dev.submit(func() {
		task()
		st.finish()
	})
	if err != nil {
		st.finish()
	}
	return err
}

func (st *Stream) finish() {
	st.mu.Lock()
	st.pending--
	if st.pending == 0 {
		st.idle.Broadcast()
	}
	st.mu.Unlock()
}

func (st *Stream) failed() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err != nil
}

// Enqueue adds a task to the stream. Task failures are reported by the
// next Synchronize, not here.
func (st *Stream) Enqueue(task func() error) error {
	return st.submit(func() {
		if st.failed() {
			return
		}
		if err := runTask(task); err != nil {
			st.mu.Lock()
			if st.err == nil {
				st.err = err
			}
			st.mu.Unlock()
		}
	})
}

// Synchronize waits for every task queued on the stream and returns the
// first task failure since the previous Synchronize.
func (st *Stream) Synchronize() error {
	st.mu.Lock()
	for st.pending > 0 {
		st.idle.Wait()
	}
	err := st.err
	st.err = nil
	st.mu.Unlock()

	if err != nil {
		return NewExecutionError("Synchronize", "computation unit failed on stream", err)
	}
	return nil
}

// RecordTimestamp enqueues an event. Events are recorded even when the
// stream is in a failed state so that a pending event never blocks.
func (st *Stream) RecordTimestamp() (*Event, error) {
	ev := newEvent()
	if err := st.submit(ev.complete); err != nil {
		return nil, err
	}
	return ev, nil
}

// ElapsedSince returns the time between two completed events.
func (st *Stream) ElapsedSince(start, end *Event) (time.Duration, error) {
	return elapsedBetween(start, end)
}

// Close waits for the stream's outstanding work. The device stays open.
func (st *Stream) Close() error {
	st.mu.Lock()
	for st.pending > 0 {
		st.idle.Wait()
	}
	st.mu.Unlock()
	return nil
}

// HostDevice runs tasks inline on the calling goroutine. There is no
// queue to drain, so Synchronize is a no-op and timestamps are host clock
// samples.
type HostDevice struct {
	info DeviceInfo
}

// NewHostDevice returns a host device.
func NewHostDevice() *HostDevice {
	return &HostDevice{info: newDeviceInfo(DeviceHost, 0)}
}

// Info describes the device.
func (h *HostDevice) Info() DeviceInfo {
	return h.info
}

// Enqueue runs the task immediately and returns its failure, if any.
func (h *HostDevice) Enqueue(task func() error) error {
	if err := runTask(task); err != nil {
		return NewExecutionError("Enqueue", "computation unit failed on host", err)
	}
	return nil
}

// Synchronize is a no-op on the host.
func (h *HostDevice) Synchronize() error {
	return nil
}

// RecordTimestamp samples the monotonic host clock.
func (h *HostDevice) RecordTimestamp() (*Event, error) {
	ev := newEvent()
	ev.complete()
	return ev, nil
}

// ElapsedSince returns the time between two host clock samples.
func (h *HostDevice) ElapsedSince(start, end *Event) (time.Duration, error) {
	return elapsedBetween(start, end)
}

// Close is a no-op on the host.
func (h *HostDevice) Close() error {
	return nil
}

// DeviceInfo describes an opened device.
type DeviceInfo struct {
	Name     string     `json:"name"`
	Kind     DeviceKind `json:"kind"`
	Ordinal  int        `json:"ordinal"`
	NumCores int        `json:"num_cores"`
	Arch     string     `json:"arch"`
	Features []string   `json:"features,omitempty"`
}

func newDeviceInfo(kind DeviceKind, ordinal int) DeviceInfo {
	name := "host"
	if kind == DeviceStream {
		name = fmt.Sprintf("stream:%d", ordinal)
	}
	return DeviceInfo{
		Name:     name,
		Kind:     kind,
		Ordinal:  ordinal,
		NumCores: runtime.NumCPU(),
		Arch:     runtime.GOARCH,
		Features: cpuFeatures(),
	}
}
