package kernelbench

import (
	"sync"
	"time"
)

// DefaultFlushSize is twice the last-level cache of most current CPUs.
const DefaultFlushSize = 64 * 1024 * 1024

const cacheLine = 64

// cacheFlusher evicts the CPU caches by writing a buffer larger than them.
// The buffer is allocated on first use and kept, so later flushes do not
// allocate.
type cacheFlusher struct {
	size int
	once sync.Once
	data []byte
}

func newCacheFlusher(size int) *cacheFlusher {
	if size <= 0 {
		size = DefaultFlushSize
	}
	return &cacheFlusher{size: size}
}

// flush touches every cache line of the buffer twice with different
// patterns and reports how long it took.
func (f *cacheFlusher) flush() time.Duration {
	f.once.Do(func() {
		f.data = make([]byte, f.size)
	})

	start := time.Now()
	for i := 0; i < len(f.data); i += cacheLine {
		f.data[i] = byte(i)
	}
	for i := 0; i < len(f.data); i += cacheLine {
		f.data[i] = byte(i * 7)
	}
	return time.Since(start)
}
