package kernelbench

import (
	"sync"
)

// BufferPool manages output buffers with reuse. It keeps a free list of
// previously returned buffers so that a unit allocates on its first call
// and reuses memory afterwards.
type BufferPool struct {
	mu         sync.Mutex
	freeList   [][]float32
	totalAlloc int64
	peakAlloc  int64
	misses     int64
}

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// Get returns a buffer of exactly n elements. Its contents are undefined.
func (bp *BufferPool) Get(n int) []float32 {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	// Try to reuse from free list
	for i, buf := range bp.freeList {
		if cap(buf) >= n {
			bp.freeList = append(bp.freeList[:i], bp.freeList[i+1:]...)
			bp.track(int64(cap(buf)))
			return buf[:n]
		}
	}

	bp.misses++
	buf := make([]float32, n)
	bp.track(int64(n))
	return buf
}

// Put returns a buffer obtained from Get.
func (bp *BufferPool) Put(buf []float32) {
	if buf == nil {
		return
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.freeList = append(bp.freeList, buf)
	bp.totalAlloc -= int64(cap(buf))
}

func (bp *BufferPool) track(n int64) {
	bp.totalAlloc += n
	if bp.totalAlloc > bp.peakAlloc {
		bp.peakAlloc = bp.totalAlloc
	}
}

// Stats returns elements currently handed out, the peak, and how many
// Get calls had to allocate.
func (bp *BufferPool) Stats() (inUse, peak, misses int64) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.totalAlloc, bp.peakAlloc, bp.misses
}
