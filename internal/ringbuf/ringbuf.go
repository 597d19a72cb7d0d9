// Package ringbuf provides a lock-free, single-producer single-consumer
// ring buffer for model.Quote. The websocket reader pushes, the trading
// loop pops; a full buffer drops the newest quote rather than blocking the
// stream.
package ringbuf

import (
	"sync/atomic"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// cacheLine is the typical x86-64 cache line size used for padding.
const cacheLine = 64

// Ring is a lock-free SPSC ring buffer for Quote values.
// Size is rounded up to a power of two for fast bitwise modulo.
type Ring struct {
	buf  []model.Quote
	mask uint64

	// Separate cache lines to prevent false sharing between producer
	// and consumer.
	_pad0 [cacheLine]byte
	head  atomic.Uint64 // written by producer
	_pad1 [cacheLine]byte
	tail  atomic.Uint64 // written by consumer
	_pad2 [cacheLine]byte

	dropped atomic.Uint64
}

// New creates a ring buffer. capacity is rounded up to the next power of
// two, minimum 2.
func New(capacity int) *Ring {
	n := nextPow2(capacity)
	if n < 2 {
		n = 2
	}
	return &Ring{
		buf:  make([]model.Quote, n),
		mask: uint64(n - 1),
	}
}

// Push appends a quote. Returns false (and counts a drop) when full.
// Non-blocking.
func (r *Ring) Push(q model.Quote) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail >= uint64(len(r.buf)) {
		r.dropped.Add(1)
		return false
	}
	r.buf[head&r.mask] = q
	r.head.Store(head + 1)
	return true
}

// Pop retrieves the next quote. Returns false when empty. Non-blocking.
func (r *Ring) Pop() (model.Quote, bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail >= head {
		return model.Quote{}, false
	}
	q := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return q, true
}

// Len returns the current number of buffered quotes.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Cap returns the buffer capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Dropped returns the total number of quotes rejected by a full buffer.
func (r *Ring) Dropped() uint64 { return r.dropped.Load() }

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
