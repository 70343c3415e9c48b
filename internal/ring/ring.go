// Package ring implements a fixed-capacity, lock-free single-producer /
// single-consumer queue.
package ring

import "sync/atomic"

// cacheLinePad separates head and tail onto distinct cache lines so
// producer and consumer stores don't false-share.
type cacheLinePad [56]byte

// Ring is a fixed-capacity SPSC queue. Capacity must be a power of two;
// one slot is always left unused, so the usable capacity is cap-1.
// Exactly one goroutine may call TryPush, and exactly one (possibly
// different) goroutine may call TryPop; any other usage is undefined.
type Ring[T any] struct {
	head uint64
	_    cacheLinePad
	tail uint64
	_    cacheLinePad

	buf  []T
	mask uint64
}

// New allocates a ring of the given capacity, which must be a power of
// two and greater than zero.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be a power of two")
	}
	return &Ring[T]{
		buf:  make([]T, capacity),
		mask: uint64(capacity - 1),
	}
}

// TryPush publishes item to the ring. It returns false without
// blocking if the ring is full.
func (r *Ring[T]) TryPush(item T) bool {
	tail := atomic.LoadUint64(&r.tail)
	next := (tail + 1) & r.mask
	head := atomic.LoadUint64(&r.head)
	if next == head {
		return false
	}
	r.buf[tail] = item
	atomic.StoreUint64(&r.tail, next)
	return true
}

// TryPop removes the oldest item from the ring into *out. It returns
// false without blocking if the ring is empty.
func (r *Ring[T]) TryPop(out *T) bool {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head == tail {
		return false
	}
	*out = r.buf[head]
	var zero T
	r.buf[head] = zero
	atomic.StoreUint64(&r.head, (head+1)&r.mask)
	return true
}

// Empty reports whether the ring currently holds no items. The result
// is approximate under concurrent access from the other side.
func (r *Ring[T]) Empty() bool {
	return atomic.LoadUint64(&r.head) == atomic.LoadUint64(&r.tail)
}

// Len returns the approximate number of items currently queued.
func (r *Ring[T]) Len() int {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	return int((tail - head) & r.mask)
}

// Cap returns the total slot count, including the one permanently
// unused slot (usable capacity is Cap()-1).
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
