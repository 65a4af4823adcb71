package host

import (
	"sync"
	"time"
)

// FrameTimings is a ring buffer of recent frame durations. It may be read
// from any goroutine while the host records into it.
type FrameTimings struct {
	mu       sync.RWMutex
	samples  []time.Duration
	index    int
	capacity int
	count    int
}

// NewFrameTimings returns a buffer holding the last capacity frames.
func NewFrameTimings(capacity int) *FrameTimings {
	if capacity <= 0 {
		capacity = 60
	}
	return &FrameTimings{
		samples:  make([]time.Duration, capacity),
		capacity: capacity,
	}
}

// Add records a frame duration, evicting the oldest when full.
func (b *FrameTimings) Add(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples[b.index] = d
	b.index = (b.index + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
	}
}

// Samples returns the recorded durations, oldest first.
func (b *FrameTimings) Samples() []time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}
	out := make([]time.Duration, b.count)
	if b.count < b.capacity {
		copy(out, b.samples[:b.count])
		return out
	}
	// Full: the oldest sample is at index.
	copy(out, b.samples[b.index:])
	copy(out[b.capacity-b.index:], b.samples[:b.index])
	return out
}

// Average returns the mean of the recorded durations, or zero.
func (b *FrameTimings) Average() time.Duration {
	samples := b.Samples()
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total / time.Duration(len(samples))
}

// Count returns the number of recorded durations.
func (b *FrameTimings) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}
