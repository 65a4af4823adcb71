package patch

// Queue is an unbounded FIFO of patches between one producer and one
// consumer on the same goroutine. Patches are never dropped or reordered.
type Queue struct {
	items    []Patch
	head     int
	coalesce bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithCoalescing makes an update immediately following a still-queued
// update of the same node replace it.
func WithCoalescing() QueueOption {
	return func(q *Queue) {
		q.coalesce = true
	}
}

// NewQueue returns an empty queue.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends p.
func (q *Queue) Push(p Patch) {
	if q.coalesce && p.Op == OpUpdate && q.Len() > 0 {
		last := &q.items[len(q.items)-1]
		if last.Op == OpUpdate && last.ID == p.ID {
			*last = p
			return
		}
	}
	q.items = append(q.items, p)
}

// Pop removes and returns the oldest patch.
func (q *Queue) Pop() (Patch, bool) {
	if q.head == len(q.items) {
		return Patch{}, false
	}
	p := q.items[q.head]
	q.items[q.head] = Patch{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return p, true
}

// Len returns the number of queued patches.
func (q *Queue) Len() int {
	return len(q.items) - q.head
}

// Drain removes and returns every queued patch in order.
func (q *Queue) Drain() []Patch {
	if q.Len() == 0 {
		return nil
	}
	out := make([]Patch, q.Len())
	copy(out, q.items[q.head:])
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
	return out
}
