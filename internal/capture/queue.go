package capture

import (
	"sync"
	"time"
)

// Queue is an unbounded in-memory FIFO used for the correlation and analysis
// hand-offs. Pop blocks with a timeout; PushFront supports the downloader's
// single-retry re-enqueue.
//
// Each Push counts as one unit of outstanding work that the consumer
// acknowledges with Done once the item has been fully handed off, so Drained
// covers items a worker has popped but is still processing.
type Queue[T any] struct {
	mu          sync.Mutex
	items       []T
	outstanding int
	notify      chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push appends an item at the back of the queue.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.outstanding++
	q.mu.Unlock()
	q.wake()
}

// PushFront inserts an item at the head of the queue, ahead of everything
// pending. Used to retry a failed download before newer captures.
func (q *Queue[T]) PushFront(item T) {
	q.mu.Lock()
	q.items = append([]T{item}, q.items...)
	q.outstanding++
	q.mu.Unlock()
	q.wake()
}

// Done acknowledges one previously pushed item as fully processed.
func (q *Queue[T]) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.outstanding > 0 {
		q.outstanding--
	}
}

// Drained reports whether every pushed item has been acknowledged with Done.
// Unlike Empty it stays false while a consumer holds a popped item.
func (q *Queue[T]) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding == 0
}

// Pop removes and returns the oldest item. It blocks up to timeout when the
// queue is empty and reports false on expiry.
func (q *Queue[T]) Pop(timeout time.Duration) (T, bool) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, true
		}
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			var zero T
			return zero, false
		}
		timer := time.NewTimer(remaining)
		select {
		case <-q.notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// TryPop removes and returns the oldest item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Empty reports whether the queue has no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *Queue[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
