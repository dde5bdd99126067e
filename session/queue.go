package session

import "sync"

// queue is a bounded FIFO with an explicit drop policy. Pushing to a
// full queue never blocks: something is shed instead, preferring items
// the policy marks droppable.
type queue[T any] struct {
	mu     sync.Mutex
	items  []T
	limit  int
	signal chan struct{}
	closed bool
}

func newQueue[T any](limit int) *queue[T] {
	return &queue[T]{
		limit:  limit,
		signal: make(chan struct{}, 1),
	}
}

// push enqueues item, shedding when full. droppable marks items that
// may be sacrificed first (oldest droppable goes); when nothing
// droppable is queued, a droppable incoming item is shed itself, and a
// non-droppable incoming item displaces the oldest entry. Returns the
// number of items dropped (0 or 1).
func (q *queue[T]) push(item T, droppable func(T) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 1
	}

	dropped := 0
	if len(q.items) >= q.limit {
		idx := -1
		for i, it := range q.items {
			if droppable(it) {
				idx = i
				break
			}
		}
		switch {
		case idx >= 0:
			q.items = append(q.items[:idx], q.items[idx+1:]...)
			dropped = 1
		case droppable(item):
			return 1
		default:
			q.items = q.items[1:]
			dropped = 1
		}
	}

	q.items = append(q.items, item)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return dropped
}

// pop dequeues the oldest item, blocking until one is available or done
// closes.
func (q *queue[T]) pop(done <-chan struct{}) (T, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			if len(q.items) > 0 {
				select {
				case q.signal <- struct{}{}:
				default:
				}
			}
			q.mu.Unlock()
			return item, true
		}
		closed := q.closed
		q.mu.Unlock()

		var zero T
		if closed {
			return zero, false
		}
		select {
		case <-q.signal:
		case <-done:
			return zero, false
		}
	}
}

// tryPop dequeues the oldest item without blocking.
func (q *queue[T]) tryPop() (T, bool) {
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

// ready returns a channel that receives when items may be available.
func (q *queue[T]) ready() <-chan struct{} { return q.signal }

// close stops the queue; pending items are discarded.
func (q *queue[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// len reports the queued item count.
func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func dropAny[T any](T) bool  { return true }
func dropNone[T any](T) bool { return false }
