package watcher

import "sync"

// jobQueue is an unbounded FIFO of job ids. Producers are request handlers,
// the single consumer is the worker loop in Start.
type jobQueue struct {
	mu     sync.Mutex
	ids    []string
	closed bool
	signal chan struct{} // buffered, size 1
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		ids:    make([]string, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends a job id to the tail. Returns false once the queue is closed.
func (q *jobQueue) Enqueue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.ids = append(q.ids, id)

	// a pending signal already covers this id
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the head without blocking
func (q *jobQueue) TryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ids) == 0 {
		return "", false
	}
	id := q.ids[0]
	if len(q.ids) == 1 {
		q.ids = q.ids[:0]
	} else {
		q.ids = q.ids[1:]
	}
	return id, true
}

// Wait returns a channel that fires when ids may be available. It is closed
// by Close.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Close rejects further enqueues and wakes the consumer
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
