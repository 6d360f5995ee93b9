package workerpool

import (
	"sync"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
)

// compactThreshold is the number of consumed slots at the head of the queue
// after which the backing slice is compacted.
const compactThreshold = 64

// workQueue is an unbounded FIFO of pending tasks shared by all workers.
// The pending sequence and the closed flag are guarded by mu; workers block
// on notEmpty while the queue is empty and open.
type workQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []runnable
	head     int
	closed   bool
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// enqueue appends t at the tail and wakes one blocked worker.
func (q *workQueue) enqueue(t runnable) error {
	if t == nil {
		return tperrors.ErrNilTask
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return tperrors.ErrQueueClosed
	}
	q.items = append(q.items, t)
	q.mu.Unlock()

	q.notEmpty.Signal()
	return nil
}

// dequeue removes and returns the head task, blocking while the queue is
// empty and open. It reports false once the queue is closed and drained.
func (q *workQueue) dequeue() (runnable, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.items) && !q.closed {
		q.notEmpty.Wait()
	}
	if q.head == len(q.items) {
		return nil, false
	}

	t := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return t, true
}

// close stops further enqueues and wakes every blocked worker so they can
// drain what is left. It reports whether this call closed the queue.
func (q *workQueue) close() bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.closed = true
	q.mu.Unlock()

	q.notEmpty.Broadcast()
	return true
}

// drain removes every pending task in FIFO order.
func (q *workQueue) drain() []runnable {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]runnable, len(q.items)-q.head)
	copy(pending, q.items[q.head:])
	q.items = nil
	q.head = 0
	return pending
}

func (q *workQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *workQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
