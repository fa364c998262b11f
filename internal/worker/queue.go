// Package worker runs blocking tasks one at a time on a dedicated goroutine.
//
// A Queue has an unbounded FIFO backlog and exactly one worker, so tasks
// never overlap and run in submission order. There is no priority, no
// cancellation and no timeout: a submitted task always runs to completion.
package worker

import (
	"errors"
	"sync"
)

// ErrStopped is returned by Submit after Stop has been called.
var ErrStopped = errors.New("worker: queue stopped")

// Queue is a single-worker task queue.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	stopped bool
	done    chan struct{}
}

// NewQueue starts a queue and its worker goroutine.
func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Submit appends task to the backlog.
func (q *Queue) Submit(task func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrStopped
	}
	q.tasks = append(q.tasks, task)
	q.cond.Signal()
	return nil
}

// Stop refuses further tasks. Tasks already queued still run.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Done is closed once the queue is stopped and its backlog has drained.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Pending returns the number of queued tasks not yet started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task()
	}
}

// Result is the outcome of a task submitted with Go.
type Result[T any] struct {
	Value T
	Err   error
}

// Go submits fn and returns a channel that receives its result exactly once.
func Go[T any](q *Queue, fn func() (T, error)) (<-chan Result[T], error) {
	ch := make(chan Result[T], 1)
	err := q.Submit(func() {
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
		close(ch)
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}
