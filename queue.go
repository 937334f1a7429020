package philox

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// defaultQueueDepth bounds how many dispatches may wait on a queue
// before Submit applies backpressure.
const defaultQueueDepth = 64

// Queue executes dispatches one at a time in submission order.
// Dispatches on different queues are not ordered with respect to each other.
// A Queue may be shared by several engines.
type Queue struct {
	jobs   chan *Dispatch
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewQueue starts a queue holding up to depth pending dispatches.
// A depth below one uses the default.
func NewQueue(depth int) *Queue {
	if depth < 1 {
		depth = defaultQueueDepth
	}
	q := &Queue{
		jobs: make(chan *Dispatch, depth),
		done: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for d := range q.jobs {
		d.finish(d.exec())
	}
}

// submit enqueues run. The context only bounds the wait for a free
// queue slot; an accepted dispatch always runs to completion. The
// returned error is non-nil when the queue refused the dispatch; the
// dispatch is then already finished with it.
func (q *Queue) submit(ctx context.Context, run func() error, after func(error)) (*Dispatch, error) {
	d := &Dispatch{
		run:   run,
		after: after,
		done:  make(chan struct{}),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		err := fmt.Errorf("%w: queue closed", ErrDispatch)
		d.finish(err)
		return d, err
	}
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("%w: submit: %v", ErrDispatch, err)
		d.finish(err)
		return d, err
	}

	select {
	case q.jobs <- d:
		return d, nil
	case <-ctx.Done():
		err := fmt.Errorf("%w: submit: %v", ErrDispatch, ctx.Err())
		d.finish(err)
		return d, err
	}
}

// Close stops accepting dispatches, runs the ones already queued and
// waits for them to finish.
func (q *Queue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	<-q.done
	return nil
}

// Dispatch is the completion token of one submitted generate call.
// Its outcome is only known once Done is closed.
type Dispatch struct {
	run   func() error
	after func(error)
	done  chan struct{}
	err   error
}

// failedDispatch returns a token that has already failed with err.
func failedDispatch(err error) *Dispatch {
	d := &Dispatch{done: make(chan struct{})}
	d.finish(err)
	return d
}

func (d *Dispatch) exec() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDispatch, r)
		}
	}()
	return d.run()
}

func (d *Dispatch) finish(err error) {
	d.err = err
	if d.after != nil {
		d.after(err)
	}
	close(d.done)
}

// Done is closed when the dispatch has completed or failed.
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until the dispatch completes and returns its status.
// A nil error means every lane finished and the output buffer is filled.
func (d *Dispatch) Wait() error {
	<-d.done
	return d.err
}

// Err returns the status without blocking. It returns ErrPending while
// the dispatch is still queued or running.
func (d *Dispatch) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return ErrPending
	}
}

// Failed reports whether err is a dispatch failure.
func Failed(err error) bool {
	return errors.Is(err, ErrDispatch)
}
