// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

import (
	"context"
	"sync"

	"github.com/someonegg/gox/syncx"
)

// Queue is an unbounded FIFO queue.
//
// Queue supports concurrently access, any number of goroutines may Push
// and Take at the same time. Each pushed item is taken exactly once.
type Queue[T any] struct {
	locker sync.Mutex
	items  []T
	closed bool

	// readyC holds at most one wakeup, a taker that leaves items behind
	// passes the wakeup on.
	readyC chan struct{}
	closeD syncx.DoneChan
}

// NewQueue allocates and returns a new empty Queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		readyC: make(chan struct{}, 1),
		closeD: syncx.NewDoneChan(),
	}
}

func (q *Queue[T]) wakeup() {
	select {
	case q.readyC <- struct{}{}:
	default:
	}
}

// Push appends m to the queue, it never blocks.
//
// Push returns ErrQueueClosed if the queue is closed.
func (q *Queue[T]) Push(m T) error {
	q.locker.Lock()
	if q.closed {
		q.locker.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, m)
	q.locker.Unlock()

	q.wakeup()
	return nil
}

// pop must be called with the locker held.
func (q *Queue[T]) pop() T {
	var zero T
	m := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return m
}

// TryTake removes and returns the head item if there is one.
func (q *Queue[T]) TryTake() (T, bool) {
	q.locker.Lock()
	defer q.locker.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	m := q.pop()
	if len(q.items) > 0 {
		q.wakeup()
	}
	return m, true
}

// Take removes and returns the head item, waiting for one if the queue
// is empty.
//
// If ctx is done before an item is available, no item is removed and the
// returned error matches ErrCancelled. A closed queue is drained first,
// then Take returns ErrQueueClosed. A nil ctx never cancels.
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	var zero T
	var doneC <-chan struct{}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return zero, newCancelError(err)
		}
		doneC = ctx.Done()
	}

	for {
		q.locker.Lock()
		if len(q.items) > 0 {
			m := q.pop()
			if len(q.items) > 0 {
				q.wakeup()
			}
			q.locker.Unlock()
			return m, nil
		}
		closed := q.closed
		q.locker.Unlock()

		if closed {
			return zero, ErrQueueClosed
		}

		select {
		case <-doneC:
			return zero, newCancelError(ctx.Err())
		case <-q.readyC:
		case <-q.closeD:
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.locker.Lock()
	defer q.locker.Unlock()
	return len(q.items)
}

// Close stops accepting new items and wakes up all waiting takers.
// Items already queued can still be taken. Close is idempotent.
func (q *Queue[T]) Close() {
	q.locker.Lock()
	defer q.locker.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.closeD.SetDone()
}

// Closed reports whether Close was called.
func (q *Queue[T]) Closed() bool {
	return q.closeD.R().Done()
}
