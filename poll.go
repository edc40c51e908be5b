// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

import (
	"context"

	"go.uber.org/zap"
)

// Poll is a pull-driven listener, the caller takes the pushed messages
// with ReceiveMessage. Poll owns no goroutine.
//
// Poll supports concurrently access, each message is received by exactly
// one ReceiveMessage call. If nobody receives, messages accumulate.
type Poll[T any] struct {
	q *Queue[T]

	logger  *zap.Logger
	metrics *Metrics

	stat counters
}

// NewPoll allocates and returns a new Poll.
func NewPoll[T any](opts ...Option) *Poll[T] {
	o := newOptions(opts)
	return &Poll[T]{
		q:       NewQueue[T](),
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// ReceiveMessage removes and returns the oldest message, waiting for one
// if necessary.
//
// If ctx is done first, no message is removed and the returned error
// matches ErrCancelled. A nil ctx waits forever.
func (p *Poll[T]) ReceiveMessage(ctx context.Context) (T, error) {
	m, err := p.q.Take(ctx)
	if err != nil {
		return m, err
	}
	p.received()
	return m, nil
}

// TryReceiveMessage returns the oldest message if there is one.
func (p *Poll[T]) TryReceiveMessage() (T, bool) {
	m, ok := p.q.TryTake()
	if ok {
		p.received()
	}
	return m, ok
}

func (p *Poll[T]) received() {
	p.stat.received.Inc()
	p.metrics.onReceive()
}

// PushMessage implements the Sink interface.
func (p *Poll[T]) PushMessage(m T) {
	if err := p.q.Push(m); err != nil {
		p.stat.dropped.Inc()
		p.metrics.onDrop()
		p.logger.Debug("message dropped", zap.Error(err))
		return
	}
	p.stat.pushed.Inc()
	p.metrics.onPush()
}

// Len returns the number of messages waiting.
func (p *Poll[T]) Len() int {
	return p.q.Len()
}

// Queue returns the internal queue.
func (p *Poll[T]) Queue() *Queue[T] {
	return p.q
}

func (p *Poll[T]) Statistics() Statistics {
	return p.stat.snapshot()
}
