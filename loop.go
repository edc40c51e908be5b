// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

import (
	"context"
	"errors"
	"reflect"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/someonegg/gox/syncx"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Processor is the message processor of an EventLoop.
//
// Process may block for asynchronous work, the next message is not taken
// before it returns. ctx is done when the event loop is stopping. A
// returned error (or a panic) only fails this message.
type Processor[T any] interface {
	Process(ctx context.Context, m T) error
}

// The ProcessorFunc type is an adapter to allow the use of
// ordinary functions as message processors.  If f is a function
// with the appropriate signature, ProcessorFunc(f) is a
// Processor object that calls f.
type ProcessorFunc[T any] func(ctx context.Context, m T) error

// Process calls f(ctx, m).
func (f ProcessorFunc[T]) Process(ctx context.Context, m T) error {
	return f(ctx, m)
}

type counters struct {
	pushed    atomic.Int64
	dropped   atomic.Int64
	received  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

func (c *counters) snapshot() Statistics {
	return Statistics{
		PushedCount:    c.pushed.Load(),
		DroppedCount:   c.dropped.Load(),
		ReceivedCount:  c.received.Load(),
		ProcessedCount: c.processed.Load(),
		FailedCount:    c.failed.Load(),
		SkippedCount:   c.skipped.Load(),
	}
}

// EventLoop is a push-driven listener, it owns a worker goroutine which
// takes the pushed messages one by one and processes them in order.
//
// EventLoop supports concurrently access.
type EventLoop[T any] struct {
	err   error
	ctx   context.Context
	quitF context.CancelFunc
	stopD syncx.DoneChan

	q *Queue[T]
	p Processor[T]

	logger   *zap.Logger
	failureF func(Failure)
	metrics  *Metrics

	stat counters
}

// NewEventLoop allocates a new EventLoop and starts its worker.
func NewEventLoop[T any](p Processor[T], opts ...Option) *EventLoop[T] {
	o := newOptions(opts)

	l := &EventLoop[T]{
		stopD: syncx.NewDoneChan(),

		q: NewQueue[T](),
		p: p,

		logger:   o.logger,
		failureF: o.failureF,
		metrics:  o.metrics,
	}
	l.ctx, l.quitF = context.WithCancel(o.ctx)

	go l.working()
	return l
}

func (l *EventLoop[T]) working() {
	defer l.ending()

	for {
		m, err := l.q.Take(l.ctx)
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				l.logger.Debug("event loop cancelled")
				return
			}
			l.err = err
			l.report(Failure{Kind: QueueFault, Err: err})
			return
		}
		l.stat.received.Inc()
		l.metrics.onReceive()

		// cancelled while the message was delivered, abandon it.
		if l.ctx.Err() != nil {
			return
		}

		if isNil(m) {
			l.stat.skipped.Inc()
			continue
		}

		l.process(m)
	}
}

func (l *EventLoop[T]) ending() {
	if e := recover(); e != nil {
		l.err = recoveredError(e)
		l.report(Failure{Kind: QueueFault, Err: l.err})
	}

	l.quitF()
	l.q.Close()
	l.stopD.SetDone()
}

func (l *EventLoop[T]) process(m T) {
	start := time.Now()
	err := l.safeProcess(m)
	l.metrics.onProcess(time.Since(start), err)

	if err == nil {
		l.stat.processed.Inc()
		return
	}

	if l.ctx.Err() != nil && errors.Is(err, l.ctx.Err()) {
		l.logger.Debug("message processing interrupted", zap.Error(err))
		return
	}

	l.stat.failed.Inc()
	l.report(Failure{Kind: ProcessingFailure, Err: err, Message: m})
}

func (l *EventLoop[T]) safeProcess(m T) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = recoveredError(e)
		}
	}()
	return l.p.Process(l.ctx, m)
}

func (l *EventLoop[T]) report(f Failure) {
	l.metrics.onFailure(f.Kind)

	switch f.Kind {
	case ProcessingFailure:
		l.logger.Error("unexpected error during message loop",
			zap.Error(f.Err), zap.Any("message", f.Message))
	default:
		l.logger.Error("event loop broken",
			zap.Error(f.Err), zap.Stringer("fault", f.Kind))
	}

	if l.failureF != nil {
		defer func() {
			if e := recover(); e != nil {
				l.logger.Error("failure func panic", zap.Error(recoveredError(e)))
			}
		}()
		l.failureF(f)
	}
}

// PushMessage implements the Sink interface.
//
// Messages pushed after the loop stopped are dropped.
func (l *EventLoop[T]) PushMessage(m T) {
	if err := l.q.Push(m); err != nil {
		l.stat.dropped.Inc()
		l.metrics.onDrop()
		l.logger.Debug("message dropped", zap.Error(err))
		return
	}
	l.stat.pushed.Inc()
	l.metrics.onPush()
}

// Stop requests to stop the loop, the worker will stop asynchronously.
// The messages still queued are abandoned.
func (l *EventLoop[T]) Stop() {
	l.quitF()
}

// Dispose stops the loop and waits for the worker to exit.
//
// Dispose is idempotent. It must not be called from the processing
// routine, which runs on the worker itself, use Stop there.
func (l *EventLoop[T]) Dispose() {
	l.quitF()
	<-l.stopD
}

// StopD returns a done channel, it will be signaled when the worker exited.
func (l *EventLoop[T]) StopD() syncx.DoneChanR {
	return l.stopD.R()
}

func (l *EventLoop[T]) Stopped() bool {
	return l.stopD.R().Done()
}

// Err returns the queue fault which broke the loop, nil if the loop was
// stopped normally. Err can only be called after the loop stopped.
func (l *EventLoop[T]) Err() error {
	return l.err
}

// Queue returns the internal queue.
func (l *EventLoop[T]) Queue() *Queue[T] {
	return l.q
}

func (l *EventLoop[T]) Statistics() Statistics {
	return l.stat.snapshot()
}

// isNil reports whether m holds a nil pointer, interface, map, slice,
// func or chan.
func isNil[T any](m T) bool {
	v := reflect.ValueOf(any(m))
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

func recoveredError(v any) error {
	if err, ok := v.(error); ok {
		return pkgerrors.WithStack(err)
	}
	return pkgerrors.Errorf("panic: %v", v)
}
