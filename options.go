// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

import (
	"context"

	"go.uber.org/zap"
)

// Option configures a listener.
type Option func(*options)

type options struct {
	ctx      context.Context
	logger   *zap.Logger
	failureF func(Failure)
	metrics  *Metrics
}

func newOptions(opts []Option) options {
	o := options{
		ctx:    context.Background(),
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithContext sets the parent of the event loop's cancellation signal.
// Cancelling parent stops the loop like Stop does.
//
// Poll ignores this option.
func WithContext(parent context.Context) Option {
	return func(o *options) {
		if parent != nil {
			o.ctx = parent
		}
	}
}

// WithLogger sets the logger, the default is zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFailureFunc sets a func which is called (from the worker goroutine)
// for every consumer-side failure, in addition to logging.
func WithFailureFunc(f func(Failure)) Option {
	return func(o *options) {
		o.failureF = f
	}
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
