// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

import (
	"context"
)

// MessageReader is the producer side transport, ReadMessage blocks until
// the next message arrives.
type MessageReader[T any] interface {
	ReadMessage() (m T, err error)
}

// The MessageReaderFunc type is an adapter to allow the use of
// ordinary functions as message readers.
type MessageReaderFunc[T any] func() (T, error)

// ReadMessage calls f().
func (f MessageReaderFunc[T]) ReadMessage() (T, error) {
	return f()
}

// StopNotifier is implemented by readers which can abort a blocked
// ReadMessage, typically by closing the connection.
type StopNotifier interface {
	OnStop()
}

type StopNotifierFunc func()

func (f StopNotifierFunc) OnStop() {
	f()
}

// Feed reads messages from r and pushes them to s, until reading fails or
// ctx is done.
//
// The read error is returned as is. When ctx is done, r.OnStop is called
// if r implements StopNotifier, and an error matching ErrCancelled is
// returned.
func Feed[T any](ctx context.Context, r MessageReader[T], s Sink[T]) error {
	if sn, ok := r.(StopNotifier); ok {
		stop := context.AfterFunc(ctx, sn.OnStop)
		defer stop()
	}

	for {
		if err := ctx.Err(); err != nil {
			return newCancelError(err)
		}

		m, err := r.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return newCancelError(ctx.Err())
			}
			return err
		}

		s.PushMessage(m)
	}
}
