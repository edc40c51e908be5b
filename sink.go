// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

// Sink is the one-way hand-off used by producers.
//
// PushMessage returns as soon as the message is queued, it never waits for
// the message to be processed. It is safe to call concurrently, also after
// the consumer side has stopped.
type Sink[T any] interface {
	PushMessage(m T)
}

// The SinkFunc type is an adapter to allow the use of
// ordinary functions as sinks.
type SinkFunc[T any] func(m T)

// PushMessage calls f(m).
func (f SinkFunc[T]) PushMessage(m T) {
	f(m)
}

// Statistics is a snapshot of a listener's counters.
type Statistics struct {
	// PushMessage calls accepted by the queue.
	PushedCount int64
	// PushMessage calls rejected because the queue was closed.
	DroppedCount int64

	// Messages taken from the queue and handed to the consumer.
	ReceivedCount int64

	// event loop only
	ProcessedCount int64
	FailedCount    int64
	SkippedCount   int64
}
