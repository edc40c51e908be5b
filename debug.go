// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

import (
	"fmt"
	"io"
	"sync"
)

// Dump is a debugging helper, it implements the Sink interface and dumps
// every pushed message before forwarding it.
//
// The dump format is:
//
//	P:Message\n
type Dump[T any] struct {
	Sink Sink[T]
	Dump io.Writer

	// Filter can be nil. If nil, dump all messages.
	Filter func(m T) bool

	locker sync.Mutex
}

func (d *Dump[T]) needDump(m T) bool {
	if d.Filter != nil {
		return d.Filter(m)
	}
	return true
}

func (d *Dump[T]) PushMessage(m T) {
	if d.needDump(m) {
		d.locker.Lock()
		fmt.Fprintf(d.Dump, "P:%v\n", m)
		d.locker.Unlock()
	}

	d.Sink.PushMessage(m)
}
