// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package msglisten provides message listeners, which decouple the
// producers of a message stream (network I/O callbacks and the like) from
// the routine processing it.
//
// Producers only see the Sink interface and hand messages off with
// PushMessage, which never waits for processing. Two listeners implement it:
//
//	EventLoop  owns a worker goroutine which processes the messages one by
//	           one, in push order. A failing (or panicking) message is
//	           reported and skipped, the loop keeps running.
//	Poll       owns no goroutine, the caller takes messages with the
//	           blocking, cancellable ReceiveMessage.
//
// Both are built on Queue, an unbounded goroutine-safe FIFO.
//
// Here is a quick example.
//
//	type Node struct {
//		listener *msglisten.EventLoop[*Message]
//	}
//
//	func (n *Node) Start(ctx context.Context) {
//		n.listener = msglisten.NewEventLoop[*Message](n,
//			msglisten.WithContext(ctx),
//			msglisten.WithLogger(logger))
//	}
//
//	// OnMessage is called by the connection reader.
//	func (n *Node) OnMessage(m *Message) {
//		n.listener.PushMessage(m)
//	}
//
//	func (n *Node) Process(ctx context.Context, m *Message) error {
//		switch m.Command {
//		case "ping":
//			return n.Pong(ctx, m)
//		default:
//			return fmt.Errorf("unknown command %q", m.Command)
//		}
//	}
//
//	func (n *Node) Close() {
//		n.listener.Dispose()
//	}
package msglisten
