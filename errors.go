// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is matched (with errors.Is) by every error returned
	// because a cancellation signal fired. Those errors also unwrap to the
	// underlying context error.
	ErrCancelled = errors.New("msglisten: cancelled")

	// ErrQueueClosed is returned by queue operations after Close.
	ErrQueueClosed = errors.New("msglisten: queue closed")
)

type cancelError struct {
	cause error
}

func newCancelError(cause error) error {
	return cancelError{cause: cause}
}

func (e cancelError) Error() string {
	if e.cause == nil {
		return ErrCancelled.Error()
	}
	return ErrCancelled.Error() + ": " + e.cause.Error()
}

func (e cancelError) Is(target error) bool {
	return target == ErrCancelled
}

func (e cancelError) Unwrap() error {
	return e.cause
}

// FailureKind distinguishes a single failed message from a broken
// dispatch loop.
type FailureKind int

const (
	// ProcessingFailure means the processing routine failed (or panicked)
	// for one message. The loop keeps running.
	ProcessingFailure FailureKind = iota + 1
	// QueueFault means taking from the queue failed for a reason other
	// than cancellation. The worker stops.
	QueueFault
)

func (k FailureKind) String() string {
	switch k {
	case ProcessingFailure:
		return "processing"
	case QueueFault:
		return "queue"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is reported to the failure func for every consumer-side error.
type Failure struct {
	Kind FailureKind
	Err  error

	// Message is the message being processed, nil for a QueueFault.
	Message any
}

func (f Failure) Error() string {
	return fmt.Sprintf("msglisten: %v failure: %v", f.Kind, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}
