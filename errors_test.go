// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"errors"
	"testing"
)

func TestMtpErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := wrapError(KindUsbIo, "read bulk in", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true")
	}
}

func TestMtpErrorResponseMessage(t *testing.T) {
	err := newResponseError(RespGeneralError)
	if err.Kind != KindPtpResponse {
		t.Fatalf("Kind = %v, want KindPtpResponse", err.Kind)
	}
	if got := err.Error(); got == "" {
		t.Fatalf("Error() is empty")
	}
}

func TestErrorStackDrainClears(t *testing.T) {
	var stack ErrorStack
	stack.Push(newError(KindInvalidArgument, "first"))
	stack.Push(newError(KindTimeout, "second"))

	if got := stack.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	peeked := stack.Peek()
	if len(peeked) != 2 {
		t.Fatalf("Peek() returned %d entries, want 2", len(peeked))
	}
	if stack.Len() != 2 {
		t.Fatalf("Peek() must not drain the stack")
	}

	drained := stack.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain() returned %d entries, want 2", len(drained))
	}
	if stack.Len() != 0 {
		t.Fatalf("Len() after Drain() = %d, want 0", stack.Len())
	}
}
