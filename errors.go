// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the category of failure an operation encountered.
type ErrorKind int

// Error kinds.
const (
	// KindUsbIo is a transport-layer failure (timeout, stall, endpoint
	// closed). Retriable at most once, and only for OpenSession.
	KindUsbIo ErrorKind = iota

	// KindPtpResponse is a non-OK Response container. Code carries the
	// numeric PTP response code.
	KindPtpResponse

	// KindProtocolViolation is a container shape/type mismatch or
	// uninterpretable surplus. Non-retriable; a subset is silently
	// repaired under the IgnoreHeaderErrors quirk.
	KindProtocolViolation

	// KindCancelled is a caller-initiated cancellation via a progress
	// callback's return value.
	KindCancelled

	// KindTimeout is "no data within the configured timeout". Normal for
	// event polling, fatal mid-transaction.
	KindTimeout

	// KindUnsupported means the device's DeviceInfo.OperationsSupported
	// does not list the requested operation; the layer fails fast
	// without contacting the device.
	KindUnsupported

	// KindInvalidArgument is a caller mistake: empty path, null handle,
	// and the like.
	KindInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case KindUsbIo:
		return "UsbIo"
	case KindPtpResponse:
		return "PtpResponse"
	case KindProtocolViolation:
		return "ProtocolViolation"
	case KindCancelled:
		return "Cancelled"
	case KindTimeout:
		return "Timeout"
	case KindUnsupported:
		return "Unsupported"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// MtpError is the error type surfaced by this package. It carries enough
// structure for callers to errors.Is/errors.As against a kind or a PTP
// response code, and is also the record type pushed onto a session's
// ErrorStack.
type MtpError struct {
	Kind ErrorKind
	Code ResponseCode // meaningful only when Kind == KindPtpResponse
	Text string
	Err  error // wrapped cause, if any
}

func (e *MtpError) Error() string {
	if e.Kind == KindPtpResponse {
		return fmt.Sprintf("mtp: %s: %s (%s)", e.Kind, e.Text, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("mtp: %s: %s: %v", e.Kind, e.Text, e.Err)
	}
	return fmt.Sprintf("mtp: %s: %s", e.Kind, e.Text)
}

func (e *MtpError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, text string) *MtpError {
	return &MtpError{Kind: kind, Text: text}
}

func wrapError(kind ErrorKind, text string, err error) *MtpError {
	return &MtpError{Kind: kind, Text: text, Err: err}
}

func newResponseError(code ResponseCode) *MtpError {
	return &MtpError{Kind: KindPtpResponse, Code: code, Text: "device returned non-OK response"}
}

// Sentinel errors for common invalid-argument conditions, named in the
// teacher's style (one `Err...` var per condition, doc comment stating
// when it's returned).
var (
	// ErrShortContainer is returned when fewer than 12 bytes were
	// available to decode a container header.
	ErrShortContainer = errors.New("mtp: short container, fewer than 12 header bytes")

	// ErrEmptyPath is returned by spl path resolution when given an
	// empty path string.
	ErrEmptyPath = errors.New("mtp: empty path")

	// ErrNoSession signals that no session is open. No operation in this
	// package returns it: methods called after Close still issue their
	// transactions.
	ErrNoSession = errors.New("mtp: no open session")

	// ErrSessionBusy is returned when a second call into a MtpSession is
	// attempted while one is already in flight.
	ErrSessionBusy = errors.New("mtp: session busy with another operation")

	// ErrIsAssociation is returned by GetFile when the object cache
	// records the handle as a folder object.
	ErrIsAssociation = errors.New("mtp: object is a folder (Association), not a file")

	// ErrNotAssociation signals that an object is not a folder. No
	// operation in this package returns it.
	ErrNotAssociation = errors.New("mtp: object is not a folder")
)

// ErrorStack is a per-session FIFO of structured error records that
// surrounding functionality (CLI front-ends, monitoring code) can drain
// to render diagnostics. Mutating operations record failures here and
// return a plain success/failure discriminant to the caller.
type ErrorStack struct {
	entries []*MtpError
}

// Push appends err to the stack. The session layer calls this for every
// operation-level failure it records.
func (s *ErrorStack) Push(err *MtpError) {
	s.entries = append(s.entries, err)
}

// Len returns the number of recorded, undrained errors.
func (s *ErrorStack) Len() int { return len(s.entries) }

// Drain returns all recorded errors in FIFO order and clears the stack.
func (s *ErrorStack) Drain() []*MtpError {
	out := s.entries
	s.entries = nil
	return out
}

// Peek returns the recorded errors without clearing the stack.
func (s *ErrorStack) Peek() []*MtpError {
	out := make([]*MtpError, len(s.entries))
	copy(out, s.entries)
	return out
}
