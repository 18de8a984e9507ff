// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"io"
	"time"
)

// fakeTransport is a scripted UsbTransport double: callers queue the
// exact byte slices successive BulkIn/InterruptIn calls should return,
// and every BulkOut call is recorded for later inspection.
type fakeTransport struct {
	inQueue        [][]byte
	interruptQueue [][]byte
	controlQueue   [][]byte

	outWrites [][]byte

	inMax  int
	outMax int

	resetCalled   bool
	clearHaltAddr uint8
	released      bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inMax: 512, outMax: 512}
}

func (f *fakeTransport) queueIn(buf []byte)        { f.inQueue = append(f.inQueue, buf) }
func (f *fakeTransport) queueInterrupt(buf []byte) { f.interruptQueue = append(f.interruptQueue, buf) }
func (f *fakeTransport) queueControl(buf []byte)    { f.controlQueue = append(f.controlQueue, buf) }

func (f *fakeTransport) BulkOut(buf []byte, timeout time.Duration) (int, error) {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.outWrites = append(f.outWrites, cp)
	return len(buf), nil
}

func (f *fakeTransport) BulkIn(buf []byte, timeout time.Duration) (int, error) {
	if len(f.inQueue) == 0 {
		return 0, io.EOF
	}
	next := f.inQueue[0]
	f.inQueue = f.inQueue[1:]
	n := copy(buf, next)
	return n, nil
}

func (f *fakeTransport) InterruptIn(buf []byte, timeout time.Duration) (int, error) {
	if len(f.interruptQueue) == 0 {
		return 0, io.EOF
	}
	next := f.interruptQueue[0]
	f.interruptQueue = f.interruptQueue[1:]
	n := copy(buf, next)
	return n, nil
}

func (f *fakeTransport) Control(bmRequestType, bRequest uint8, wValue, wIndex uint16, buf []byte, timeout time.Duration) (int, error) {
	if len(f.controlQueue) == 0 {
		return 0, nil
	}
	next := f.controlQueue[0]
	f.controlQueue = f.controlQueue[1:]
	n := copy(buf, next)
	return n, nil
}

func (f *fakeTransport) Reset() error { f.resetCalled = true; return nil }

func (f *fakeTransport) ClearHalt(endpointAddr uint8) error {
	f.clearHaltAddr = endpointAddr
	return nil
}

func (f *fakeTransport) Claim() error   { return nil }
func (f *fakeTransport) Release() error { f.released = true; return nil }

func (f *fakeTransport) InMaxPacketSize() int  { return f.inMax }
func (f *fakeTransport) OutMaxPacketSize() int { return f.outMax }

// fakeResponse builds a Response container's bytes for queueIn.
func fakeResponse(code ResponseCode, tid uint32, params ...uint32) []byte {
	c := &Container{Type: ContainerResponse, Code: uint16(code), TransactionID: tid, Params: params}
	return c.encodeHeader()
}

// fakeDataContainer builds a Data container's header+payload bytes for
// queueIn.
func fakeDataContainer(op OperationCode, tid uint32, payload []byte) []byte {
	header := encodeDataHeader(uint16(op), tid, uint32(len(payload)))
	return append(header, payload...)
}
