// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/saferwall/mtp/log"
)

// streamLengthUnknown is the sentinel container length used for a Data
// container whose true payload size is not known up front (a streamed
// send). Readers must not treat it as a real byte count.
const streamLengthUnknown = 0xFFFFFFFF

// contextBlockSize is the send path's buffering unit: payloads (fixed or
// streamed) are handed to the bulk OUT endpoint in blocks of at most this
// many bytes, matching the Windows Media Player wire pattern most MTP
// devices expect.
const contextBlockSize = 0x10000

// Default and iRiver-quirk receive chunk-size pairs. The receive path
// alternates between the two sizes on successive bulk IN reads while
// filling a Data container's body.
const (
	defaultChunkSize    = 0x3E00
	defaultChunkSizeAlt = 0x200
	iriverChunkSize     = 0x3C00
	iriverChunkSizeAlt  = 0x400
)

// PtpTransport drives PTP/MTP transactions over an UsbTransport: it owns
// transaction id allocation and implements the Command/Data/Response
// container dance, including the device-specific deviations recorded in
// a QuirkFlags value.
type PtpTransport struct {
	usb    UsbTransport
	quirks QuirkFlags
	logger *log.Helper

	nextTransactionID uint32
	sessionID         uint32

	inMax  int
	outMax int

	// pendingResponse buffers surplus bytes a Data-phase read pulled in
	// past the container's declared length, when those bytes look like a
	// Response container the device folded into the same bulk-IN
	// transfer. The next readResponse call consumes it instead of
	// issuing a fresh BulkIn the device isn't expecting.
	pendingResponse []byte
}

// NewPtpTransport wraps usb with the transaction driver for a device
// carrying the given quirks.
func NewPtpTransport(usb UsbTransport, quirks QuirkFlags, logger *log.Helper) *PtpTransport {
	return &PtpTransport{
		usb:    usb,
		quirks: quirks,
		logger: logger,
		inMax:  usb.InMaxPacketSize(),
		outMax: usb.OutMaxPacketSize(),
	}
}

// allocTransactionID returns the next transaction id, starting at 1 and
// wrapping at 0xFFFFFFFF back to 1; id 0 is never issued.
func (t *PtpTransport) allocTransactionID() uint32 {
	id := t.nextTransactionID
	if id == 0 {
		id = 1
	}
	t.nextTransactionID = id + 1
	if t.nextTransactionID == 0 {
		t.nextTransactionID = 1
	}
	return id
}

// Transaction is the outcome of RunTransaction: the response code, its
// parameters, and (for an operation with a device-to-host data phase)
// the payload bytes.
type Transaction struct {
	ResponseCode ResponseCode
	Params       []uint32
	Data         []byte
}

// sendPayload optionally carries outbound data-phase bytes, either as a
// fixed-size in-memory buffer or a streamed io.Reader of unknown length.
type sendPayload struct {
	bytes    []byte
	stream   io.Reader
	streamOK bool
}

func (t *PtpTransport) timeout() time.Duration { return t.quirks.Timeout() }

// RunTransaction drives a full Command [+ Data] + Response exchange for
// op with the given params. send carries an outbound data-phase payload
// (nil for operations with no data-out phase or a device-to-host data
// phase); wantDataIn requests that an inbound data phase be read back.
func (t *PtpTransport) RunTransaction(op OperationCode, params []uint32, send *sendPayload, wantDataIn bool) (*Transaction, error) {
	tid := t.allocTransactionID()
	timeout := t.timeout()

	cmd := &Container{Type: ContainerCommand, Code: uint16(op), TransactionID: tid, Params: params}
	if err := t.writeContainer(cmd, timeout); err != nil {
		return nil, wrapError(KindUsbIo, "write command container", err)
	}

	var dataIn []byte
	switch {
	case send != nil:
		if err := t.writeDataOut(uint16(op), tid, send, timeout); err != nil {
			return nil, err
		}
	case wantDataIn:
		buf, err := t.readDataIn(uint16(op), tid, timeout)
		if err != nil {
			return nil, err
		}
		dataIn = buf
	}

	resp, err := t.readResponse(uint16(op), tid, timeout)
	if err != nil {
		return nil, err
	}
	if resp.ResponseCode != RespOK {
		return resp, newResponseError(resp.ResponseCode)
	}
	resp.Data = dataIn
	return resp, nil
}

// writeContainer writes a Command or Response-shaped container, followed
// by a zero-length packet if the body is an exact multiple of the bulk
// OUT max packet size (standard USB bulk framing requires this so the
// device's read completes on an actual length rather than waiting for
// more).
func (t *PtpTransport) writeContainer(c *Container, timeout time.Duration) error {
	buf := c.encodeHeader()
	if _, err := t.usb.BulkOut(buf, timeout); err != nil {
		return err
	}
	if len(buf)%t.outMax == 0 {
		if _, err := t.usb.BulkOut(nil, timeout); err != nil {
			return err
		}
	}
	return nil
}

// writeDataOut sends the Data container for op/tid. A fixed-size payload
// is framed with its true length; a streamed payload is framed with the
// streamLengthUnknown sentinel and chunked through the reader until EOF.
func (t *PtpTransport) writeDataOut(code uint16, tid uint32, send *sendPayload, timeout time.Duration) error {
	var dataLen uint32
	if send.streamOK {
		// encodeDataHeader adds the header length, so the Length field
		// comes out as exactly streamLengthUnknown.
		dataLen = streamLengthUnknown - containerHeaderLen
	} else {
		dataLen = uint32(len(send.bytes))
	}
	header := encodeDataHeader(code, tid, dataLen)

	if send.streamOK {
		if _, err := t.usb.BulkOut(header, timeout); err != nil {
			return wrapError(KindUsbIo, "write stream data header", err)
		}
		return t.streamOut(send.stream, timeout)
	}

	payload := append(header, send.bytes...)
	if err := t.writeContextBlocks(payload, timeout); err != nil {
		return wrapError(KindUsbIo, "write data container", err)
	}
	if len(payload)%t.outMax == 0 {
		if _, err := t.usb.BulkOut(nil, timeout); err != nil {
			return wrapError(KindUsbIo, "write data zero-length packet", err)
		}
	}
	return nil
}

// writeContextBlocks issues payload to the bulk OUT endpoint in
// contextBlockSize-sized context blocks.
func (t *PtpTransport) writeContextBlocks(payload []byte, timeout time.Duration) error {
	for len(payload) > 0 {
		n := contextBlockSize
		if n > len(payload) {
			n = len(payload)
		}
		if _, err := t.usb.BulkOut(payload[:n], timeout); err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

// streamOut chunks r through the bulk OUT endpoint in context-block-sized
// writes, terminating with a zero-length packet when the final chunk
// exactly fills a packet.
func (t *PtpTransport) streamOut(r io.Reader, timeout time.Duration) error {
	chunk := make([]byte, contextBlockSize)
	lastWasFullPacket := false
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if _, werr := t.usb.BulkOut(chunk[:n], timeout); werr != nil {
				return wrapError(KindUsbIo, "write stream chunk", werr)
			}
			lastWasFullPacket = n%t.outMax == 0
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return wrapError(KindUsbIo, "read stream source", err)
		}
	}
	if lastWasFullPacket {
		if _, err := t.usb.BulkOut(nil, timeout); err != nil {
			return wrapError(KindUsbIo, "write stream zero-length packet", err)
		}
	}
	return nil
}

// readDataIn reads a device-to-host Data container for op/tid, following
// the declared Length field across as many bulk reads as needed. A device
// that sends the 12-byte header on its own (the split-header case) is
// handled by the same loop, which reads the body in later transfers.
// Surplus bytes read past the declared length are buffered for
// readResponse when they are at least a header long.
func (t *PtpTransport) readDataIn(code uint16, tid uint32, timeout time.Duration) ([]byte, error) {
	first := make([]byte, t.inMax)
	n, err := t.usb.BulkIn(first, timeout)
	if err != nil {
		return nil, wrapError(KindUsbIo, "read data header", err)
	}
	if n < containerHeaderLen {
		if t.quirks.Has(IgnoreHeaderErrors) {
			return nil, nil
		}
		return nil, newError(KindProtocolViolation, "data container header split across reads")
	}

	hdr, err := decodeHeader(first[:n])
	if err != nil {
		return nil, err
	}
	if err := t.validateDataHeader(hdr, code, tid); err != nil {
		return nil, err
	}

	want := int(hdr.Length) - containerHeaderLen
	body := make([]byte, 0, want)
	body = append(body, first[containerHeaderLen:n]...)

	primary, alternate := t.chunkSizes()
	useAlternate := false
	for len(body) < want {
		size := primary
		if useAlternate {
			size = alternate
		}
		if remaining := want - len(body); remaining < size {
			size = remaining
		}
		buf := make([]byte, size)
		m, err := t.usb.BulkIn(buf, timeout)
		if err != nil {
			return nil, wrapError(KindUsbIo, "read data body", err)
		}
		if m == 0 {
			break
		}
		body = append(body, buf[:m]...)
		useAlternate = !useAlternate
	}

	if len(body) == want && int(hdr.Length)%t.inMax == 0 {
		if t.quirks.Has(NoZeroReads) {
			// The device sends one extra byte instead of a zero-length
			// packet; read and discard it.
			buf := make([]byte, 1)
			_, _ = t.usb.BulkIn(buf, timeout)
		} else {
			// Drain the terminating zero-length packet the device sends to
			// close a transfer whose length is an exact multiple of the
			// packet size.
			buf := make([]byte, t.inMax)
			_, _ = t.usb.BulkIn(buf, timeout)
		}
	}

	if len(body) > want {
		// The device folded extra bytes into this read. If they look
		// like a full Response container, buffer them for the next
		// readResponse call instead of discarding them; a fresh BulkIn
		// for the response the device already sent would stall.
		surplus := body[want:]
		if len(surplus) >= containerHeaderLen {
			t.pendingResponse = append([]byte(nil), surplus...)
		}
		body = body[:want]
	}
	return body, nil
}

// chunkSizes returns the pair of read sizes readDataIn alternates between
// on successive bulk IN reads while filling a Data container's body.
func (t *PtpTransport) chunkSizes() (primary, alternate int) {
	if t.quirks.Has(IriverChunking) {
		return iriverChunkSize, iriverChunkSizeAlt
	}
	return defaultChunkSize, defaultChunkSizeAlt
}

// validateDataHeader checks that a decoded Data container header
// actually belongs to the transaction in flight. When IgnoreHeaderErrors
// is set, a mismatched Type/Code/TransactionID is accepted as is.
func (t *PtpTransport) validateDataHeader(hdr decodedHeader, wantCode uint16, wantTID uint32) error {
	if hdr.Type == ContainerData && hdr.Code == wantCode && hdr.TransactionID == wantTID {
		return nil
	}
	if t.quirks.Has(IgnoreHeaderErrors) {
		return nil
	}
	return newError(KindProtocolViolation, "data container header does not match the command in flight")
}

// readResponse reads and decodes the Response container that must follow
// a Data phase (or a Command with no data phase) for op/tid.
func (t *PtpTransport) readResponse(code uint16, tid uint32, timeout time.Duration) (*Transaction, error) {
	buf := make([]byte, containerHeaderLen+4*maxParams)
	var n int
	if t.pendingResponse != nil {
		n = copy(buf, t.pendingResponse)
		t.pendingResponse = nil
	} else {
		var err error
		n, err = t.usb.BulkIn(buf, timeout)
		if err != nil {
			return nil, wrapError(KindUsbIo, "read response container", err)
		}
	}
	if n < containerHeaderLen {
		return nil, newError(KindProtocolViolation, "response container shorter than header")
	}
	hdr, err := decodeHeader(buf[:n])
	if err != nil {
		return nil, err
	}
	if hdr.Type != ContainerResponse && !t.quirks.Has(IgnoreHeaderErrors) {
		return nil, newError(KindProtocolViolation, "expected response container")
	}
	if hdr.TransactionID != tid && !t.quirks.Has(IgnoreHeaderErrors) {
		return nil, newError(KindProtocolViolation, "response transaction id does not match command")
	}
	return &Transaction{
		ResponseCode: ResponseCode(hdr.Code),
		Params:       decodeParams(buf[containerHeaderLen:n]),
	}, nil
}

// PollEvent performs a single non-blocking-ish read of the interrupt
// endpoint, decoding an Event container if one is pending.
func (t *PtpTransport) PollEvent(timeout time.Duration) (*Event, error) {
	buf := make([]byte, containerHeaderLen+4*3)
	n, err := t.usb.InterruptIn(buf, timeout)
	if err != nil {
		return nil, wrapError(KindTimeout, "poll event", err)
	}
	if n < containerHeaderLen {
		return nil, newError(KindProtocolViolation, "event container shorter than header")
	}
	hdr, err := decodeHeader(buf[:n])
	if err != nil {
		return nil, err
	}
	return &Event{
		Code:   EventCode(hdr.Code),
		Params: decodeParams(buf[containerHeaderLen:n]),
	}, nil
}

// Event is a decoded asynchronous notification from the interrupt
// endpoint.
type Event struct {
	Code   EventCode
	Params []uint32
}

func (e Event) String() string {
	switch e.Code {
	case EventObjectAdded, EventObjectRemoved, EventObjectInfoChanged:
		if len(e.Params) > 0 {
			return e.Code.String()
		}
	}
	return e.Code.String()
}

func (c EventCode) String() string {
	switch c {
	case EventCancelTransaction:
		return "CancelTransaction"
	case EventObjectAdded:
		return "ObjectAdded"
	case EventObjectRemoved:
		return "ObjectRemoved"
	case EventStoreAdded:
		return "StoreAdded"
	case EventStoreRemoved:
		return "StoreRemoved"
	case EventDevicePropChanged:
		return "DevicePropChanged"
	case EventObjectInfoChanged:
		return "ObjectInfoChanged"
	case EventDeviceInfoChanged:
		return "DeviceInfoChanged"
	case EventRequestObjectTransfer:
		return "RequestObjectTransfer"
	case EventStoreFull:
		return "StoreFull"
	case EventDeviceReset:
		return "DeviceReset"
	case EventStorageInfoChanged:
		return "StorageInfoChanged"
	case EventCapturedComplete:
		return "CapturedComplete"
	case EventUnreportedStatus:
		return "UnreportedStatus"
	case EventCancelledTransaction:
		return "CancelledTransaction"
	default:
		return hexCode(uint16(c))
	}
}

// Cancel implements the cancellation protocol: a control-transfer
// CancelTransaction request, a short poll of DeviceStatus, a bounded
// drain of the bulk IN endpoint, and a final interrupt-endpoint poll for
// the EventCancelledTransaction or EventCancelTransaction confirmation.
func (t *PtpTransport) Cancel(tid uint32) error {
	req := make([]byte, 6)
	binary.LittleEndian.PutUint16(req[0:2], 0x4001) // CancelTransaction code
	binary.LittleEndian.PutUint32(req[2:6], tid)
	if _, err := t.usb.Control(0x21, 0x64, 0, 0, req, StartTimeout); err != nil {
		return wrapError(KindUsbIo, "send cancel control request", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status := make([]byte, 32)
		n, err := t.usb.Control(0xA1, 0x67, 0, 0, status, StartTimeout)
		if err != nil || n < 4 {
			break
		}
		if ResponseCode(binary.LittleEndian.Uint16(status[2:4])) != RespDeviceBusy {
			break
		}
		time.Sleep(cancelPollInterval)
	}

	drainDeadline := time.Now().Add(cancelDrainTimeout)
	for time.Now().Before(drainDeadline) {
		buf := make([]byte, t.inMax)
		n, err := t.usb.BulkIn(buf, cancelDrainTimeout)
		if err != nil || n == 0 {
			break
		}
	}

	ev, err := t.PollEvent(cancelDrainTimeout)
	if err == nil && (ev.Code == EventCancelledTransaction || ev.Code == EventCancelTransaction) {
		return nil
	}
	return newError(KindCancelled, "transaction cancelled")
}
