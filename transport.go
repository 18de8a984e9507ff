// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "time"

// Default timeouts. StartTimeout bounds the control transfers of the
// Microsoft OS descriptor probe, the BlackBerry mode switch and the
// cancellation protocol; transactions,
// OpenSession included, use DefaultTimeout or LongTimeout as
// QuirkFlags.Timeout selects.
const (
	StartTimeout   = 5 * time.Second
	DefaultTimeout = 20 * time.Second
	LongTimeout    = 60 * time.Second

	// cancelDrainTimeout is the shortened timeout used while draining the
	// IN endpoint during cancellation.
	cancelDrainTimeout = 300 * time.Millisecond

	// cancelPollInterval is the sleep between DeviceStatus polls while
	// waiting for a cancelled transaction to settle.
	cancelPollInterval = 200 * time.Millisecond
)

// Endpoint identifies one of a claimed USB interface's three MTP
// endpoints (two bulk, one interrupt).
type Endpoint uint8

// EndpointKind values, used only for documentation/dataPrint-style
// logging; the actual address byte is opaque to this package.
type EndpointKind int

const (
	EndpointBulkOut EndpointKind = iota
	EndpointBulkIn
	EndpointInterrupt
)

// UsbTransport is the abstract capability the transaction driver and
// session layer require of the USB layer. Implementations hide the
// concrete USB library; internal/usbhost ships one backed by
// github.com/google/gousb. Every transfer method takes an explicit timeout since
// the device quirk table and cancellation protocol both vary timeouts
// per call, not per transport instance.
type UsbTransport interface {
	// BulkOut writes buf to the bulk OUT endpoint, returning the number
	// of bytes actually written.
	BulkOut(buf []byte, timeout time.Duration) (int, error)

	// BulkIn reads up to len(buf) bytes from the bulk IN endpoint.
	BulkIn(buf []byte, timeout time.Duration) (int, error)

	// InterruptIn reads up to len(buf) bytes from the interrupt IN
	// endpoint (events).
	InterruptIn(buf []byte, timeout time.Duration) (int, error)

	// Control performs a USB control transfer. bmRequestType follows the
	// standard USB bit layout (direction/type/recipient).
	Control(bmRequestType, bRequest uint8, wValue, wIndex uint16, buf []byte, timeout time.Duration) (int, error)

	// Reset issues a USB device reset.
	Reset() error

	// ClearHalt clears a stall condition on the given endpoint address.
	ClearHalt(endpointAddr uint8) error

	// Claim claims the configured interface.
	Claim() error

	// Release releases the configured interface.
	Release() error

	// InMaxPacketSize returns the bulk IN endpoint's wMaxPacketSize.
	InMaxPacketSize() int

	// OutMaxPacketSize returns the bulk OUT endpoint's wMaxPacketSize.
	OutMaxPacketSize() int
}
