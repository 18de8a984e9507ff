// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package usbhost is the concrete mtp.UsbTransport backed by
// github.com/google/gousb (itself a libusb binding).
package usbhost

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}

// Device wraps an opened, claimed gousb interface as an mtp.UsbTransport.
type Device struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	intf   *gousb.Interface
	inEp   *gousb.InEndpoint
	outEp  *gousb.OutEndpoint
	intrEp *gousb.InEndpoint
}

// Open finds the first device matching (vendorID, productID), claims the
// given configuration/interface/alt setting, and resolves its bulk
// in/out and interrupt-in endpoints by address.
func Open(vendorID, productID gousb.ID, configNum, ifaceNum, altNum int, bulkIn, bulkOut, interruptIn int) (*Device, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(vendorID, productID)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("open usb device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("no device matching %s:%s", vendorID, productID)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("set auto detach: %w", err)
	}

	cfg, err := dev.Config(configNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("claim config %d: %w", configNum, err)
	}

	intf, err := cfg.Interface(ifaceNum, altNum)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("claim interface %d alt %d: %w", ifaceNum, altNum, err)
	}

	in, err := intf.InEndpoint(bulkIn)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("resolve bulk in endpoint %#x: %w", bulkIn, err)
	}
	out, err := intf.OutEndpoint(bulkOut)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("resolve bulk out endpoint %#x: %w", bulkOut, err)
	}
	intr, err := intf.InEndpoint(interruptIn)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("resolve interrupt in endpoint %#x: %w", interruptIn, err)
	}

	return &Device{ctx: ctx, dev: dev, cfg: cfg, intf: intf, inEp: in, outEp: out, intrEp: intr}, nil
}

// BulkOut writes buf (which may be empty, for a zero-length packet) to
// the bulk OUT endpoint.
func (d *Device) BulkOut(buf []byte, timeout time.Duration) (int, error) {
	ctx, cancel := withTimeout(timeout)
	defer cancel()
	return d.outEp.WriteContext(ctx, buf)
}

// BulkIn reads up to len(buf) bytes from the bulk IN endpoint.
func (d *Device) BulkIn(buf []byte, timeout time.Duration) (int, error) {
	ctx, cancel := withTimeout(timeout)
	defer cancel()
	return d.inEp.ReadContext(ctx, buf)
}

// InterruptIn reads up to len(buf) bytes from the interrupt IN endpoint.
func (d *Device) InterruptIn(buf []byte, timeout time.Duration) (int, error) {
	ctx, cancel := withTimeout(timeout)
	defer cancel()
	return d.intrEp.ReadContext(ctx, buf)
}

// Control performs a USB control transfer.
func (d *Device) Control(bmRequestType, bRequest uint8, wValue, wIndex uint16, buf []byte, timeout time.Duration) (int, error) {
	d.dev.ControlTimeout = timeout
	return d.dev.Control(bmRequestType, bRequest, wValue, wIndex, buf)
}

// Reset issues a USB port reset.
func (d *Device) Reset() error { return d.dev.Reset() }

// ClearHalt clears a stall on the given endpoint address.
func (d *Device) ClearHalt(endpointAddr uint8) error {
	return d.dev.ClearHalt(endpointAddr)
}

// Claim is a no-op: Open already claimed the interface.
func (d *Device) Claim() error { return nil }

// Release releases the interface and config and closes the device and
// context.
func (d *Device) Release() error {
	d.intf.Close()
	d.cfg.Close()
	err := d.dev.Close()
	d.ctx.Close()
	return err
}

// InMaxPacketSize returns the bulk IN endpoint's max packet size.
func (d *Device) InMaxPacketSize() int { return d.inEp.Desc.MaxPacketSize }

// OutMaxPacketSize returns the bulk OUT endpoint's max packet size.
func (d *Device) OutMaxPacketSize() int { return d.outEp.Desc.MaxPacketSize }
