// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/gousb"
	"github.com/saferwall/mtp"
	"github.com/saferwall/mtp/internal/usbhost"
	mtplog "github.com/saferwall/mtp/log"
)

// openSession resolves the device named by the persistent --vid/--pid
// flags, classifies its quirks via the static table (probing the
// Microsoft OS descriptor when the table doesn't already know it), and
// opens an MTP session against it.
func openSession() (*mtp.MtpSession, *usbhost.Device, error) {
	if flagVendorID == 0 || flagProductID == 0 {
		return nil, nil, fmt.Errorf("--vid and --pid are required")
	}

	dev, err := usbhost.Open(
		gousb.ID(flagVendorID), gousb.ID(flagProductID),
		flagConfig, flagInterface, flagAlt,
		flagBulkIn, flagBulkOut, flagInterrupt,
	)
	if err != nil {
		return nil, nil, err
	}

	entry, matched := mtp.MatchDevice(flagVendorID, flagProductID, mtp.UsbClassStillImage, func() bool {
		vendorCode, ok := mtp.ProbeMSOSDescriptor(dev)
		return ok && mtp.ConfirmMTPCapability(dev, vendorCode)
	})
	quirks := mtp.QuirkFlags(0)
	if matched {
		quirks = entry.Quirks
	}

	logger := mtplog.NewFilter(mtplog.NewStdLogger(os.Stderr), mtplog.FilterLevel(logLevel()))

	session, err := mtp.Open(dev, quirks, &mtp.Options{Logger: logger})
	if err != nil {
		dev.Release()
		return nil, nil, err
	}
	return session, dev, nil
}

func logLevel() mtplog.Level {
	if flagVerbose {
		return mtplog.LevelDebug
	}
	return mtplog.LevelError
}

// openDeviceOnly claims the USB interface without opening an MTP
// session, for operations like reset that must work on a device stuck
// mid-transaction.
func openDeviceOnly() (*usbhost.Device, error) {
	if flagVendorID == 0 || flagProductID == 0 {
		return nil, fmt.Errorf("--vid and --pid are required")
	}
	return usbhost.Open(
		gousb.ID(flagVendorID), gousb.ID(flagProductID),
		flagConfig, flagInterface, flagAlt,
		flagBulkIn, flagBulkOut, flagInterrupt,
	)
}

func closeSession(session *mtp.MtpSession, dev *usbhost.Device) {
	if session != nil {
		if err := session.Close(dev); err != nil {
			fmt.Fprintln(os.Stderr, "mtptool: close session:", err)
		}
	}
	if dev != nil {
		dev.Release()
	}
}

func listMtpDevices(pollEvery time.Duration) (<-chan mtpDeviceEvent, func()) {
	ctx := gousb.NewContext()
	events := make(chan mtpDeviceEvent)
	stop := make(chan struct{})

	seen := map[string]bool{}
	go func() {
		defer close(events)
		ticker := time.NewTicker(pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				current := map[string]bool{}
				devs, _ := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
					return desc.Class == gousb.ClassPerInterface || desc.Class == gousb.Class(mtp.UsbClassStillImage)
				})
				for _, d := range devs {
					key := fmt.Sprintf("%s:%s@%s", d.Desc.Vendor, d.Desc.Product, d.Desc.Path)
					current[key] = true
					if !seen[key] {
						events <- mtpDeviceEvent{key: key, attached: true}
					}
					d.Close()
				}
				for key := range seen {
					if !current[key] {
						events <- mtpDeviceEvent{key: key, attached: false}
					}
				}
				seen = current
			}
		}
	}()

	return events, func() {
		close(stop)
		ctx.Close()
	}
}

type mtpDeviceEvent struct {
	key      string
	attached bool
}
