// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "time"

// QuirkFlags is a bitset of per-device behavioral deviations from the
// MTP/PTP standards. It is read-only after device configuration and
// passed by value into the transport and session layers.
type QuirkFlags uint32

// Quirk flags.
const (
	// NoZeroReads suppresses the terminating zero-length IN read that
	// otherwise closes a transfer whose length is an exact multiple of
	// InMaxPacketSize; instead, one extra byte is read and discarded.
	NoZeroReads QuirkFlags = 1 << iota

	// IgnoreHeaderErrors accepts a bogus Data/Response code or
	// transaction id instead of failing.
	IgnoreHeaderErrors

	// BrokenObjectPropListAll disables the GetObjectPropList bulk
	// optimization; callers fall back to per-property GetObjectPropValue.
	BrokenObjectPropListAll

	// UnloadDriver detaches any kernel driver before claiming the
	// interface.
	UnloadDriver

	// NoReleaseInterface skips releasing the interface and clearing
	// stalls on close.
	NoReleaseInterface

	// ForceResetOnClose issues a USB device reset on close.
	ForceResetOnClose

	// AlwaysProbeDescriptor runs the MS OS-descriptor probe even for
	// devices already matched in the static table.
	AlwaysProbeDescriptor

	// SwitchModeBlackberry emits the four vendor control transfers that
	// move certain BlackBerry devices into MTP mode before OpenSession.
	SwitchModeBlackberry

	// FlagLongTimeout uses LongTimeout instead of DefaultTimeout for
	// every transaction (see QuirkFlags.Timeout).
	FlagLongTimeout

	// PlaylistSplV1 stores playlists as v1.00 ".spl" text files.
	PlaylistSplV1

	// PlaylistSplV2 stores playlists as v2.00 ".spl" text files
	// (adds the myDNSe DATA trailer).
	PlaylistSplV2

	// OggIsUnknown sends OGG content under FormatUndefinedAudio because
	// the device does not advertise native OGG support.
	OggIsUnknown

	// FlacIsUnknown sends FLAC content under FormatUndefinedAudio for
	// the same reason.
	FlacIsUnknown

	// Only7BitFilenames strips non-ASCII bytes from filenames before
	// sending.
	Only7BitFilenames

	// BrokenBatteryLevel means GetBatteryLevel is unreliable on this
	// device; skip it during session open.
	BrokenBatteryLevel

	// IriverChunking alternates the receive path's chunk sizes between
	// 0x3C00 and 0x400 instead of the default 0x3E00/0x200; without it,
	// the iRiver H10's bulk-IN framing silently truncates data phases.
	IriverChunking
)

// Has reports whether all bits in want are set in f.
func (f QuirkFlags) Has(want QuirkFlags) bool { return f&want == want }

// Timeout returns the default non-startup transfer timeout for this
// device's quirk set.
func (f QuirkFlags) Timeout() time.Duration {
	if f.Has(FlagLongTimeout) {
		return LongTimeout
	}
	return DefaultTimeout
}

// UsesSplPlaylists reports whether this device stores playlists as
// ".spl" files rather than native MTP playlist objects.
func (f QuirkFlags) UsesSplPlaylists() bool {
	return f.Has(PlaylistSplV1) || f.Has(PlaylistSplV2)
}

// DeviceTableEntry is one row of the static (VID, PID) -> (name, quirks)
// table. The table's contents are data; only a small, representative
// set is carried here (see SPEC_FULL.md).
type DeviceTableEntry struct {
	VendorID  uint16
	ProductID uint16
	Name      string
	Quirks    QuirkFlags
}

// deviceTable is the static table of known MTP devices. Read-only after
// package init.
var deviceTable = []DeviceTableEntry{
	{VendorID: 0x041E, ProductID: 0x4153, Name: "Creative ZEN Vision W"},
	{VendorID: 0x04E8, ProductID: 0x5137, Name: "Samsung YP-T9",
		Quirks: PlaylistSplV2 | Only7BitFilenames},
	{VendorID: 0x04E8, ProductID: 0x5A0F, Name: "Samsung YP-Z5",
		Quirks: PlaylistSplV1},
	{VendorID: 0x4102, ProductID: 0x1006, Name: "iRiver H10 20GB",
		Quirks: NoZeroReads | IgnoreHeaderErrors | IriverChunking},
	{VendorID: 0x0FCA, ProductID: 0x8004, Name: "BlackBerry 8700",
		Quirks: SwitchModeBlackberry | BrokenBatteryLevel},
	{VendorID: 0x054C, ProductID: 0x014A, Name: "Sony NW-A3000",
		Quirks: BrokenObjectPropListAll},
}

// USB device/interface class codes consulted during enumeration.
const (
	UsbClassPerInterface        = 0x00
	UsbClassCommunications      = 0x02
	UsbClassStillImage          = 0x06 // Still Image / PTP
	UsbClassInterfaceAssociation = 0xEF
	UsbClassVendorSpecific      = 0xFF
)

// classIsProbeCandidate reports whether a device whose bDeviceClass is
// not a direct (VID,PID) table hit should still be probed for the
// Microsoft MTP OS descriptor.
func classIsProbeCandidate(class uint8) bool {
	switch class {
	case UsbClassPerInterface, UsbClassCommunications, UsbClassStillImage,
		UsbClassInterfaceAssociation, UsbClassVendorSpecific:
		return true
	default:
		return false
	}
}

// MatchDevice implements the enumeration decision: a known (vendorID,
// productID) is an MTP device with its table quirks; an unknown device
// of a plausible class is a probe candidate; anything else is skipped.
//
// probe is called only when no table entry matches (or when the matched
// entry carries AlwaysProbeDescriptor); it should perform the Microsoft
// OS descriptor dance (ProbeMSOSDescriptor + ConfirmMTPCapability) against
// the already-open device and report whether it identified as MTP.
func MatchDevice(vendorID, productID uint16, deviceClass uint8, probe func() bool) (entry DeviceTableEntry, matched bool) {
	for _, e := range deviceTable {
		if e.VendorID == vendorID && e.ProductID == productID {
			if e.Quirks.Has(AlwaysProbeDescriptor) && probe != nil && !probe() {
				return DeviceTableEntry{}, false
			}
			return e, true
		}
	}

	if !classIsProbeCandidate(deviceClass) {
		return DeviceTableEntry{}, false
	}
	if probe == nil || !probe() {
		return DeviceTableEntry{}, false
	}
	return DeviceTableEntry{VendorID: vendorID, ProductID: productID, Name: "Unknown MTP device"}, true
}

// Microsoft OS descriptor probe constants.
const (
	msOsDescriptorIndex = 0xEE
	msOsDescriptorLen   = 18

	// bmRequestType/bRequest for the standard GET_DESCRIPTOR(STRING)
	// request used to fetch the OS descriptor string.
	reqGetDescriptor = 0x06
	descTypeString   = 0x03

	// Standard USB control-transfer direction/type/recipient bits.
	reqDirDeviceToHost = 0x80
	reqTypeStandard    = 0x00
	reqTypeVendor      = 0x40
	reqRecipDevice     = 0x00
)

// ProbeMSOSDescriptor issues the standard string descriptor request for
// index 0xEE and, if the 18-byte response carries the "MSFT" signature
// at offsets 2,4,6,8, returns the vendor code embedded at offset 16.
func ProbeMSOSDescriptor(t UsbTransport) (vendorCode byte, ok bool) {
	buf := make([]byte, msOsDescriptorLen)
	wValue := uint16(descTypeString)<<8 | uint16(msOsDescriptorIndex)
	n, err := t.Control(reqDirDeviceToHost|reqTypeStandard|reqRecipDevice,
		reqGetDescriptor, wValue, 0, buf, StartTimeout)
	if err != nil || n < msOsDescriptorLen {
		return 0, false
	}
	if buf[2] != 'M' || buf[4] != 'S' || buf[6] != 'F' || buf[8] != 'T' {
		return 0, false
	}
	return buf[16], true
}

// ConfirmMTPCapability issues the two vendor-class control transfers
// (wIndex 4 and 5) that the Microsoft extended-properties protocol
// defines, and reports whether the response's bytes 0x12..0x14 spell
// "MTP".
func ConfirmMTPCapability(t UsbTransport, vendorCode byte) bool {
	buf := make([]byte, 0x28)
	for _, wIndex := range []uint16{4, 5} {
		n, err := t.Control(reqDirDeviceToHost|reqTypeVendor|reqRecipDevice,
			vendorCode, 0, wIndex, buf, StartTimeout)
		if err != nil || n < 0x16 {
			return false
		}
		if buf[0x12] == 'M' && buf[0x13] == 'T' && buf[0x14] == 'P' {
			return true
		}
	}
	return false
}

// BlackBerry mode-switch control requests: four vendor-class IN control
// transfers that move certain BlackBerry devices into MTP mode before
// OpenSession. Payloads are logged but otherwise ignored by the caller.
var blackberrySwitchRequests = []struct {
	bRequest uint8
	wIndex   uint16
	readLen  int
}{
	{bRequest: 0xAA, wIndex: 0, readLen: 8},
	{bRequest: 0xA5, wIndex: 0, readLen: 8},
	{bRequest: 0xA8, wIndex: 0, readLen: 2},
	{bRequest: 0xA8, wIndex: 1, readLen: 2},
}

// SwitchBlackberryMode runs the blackberrySwitchRequests sequence
// against t. Errors are non-fatal; devices not needing the switch simply
// stall these requests, and the subsequent OpenSession attempt is the
// real success signal.
func SwitchBlackberryMode(t UsbTransport) {
	for _, req := range blackberrySwitchRequests {
		buf := make([]byte, req.readLen)
		_, _ = t.Control(reqDirDeviceToHost|reqTypeVendor|reqRecipDevice,
			req.bRequest, 0, req.wIndex, buf, StartTimeout)
	}
}
