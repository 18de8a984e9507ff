// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "testing"

func buildDeviceInfoPayload(manufacturer, model string) []byte {
	var buf []byte
	buf = appendU16(buf, 100)             // StandardVersion
	buf = appendU32(buf, 6)               // VendorExtensionID
	buf = appendU16(buf, 0)               // VendorExtensionVersion
	buf = appendPtpString(buf, "")        // VendorExtensionDesc
	buf = appendU16(buf, 0)               // FunctionalMode
	buf = appendU32(buf, 0)               // OperationsSupported count
	buf = appendU32(buf, 0)               // EventsSupported count
	buf = appendU32(buf, 0)               // DevicePropsSupported count
	buf = appendU32(buf, 0)               // CaptureFormats count
	buf = appendU32(buf, 0)               // ImageFormats count
	buf = appendPtpString(buf, manufacturer)
	buf = appendPtpString(buf, model)
	buf = appendPtpString(buf, "1.0")
	buf = appendPtpString(buf, "SN123")
	return buf
}

func buildStorageInfoPayload(description string) []byte {
	var buf []byte
	buf = appendU16(buf, 3)   // StorageType
	buf = appendU16(buf, 2)   // FilesystemType
	buf = appendU16(buf, 0)   // AccessCapability
	buf = append(buf, make([]byte, 8)...) // MaxCapacity (u64, zero)
	buf = append(buf, make([]byte, 8)...) // FreeSpace (u64, zero)
	buf = appendU32(buf, 0)   // FreeSpaceInImages
	buf = appendPtpString(buf, description)
	buf = appendPtpString(buf, "")
	return buf
}

func buildObjectInfoPayload(parent ObjectHandle, format FormatCode, size uint32, name string) []byte {
	var buf []byte
	buf = appendU32(buf, 1)               // StorageID (non-zero so fallback isn't used)
	buf = appendU16(buf, uint16(format))
	buf = appendU16(buf, 0) // ProtectionStatus
	buf = appendU32(buf, size)
	buf = appendU16(buf, 0) // ThumbFormat
	buf = appendU32(buf, 0) // ThumbCompressedSize
	buf = appendU32(buf, 0) // ThumbPixWidth
	buf = appendU32(buf, 0) // ThumbPixHeight
	buf = appendU32(buf, 0) // ImagePixWidth
	buf = appendU32(buf, 0) // ImagePixHeight
	buf = appendU32(buf, 0) // ImageBitDepth
	buf = appendU32(buf, uint32(parent))
	buf = appendU16(buf, 0) // AssociationType
	buf = appendU32(buf, 0) // AssociationDesc
	buf = appendU32(buf, 0) // SequenceNumber
	buf = appendPtpString(buf, name)
	return buf
}

func buildUint32ArrayPayload(ids []uint32) []byte {
	buf := appendU32(nil, uint32(len(ids)))
	for _, id := range ids {
		buf = appendU32(buf, id)
	}
	return buf
}

func TestOpenDiscoversStoragesAndDefaultFolders(t *testing.T) {
	usb := newFakeTransport()

	// getDeviceInfo (tid 1)
	usb.queueIn(fakeDataContainer(OpGetDeviceInfo, 1, buildDeviceInfoPayload("Acme", "Zen Vision W")))
	usb.queueIn(fakeResponse(RespOK, 1))

	// openSessionWithRetry (tid 2, no data phase)
	usb.queueIn(fakeResponse(RespOK, 2))

	// fetchStorages: GetStorageIDs (tid 3) + GetStorageInfo (tid 4)
	usb.queueIn(fakeDataContainer(OpGetStorageIDs, 3, buildUint32ArrayPayload([]uint32{0x00010001})))
	usb.queueIn(fakeResponse(RespOK, 3))
	usb.queueIn(fakeDataContainer(OpGetStorageInfo, 4, buildStorageInfoPayload("Internal storage")))
	usb.queueIn(fakeResponse(RespOK, 4))

	// discoverDefaultFolders: GetObjectHandles (tid 5) + GetObjectInfo (tid 6)
	usb.queueIn(fakeDataContainer(OpGetObjectHandles, 5, buildUint32ArrayPayload([]uint32{100})))
	usb.queueIn(fakeResponse(RespOK, 5))
	usb.queueIn(fakeDataContainer(OpGetObjectInfo, 6, buildObjectInfoPayload(0, FormatAssociation, 0, "Music")))
	usb.queueIn(fakeResponse(RespOK, 6))

	session, err := Open(usb, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if got := session.DeviceInfo().Model; got != "Zen Vision W" {
		t.Errorf("Model = %q, want Zen Vision W", got)
	}
	storages := session.Storages()
	if len(storages) != 1 {
		t.Fatalf("Storages() = %v, want one entry", storages)
	}
	if storages[0].Description != "Internal storage" {
		t.Errorf("Description = %q, want Internal storage", storages[0].Description)
	}
	if h, ok := storages[0].RootHandles["Music"]; !ok || h != 100 {
		t.Errorf("RootHandles[Music] = (%d, %v), want (100, true)", h, ok)
	}

	// Close: CloseSession (tid 7, no data phase); quirks == 0 so Release runs.
	usb.queueIn(fakeResponse(RespOK, 7))
	if err := session.Close(usb); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !usb.released {
		t.Error("Close did not release the interface")
	}
}

func TestOpenSessionAlreadyOpenedRetries(t *testing.T) {
	usb := newFakeTransport()

	usb.queueIn(fakeDataContainer(OpGetDeviceInfo, 1, buildDeviceInfoPayload("Acme", "Model")))
	usb.queueIn(fakeResponse(RespOK, 1))

	// First OpenSession attempt (tid 2) reports already-open.
	usb.queueIn(fakeResponse(RespSessionAlreadyOpened, 2))
	// CloseSession (tid 3, response ignored by caller).
	usb.queueIn(fakeResponse(RespOK, 3))
	// Retried OpenSession (tid 4) succeeds.
	usb.queueIn(fakeResponse(RespOK, 4))

	// fetchStorages with no storages.
	usb.queueIn(fakeDataContainer(OpGetStorageIDs, 5, buildUint32ArrayPayload(nil)))
	usb.queueIn(fakeResponse(RespOK, 5))

	session, err := Open(usb, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !session.opened {
		t.Fatal("session should be marked opened after the retry succeeds")
	}
}
