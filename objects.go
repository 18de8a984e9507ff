// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"encoding/binary"
	"io"
	"os"
	"time"

	mmap "github.com/edsrzf/mmap-go"
)

// cursor is a forward-only reader over a decoded Data-phase payload,
// used to pull the fixed/array/string fields of GetDeviceInfo,
// GetStorageInfo and GetObjectInfo off the wire in order.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) u8() uint8 {
	if c.remaining() < 1 {
		return 0
	}
	v := c.buf[c.pos]
	c.pos++
	return v
}

func (c *cursor) u16() uint16 {
	if c.remaining() < 2 {
		return 0
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v
}

func (c *cursor) u32() uint32 {
	if c.remaining() < 4 {
		return 0
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v
}

func (c *cursor) u64() uint64 {
	if c.remaining() < 8 {
		return 0
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v
}

// u16Array reads a PTP array: a uint32 count followed by that many
// little-endian uint16 elements.
func (c *cursor) u16Array() []uint16 {
	n := int(c.u32())
	out := make([]uint16, 0, n)
	for i := 0; i < n && c.remaining() >= 2; i++ {
		out = append(out, c.u16())
	}
	return out
}

// ptpString reads a PTP string: a uint8 character count (including the
// terminating null) followed by that many UTF-16LE code units. An empty
// string is encoded as a single zero length byte.
func (c *cursor) ptpString() string {
	n := int(c.u8())
	if n == 0 {
		return ""
	}
	units := make([]uint16, 0, n)
	for i := 0; i < n && c.remaining() >= 2; i++ {
		units = append(units, c.u16())
	}
	// Drop the trailing NUL code unit before decoding.
	if len(units) > 0 && units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16Decode(units))
}

func utf16Decode(units []uint16) []rune {
	out := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(units) {
			r2 := rune(units[i+1])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				out = append(out, ((r-0xD800)<<10|(r2-0xDC00))+0x10000)
				i++
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func decodeUint32Array(buf []byte) []uint32 {
	c := &cursor{buf: buf}
	n := int(c.u32())
	out := make([]uint32, 0, n)
	for i := 0; i < n && c.remaining() >= 4; i++ {
		out = append(out, c.u32())
	}
	return out
}

func decodeDeviceInfo(buf []byte) (DeviceInfo, error) {
	c := &cursor{buf: buf}
	var info DeviceInfo
	info.StandardVersion = c.u16()
	info.VendorExtensionID = c.u32()
	_ = c.u16() // VendorExtensionVersion, not surfaced
	info.VendorExtensionDesc = c.ptpString()
	info.FunctionalMode = c.u16()

	for _, v := range c.u16Array() {
		info.OperationsSupported = append(info.OperationsSupported, OperationCode(v))
	}
	for _, v := range c.u16Array() {
		info.EventsSupported = append(info.EventsSupported, EventCode(v))
	}
	info.DevicePropsSupported = c.u16Array()
	_ = c.u16Array() // CaptureFormats, not surfaced
	_ = c.u16Array() // ImageFormats, not surfaced

	info.Manufacturer = c.ptpString()
	info.Model = c.ptpString()
	info.DeviceVersion = c.ptpString()
	info.SerialNumber = c.ptpString()
	return info, nil
}

func decodeStorageInfo(storageID uint32, buf []byte) (StorageDescriptor, error) {
	c := &cursor{buf: buf}
	var d StorageDescriptor
	d.StorageID = storageID
	d.StorageType = c.u16()
	d.FilesystemType = c.u16()
	d.AccessCapability = c.u16()
	d.MaxCapacity = c.u64()
	d.FreeSpace = c.u64()
	_ = c.u32() // FreeSpaceInImages, not surfaced
	d.Description = c.ptpString()
	d.VolumeLabel = c.ptpString()
	return d, nil
}

func decodeObjectInfo(handle ObjectHandle, fallbackStorageID uint32, buf []byte) (ObjectRecord, error) {
	c := &cursor{buf: buf}
	var rec ObjectRecord
	rec.Handle = handle
	rec.StorageID = c.u32()
	if rec.StorageID == 0 {
		rec.StorageID = fallbackStorageID
	}
	rec.Format = FormatCode(c.u16())
	_ = c.u16() // ProtectionStatus
	rec.Size = uint64(c.u32())
	_ = c.u16() // ThumbFormat
	_ = c.u32() // ThumbCompressedSize
	_ = c.u32() // ThumbPixWidth
	_ = c.u32() // ThumbPixHeight
	_ = c.u32() // ImagePixWidth
	_ = c.u32() // ImagePixHeight
	_ = c.u32() // ImageBitDepth
	rec.ParentHandle = ObjectHandle(c.u32())
	_ = c.u16() // AssociationType
	_ = c.u32() // AssociationDesc
	_ = c.u32() // SequenceNumber
	rec.Name = c.ptpString()
	return rec, nil
}

// encodeObjectInfo writes the SendObjectInfo dataset for a new object of
// the given parent, format, size and name. Dates and keywords are left
// empty; devices do not require them for a plain file send.
func encodeObjectInfo(storageID uint32, parent ObjectHandle, format FormatCode, size uint32, name string) []byte {
	buf := make([]byte, 0, 64+2*len(name))
	var tmp [4]byte

	binary.LittleEndian.PutUint32(tmp[:], storageID)
	buf = append(buf, tmp[:]...)
	buf = appendU16(buf, uint16(format))
	buf = appendU16(buf, 0) // ProtectionStatus
	binary.LittleEndian.PutUint32(tmp[:], size)
	buf = append(buf, tmp[:]...)
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
	buf = appendPtpString(buf, "") // CaptureDate
	buf = appendPtpString(buf, "") // ModificationDate
	buf = appendPtpString(buf, "") // Keywords
	return buf
}

func appendU16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendPtpString(buf []byte, s string) []byte {
	runes := []rune(s)
	if len(runes) == 0 {
		return append(buf, 0)
	}
	buf = append(buf, uint8(len(runes)+1))
	for _, r := range runes {
		buf = appendU16(buf, uint16(r))
	}
	return appendU16(buf, 0)
}

// ListFolders returns the cached child objects of parent whose format is
// Association, refreshing the cache from the device first.
func (s *MtpSession) ListFolders(storageID uint32, parent ObjectHandle) ([]ObjectRecord, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()

	recs, err := s.listChildren(storageID, parent)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, r := range recs {
		if r.Format.IsFolder() {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListFiles returns the cached child objects of parent that are not
// folders.
func (s *MtpSession) ListFiles(storageID uint32, parent ObjectHandle) ([]ObjectRecord, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()

	recs, err := s.listChildren(storageID, parent)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, r := range recs {
		if !r.Format.IsFolder() {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListTracks returns the child objects of parent whose format is a
// recognized audio format.
func (s *MtpSession) ListTracks(storageID uint32, parent ObjectHandle) ([]ObjectRecord, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()

	recs, err := s.listChildren(storageID, parent)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, r := range recs {
		if IsKnownAudioFormat(r.Format) {
			out = append(out, r)
		}
	}
	return out, nil
}

// listChildren fetches and caches every child object of parent on
// storageID.
func (s *MtpSession) listChildren(storageID uint32, parent ObjectHandle) ([]ObjectRecord, error) {
	tx, err := s.ptp.RunTransaction(OpGetObjectHandles,
		[]uint32{storageID, 0, uint32(parent)}, nil, true)
	if err != nil {
		return nil, err
	}
	handles := decodeUint32Array(tx.Data)

	out := make([]ObjectRecord, 0, len(handles))
	for _, h := range handles {
		infoTx, err := s.ptp.RunTransaction(OpGetObjectInfo, []uint32{h}, nil, true)
		if err != nil {
			s.errStack.Push(wrapError(KindUsbIo, "get object info", err))
			continue
		}
		rec, err := decodeObjectInfo(ObjectHandle(h), storageID, infoTx.Data)
		if err != nil {
			continue
		}
		s.cache.Put(rec)
		out = append(out, rec)
	}
	return out, nil
}

// GetFile downloads object handle into the file at destPath.
func (s *MtpSession) GetFile(handle ObjectHandle, destPath string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()

	rec, ok := s.cache.Get(handle)
	if ok && rec.Format.IsFolder() {
		return ErrIsAssociation
	}

	tx, err := s.ptp.RunTransaction(OpGetObject, []uint32{uint32(handle)}, nil, true)
	if err != nil {
		return err
	}

	f, err := os.Create(destPath)
	if err != nil {
		return wrapError(KindInvalidArgument, "create destination file", err)
	}
	defer f.Close()

	if _, err := f.Write(tx.Data); err != nil {
		return wrapError(KindUsbIo, "write destination file", err)
	}
	return nil
}

// SendFile uploads srcPath into parent on storageID with the given
// object format, using a memory-mapped reader so large files are not
// fully buffered in process memory before streaming.
func (s *MtpSession) SendFile(srcPath string, storageID uint32, parent ObjectHandle, format FormatCode) (ObjectHandle, error) {
	return s.sendFileAs(srcPath, sendFileName(srcPath, s.quirks), storageID, parent, format)
}

// sendFileAs uploads srcPath as if its device-visible name were deviceName
// rather than the name derived from the local path; callers composing a
// specific on-device filename (playlist/album suffixing, ".spl" files) use
// this directly.
func (s *MtpSession) sendFileAs(srcPath, deviceName string, storageID uint32, parent ObjectHandle, format FormatCode) (ObjectHandle, error) {
	if err := s.lock(); err != nil {
		return 0, err
	}
	defer s.unlock()

	f, err := os.Open(srcPath)
	if err != nil {
		return 0, wrapError(KindInvalidArgument, "open source file", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return 0, wrapError(KindInvalidArgument, "stat source file", err)
	}
	size := stat.Size()

	name := deviceName
	info := encodeObjectInfo(storageID, parent, format, uint32(size), name)

	tx, err := s.ptp.RunTransaction(OpSendObjectInfo, []uint32{storageID, uint32(parent)},
		&sendPayload{bytes: info}, false)
	if err != nil {
		return 0, err
	}
	if len(tx.Params) < 3 {
		return 0, newError(KindProtocolViolation, "SendObjectInfo response missing handle parameter")
	}
	newHandle := ObjectHandle(tx.Params[2])

	if err := s.sendObjectData(f, size); err != nil {
		return 0, err
	}

	s.cache.Put(ObjectRecord{
		Handle: newHandle, StorageID: storageID, ParentHandle: parent,
		Format: format, Name: name, Size: uint64(size),
	})
	return newHandle, nil
}

// sendObjectData runs the SendObject data phase for f. A non-empty file
// is sent via a memory-mapped, fixed-length payload, or streamed from f
// when mapping fails; an empty file is sent as a fixed-length payload of
// zero bytes (a header-only Data container).
func (s *MtpSession) sendObjectData(f *os.File, size int64) error {
	if size == 0 {
		_, err := s.ptp.RunTransaction(OpSendObject, nil, &sendPayload{bytes: []byte{}}, false)
		return err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		var reader io.Reader = f
		_, err = s.ptp.RunTransaction(OpSendObject, nil, &sendPayload{stream: reader, streamOK: true}, false)
		return err
	}
	defer data.Unmap()
	_, err = s.ptp.RunTransaction(OpSendObject, nil, &sendPayload{bytes: []byte(data)}, false)
	return err
}

// sendFileName derives the device-side object name from a local path,
// stripping non-ASCII bytes when the device only accepts 7-bit names.
func sendFileName(srcPath string, quirks QuirkFlags) string {
	name := baseName(srcPath)
	if !quirks.Has(Only7BitFilenames) {
		return name
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r <= 0x7F {
			out = append(out, r)
		}
	}
	return string(out)
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// DeleteObject removes handle from the device and flushes it (and any
// cached children) from the object cache.
func (s *MtpSession) DeleteObject(handle ObjectHandle) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()

	_, err := s.ptp.RunTransaction(OpDeleteObject, []uint32{uint32(handle), 0}, nil, false)
	if err != nil {
		return err
	}
	children := s.cache.Children(handle)
	s.cache.FlushHandles(append(children, handle)...)
	return nil
}

// FormatStore issues FormatStore against storageID with the quirk set's
// transfer timeout (LongTimeout only on devices carrying FlagLongTimeout).
func (s *MtpSession) FormatStore(storageID uint32) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()

	_, err := s.ptp.RunTransaction(OpFormatStore, []uint32{storageID, 0}, nil, false)
	return err
}

// pollIntervalForEvents is the timeout of each interrupt-endpoint poll
// made by WaitForEvent's retry loop.
const pollIntervalForEvents = 500 * time.Millisecond

// WaitForEvent blocks, polling the interrupt endpoint, until an event
// arrives or timeout elapses.
func (s *MtpSession) WaitForEvent(timeout time.Duration) (*Event, error) {
	deadline := time.Now().Add(timeout)
	for {
		ev, err := s.ptp.PollEvent(pollIntervalForEvents)
		if err == nil {
			return ev, nil
		}
		if time.Now().After(deadline) {
			return nil, newError(KindTimeout, "no event before deadline")
		}
	}
}
