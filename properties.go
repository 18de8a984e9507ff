// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "encoding/binary"

// ObjectPropValue is a typed property value read from GetObjectPropList
// or GetObjectPropValue. Exactly one of the Uint/Str fields is
// meaningful, selected by Kind.
type ObjectPropValue struct {
	Prop ObjectPropCode
	Kind PropValueKind
	Uint uint64
	Str  string
}

// kindFromDatatypeCode maps the wire PTP DataType code carried in a
// GetObjectPropList element to this package's internal PropValueKind.
// Datatypes this package never produces (int*, arrays) decode as
// KindString so the raw bytes are at least preserved as text-unsafe but
// non-fatal.
func kindFromDatatypeCode(dt datatypeCode) PropValueKind {
	switch dt {
	case dtUint8:
		return KindUint8
	case dtUint16:
		return KindUint16
	case dtUint32:
		return KindUint32
	case dtUint64:
		return KindUint64
	default:
		return KindString
	}
}

func propDatatype(prop ObjectPropCode) PropValueKind {
	switch prop {
	case PropObjectFormat, PropProtectionStatus, PropRating:
		return KindUint16
	case PropStorageID, PropObjectSize, PropParentObject, PropDuration,
		PropTrack, PropSampleRate, PropNumberOfChannels, PropAudioBitRate,
		PropUseCount:
		return KindUint32
	case PropPersistentUID:
		return KindUint64
	default:
		return KindString
	}
}

// readObjectPropValue decodes a single property value of prop's known
// datatype from buf.
func readObjectPropValue(prop ObjectPropCode, buf []byte) ObjectPropValue {
	v := ObjectPropValue{Prop: prop, Kind: propDatatype(prop)}
	c := &cursor{buf: buf}
	switch v.Kind {
	case KindUint8:
		v.Uint = uint64(c.u8())
	case KindUint16:
		v.Uint = uint64(c.u16())
	case KindUint32:
		v.Uint = uint64(c.u32())
	case KindUint64:
		v.Uint = c.u64()
	case KindString:
		v.Str = c.ptpString()
	}
	return v
}

// decodeObjectPropList parses the GetObjectPropList response: a uint32
// element count followed, for each element, by handle(4) + prop(2) +
// datatype(2) + value (sized per datatype). Returns the values grouped
// by object handle.
func decodeObjectPropList(buf []byte) map[ObjectHandle][]ObjectPropValue {
	out := make(map[ObjectHandle][]ObjectPropValue)
	c := &cursor{buf: buf}
	n := int(c.u32())
	for i := 0; i < n && c.remaining() >= 8; i++ {
		handle := ObjectHandle(c.u32())
		prop := ObjectPropCode(c.u16())
		datatype := kindFromDatatypeCode(datatypeCode(c.u16()))
		v := ObjectPropValue{Prop: prop, Kind: datatype}
		switch datatype {
		case KindUint8:
			v.Uint = uint64(c.u8())
		case KindUint16:
			v.Uint = uint64(c.u16())
		case KindUint32:
			v.Uint = uint64(c.u32())
		case KindUint64:
			v.Uint = c.u64()
		case KindString:
			v.Str = c.ptpString()
		}
		out[handle] = append(out[handle], v)
	}
	return out
}

// trackMetadataProps is the property set perPropertyMetadata falls back
// to when GetObjectPropsSupported itself fails, in the order a
// tag-reading UI typically presents them.
var trackMetadataProps = []ObjectPropCode{
	PropName, PropArtist, PropAlbumName, PropGenre, PropTrack,
	PropDuration, PropOriginalReleaseDate, PropSampleRate,
	PropNumberOfChannels, PropAudioBitRate,
}

// GetTrackMetadata reads handle's property set. The default, robust
// strategy ("Enhanced") asks the device which properties its object
// format supports and reads each individually; PropertyDiscoveryBulk
// opts into the single, faster GetObjectPropList call instead, except on
// devices whose quirks mark that call broken.
func (s *MtpSession) GetTrackMetadata(handle ObjectHandle) (map[ObjectPropCode]ObjectPropValue, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()

	useBulk := s.opts.PropertyDiscovery == PropertyDiscoveryBulk &&
		!s.quirks.Has(BrokenObjectPropListAll)

	if useBulk {
		vals, err := s.bulkObjectPropList(handle)
		if err == nil {
			return vals, nil
		}
		s.logger.Warnf("bulk object prop list failed, falling back to per-property reads: %v", err)
	}
	return s.perPropertyMetadata(handle)
}

func (s *MtpSession) bulkObjectPropList(handle ObjectHandle) (map[ObjectPropCode]ObjectPropValue, error) {
	// GroupCode 0 with FormatCode 0 requests "all properties supported
	// for this object format" scoped to the single handle given.
	tx, err := s.ptp.RunTransaction(OpGetObjectPropList,
		[]uint32{uint32(handle), 0, 0xFFFFFFFF, 0, 1}, nil, true)
	if err != nil {
		return nil, err
	}
	byHandle := decodeObjectPropList(tx.Data)
	out := make(map[ObjectPropCode]ObjectPropValue)
	for _, v := range byHandle[handle] {
		out[v.Prop] = v
	}
	return out, nil
}

// perPropertyMetadata implements the "Enhanced" discovery strategy:
// GetObjectPropsSupported(format) to discover the device's actual
// property set for handle's object format, then one GetObjectPropValue
// call per supported property. If GetObjectPropsSupported itself fails,
// falls back to the hardcoded trackMetadataProps list.
func (s *MtpSession) perPropertyMetadata(handle ObjectHandle) (map[ObjectPropCode]ObjectPropValue, error) {
	props, err := s.objectPropsSupported(handle)
	if err != nil {
		s.errStack.Push(wrapError(KindUsbIo, "get object props supported", err))
		props = trackMetadataProps
	}

	out := make(map[ObjectPropCode]ObjectPropValue, len(props))
	for _, prop := range props {
		tx, err := s.ptp.RunTransaction(OpGetObjectPropValue,
			[]uint32{uint32(handle), uint32(prop)}, nil, true)
		if err != nil {
			s.errStack.Push(wrapError(KindUsbIo, "get object prop value", err))
			continue
		}
		out[prop] = readObjectPropValue(prop, tx.Data)
	}
	return out, nil
}

// objectPropsSupported calls GetObjectPropsSupported for handle's cached
// object format (FormatUndefinedAudio if the handle isn't cached),
// returning the device-advertised property code list.
func (s *MtpSession) objectPropsSupported(handle ObjectHandle) ([]ObjectPropCode, error) {
	format := FormatUndefinedAudio
	if rec, ok := s.cache.Get(handle); ok {
		format = rec.Format
	}
	tx, err := s.ptp.RunTransaction(OpGetObjectPropsSupported, []uint32{uint32(format)}, nil, true)
	if err != nil {
		return nil, err
	}
	c := &cursor{buf: tx.Data}
	raw := c.u16Array()
	props := make([]ObjectPropCode, len(raw))
	for i, v := range raw {
		props[i] = ObjectPropCode(v)
	}
	return props, nil
}

// SetObjectPropValue writes a single string or integer property on
// handle.
func (s *MtpSession) SetObjectPropValue(handle ObjectHandle, prop ObjectPropCode, value ObjectPropValue) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()

	buf := encodeObjectPropValue(value)
	_, err := s.ptp.RunTransaction(OpSetObjectPropValue,
		[]uint32{uint32(handle), uint32(prop)}, &sendPayload{bytes: buf}, false)
	return err
}

func encodeObjectPropValue(v ObjectPropValue) []byte {
	switch v.Kind {
	case KindUint8:
		return []byte{uint8(v.Uint)}
	case KindUint16:
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(v.Uint))
		return buf
	case KindUint32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(v.Uint))
		return buf
	case KindUint64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, v.Uint)
		return buf
	default:
		return appendPtpString(nil, v.Str)
	}
}

// GetObjectReferences returns the ordered handle list a playlist/album
// object references.
func (s *MtpSession) GetObjectReferences(handle ObjectHandle) ([]ObjectHandle, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()

	tx, err := s.ptp.RunTransaction(OpGetObjectReferences, []uint32{uint32(handle)}, nil, true)
	if err != nil {
		return nil, err
	}
	raw := decodeUint32Array(tx.Data)
	out := make([]ObjectHandle, len(raw))
	for i, h := range raw {
		out[i] = ObjectHandle(h)
	}
	return out, nil
}

// SetObjectReferences replaces handle's reference list with refs, in
// order.
func (s *MtpSession) SetObjectReferences(handle ObjectHandle, refs []ObjectHandle) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()

	buf := make([]byte, 4, 4+4*len(refs))
	binary.LittleEndian.PutUint32(buf, uint32(len(refs)))
	for _, h := range refs {
		buf = appendU32(buf, uint32(h))
	}
	_, err := s.ptp.RunTransaction(OpSetObjectReferences, []uint32{uint32(handle)},
		&sendPayload{bytes: buf}, false)
	return err
}
