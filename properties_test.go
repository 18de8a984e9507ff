// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "testing"

func TestGetTrackMetadataDefaultsToEnhanced(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)
	s.cache.Put(ObjectRecord{Handle: 1, ParentHandle: 0, Name: "song.mp3", Format: FormatMP3})

	// GetObjectPropsSupported (tid 1): device supports Name and Track.
	var propsPayload []byte
	propsPayload = appendU32(propsPayload, 2)
	propsPayload = appendU16(propsPayload, uint16(PropName))
	propsPayload = appendU16(propsPayload, uint16(PropTrack))
	usb.queueIn(fakeDataContainer(OpGetObjectPropsSupported, 1, propsPayload))
	usb.queueIn(fakeResponse(RespOK, 1))

	// GetObjectPropValue(Name) (tid 2).
	usb.queueIn(fakeDataContainer(OpGetObjectPropValue, 2, appendPtpString(nil, "Song")))
	usb.queueIn(fakeResponse(RespOK, 2))
	// GetObjectPropValue(Track) (tid 3).
	usb.queueIn(fakeDataContainer(OpGetObjectPropValue, 3, appendU32(nil, 5)))
	usb.queueIn(fakeResponse(RespOK, 3))

	vals, err := s.GetTrackMetadata(1)
	if err != nil {
		t.Fatalf("GetTrackMetadata: %v", err)
	}
	if vals[PropName].Str != "Song" {
		t.Errorf("PropName = %q, want Song", vals[PropName].Str)
	}
	if vals[PropTrack].Uint != 5 {
		t.Errorf("PropTrack = %d, want 5", vals[PropTrack].Uint)
	}
}

func TestGetTrackMetadataBulkOptIn(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)
	s.opts.PropertyDiscovery = PropertyDiscoveryBulk
	s.cache.Put(ObjectRecord{Handle: 1, ParentHandle: 0, Name: "song.mp3", Format: FormatMP3})

	var buf []byte
	buf = appendU32(buf, 1)
	buf = appendU32(buf, 1)
	buf = appendU16(buf, uint16(PropName))
	buf = appendU16(buf, uint16(dtString))
	buf = appendPtpString(buf, "Song")
	usb.queueIn(fakeDataContainer(OpGetObjectPropList, 1, buf))
	usb.queueIn(fakeResponse(RespOK, 1))

	vals, err := s.GetTrackMetadata(1)
	if err != nil {
		t.Fatalf("GetTrackMetadata: %v", err)
	}
	if vals[PropName].Str != "Song" {
		t.Errorf("PropName = %q, want Song", vals[PropName].Str)
	}
}

func TestKindFromDatatypeCode(t *testing.T) {
	cases := []struct {
		dt   datatypeCode
		want PropValueKind
	}{
		{dtUint8, KindUint8},
		{dtUint16, KindUint16},
		{dtUint32, KindUint32},
		{dtUint64, KindUint64},
		{0xFFFF, KindString}, // 0xFFFF is the string datatype code (dtString)
	}
	for _, c := range cases {
		if got := kindFromDatatypeCode(c.dt); got != c.want {
			t.Errorf("kindFromDatatypeCode(%#x) = %v, want %v", c.dt, got, c.want)
		}
	}
}

func TestEncodeDecodeObjectPropValueUint32(t *testing.T) {
	v := ObjectPropValue{Prop: PropTrack, Kind: KindUint32, Uint: 7}
	buf := encodeObjectPropValue(v)
	got := readObjectPropValue(PropTrack, buf)
	if got.Uint != 7 {
		t.Errorf("Uint = %d, want 7", got.Uint)
	}
}

func TestEncodeDecodeObjectPropValueString(t *testing.T) {
	v := ObjectPropValue{Prop: PropArtist, Kind: KindString, Str: "Test Artist"}
	buf := encodeObjectPropValue(v)
	got := readObjectPropValue(PropArtist, buf)
	if got.Str != "Test Artist" {
		t.Errorf("Str = %q, want %q", got.Str, "Test Artist")
	}
}

func TestDecodeObjectPropListGroupsByHandle(t *testing.T) {
	var buf []byte
	buf = appendU32(buf, 2) // element count

	// handle 1, PropName (string)
	buf = appendU32(buf, 1)
	buf = appendU16(buf, uint16(PropName))
	buf = appendU16(buf, uint16(dtString))
	buf = appendPtpString(buf, "Song A")

	// handle 1, PropTrack (uint32)
	buf = appendU32(buf, 1)
	buf = appendU16(buf, uint16(PropTrack))
	buf = appendU16(buf, uint16(dtUint32))
	buf = appendU32(buf, 3)

	byHandle := decodeObjectPropList(buf)
	vals, ok := byHandle[1]
	if !ok || len(vals) != 2 {
		t.Fatalf("byHandle[1] = %v, want 2 values", vals)
	}
	if vals[0].Kind != KindString || vals[0].Str != "Song A" {
		t.Errorf("vals[0] = %+v, want Kind=KindString Str=Song A", vals[0])
	}
	if vals[1].Kind != KindUint32 || vals[1].Uint != 3 {
		t.Errorf("vals[1] = %+v, want Kind=KindUint32 Uint=3", vals[1])
	}
}
