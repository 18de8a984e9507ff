// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"bytes"
	"testing"

	"github.com/saferwall/mtp/log"
)

func newTestSession(usb *fakeTransport, quirks QuirkFlags) *MtpSession {
	helper := log.NewHelper(log.NewFilter(log.NewStdLogger(discardWriter{}), log.FilterLevel(log.LevelError)))
	return &MtpSession{
		ptp:    NewPtpTransport(usb, quirks, helper),
		quirks: quirks,
		opts:   &Options{},
		logger: helper,
		cache:  NewObjectCache(),
		opened: true,
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestCreateNativePlaylistSequence(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)

	// SendObjectInfo (tid 1): response carries the new handle as param[2].
	usb.queueIn(fakeResponse(RespOK, 1, 0, 0, 55))
	// SendObject (tid 2, the one-byte placeholder).
	usb.queueIn(fakeResponse(RespOK, 2))
	// SetObjectPropValue(Name) (tid 3).
	usb.queueIn(fakeResponse(RespOK, 3))
	// SetObjectReferences (tid 4).
	usb.queueIn(fakeResponse(RespOK, 4))

	pl, err := s.CreatePlaylist(1, 0, "My Mix", []ObjectHandle{10, 11})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if pl.Handle != 55 {
		t.Errorf("Handle = %d, want 55", pl.Handle)
	}
	if _, ok := s.cache.Get(55); !ok {
		t.Error("created playlist was not cached")
	}
}

func TestCreateSplPlaylistResolvesFullPaths(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, PlaylistSplV2)

	s.cache.Put(ObjectRecord{Handle: 1, ParentHandle: 0, Name: "Music", Format: FormatAssociation})
	s.cache.Put(ObjectRecord{Handle: 10, ParentHandle: 1, Name: "a.mp3", Format: FormatMP3})
	s.cache.Put(ObjectRecord{Handle: 11, ParentHandle: 1, Name: "b.mp3", Format: FormatMP3})

	// SendFile's SendObjectInfo (tid 1) + SendObject (tid 2).
	usb.queueIn(fakeResponse(RespOK, 1, 0, 0, 99))
	usb.queueIn(fakeResponse(RespOK, 2))

	pl, err := s.CreatePlaylist(1, 1, "Favorites", []ObjectHandle{10, 11})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if pl.Handle != 99 {
		t.Errorf("Handle = %d, want 99", pl.Handle)
	}
	if len(usb.outWrites) == 0 {
		t.Fatal("expected SendFile to have written data to the transport")
	}
	for _, path := range []string{`\Music\a.mp3`, `\Music\b.mp3`} {
		var utf16le []byte
		for _, r := range path {
			utf16le = append(utf16le, byte(r), 0)
		}
		found := false
		for _, w := range usb.outWrites {
			if bytes.Contains(w, utf16le) {
				found = true
			}
		}
		if !found {
			t.Errorf("sent .spl data does not contain the resolved path %q", path)
		}
	}
}

func TestStripPlaylistSuffix(t *testing.T) {
	cases := map[string]string{
		"Party.zpl":  "Party",
		"Party.ZPL":  "Party",
		"Mix.pla":    "Mix",
		"Jams.alb":   "Jams",
		"Shuffle.spl": "Shuffle",
		"No Suffix":  "No Suffix",
	}
	for in, want := range cases {
		if got := stripPlaylistSuffix(in); got != want {
			t.Errorf("stripPlaylistSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateAlbumUsesAlbumFormatAndStripsSuffix(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)

	usb.queueIn(fakeResponse(RespOK, 1, 0, 0, 77))
	usb.queueIn(fakeResponse(RespOK, 2))
	usb.queueIn(fakeResponse(RespOK, 3))
	usb.queueIn(fakeResponse(RespOK, 4))

	al, err := s.CreateAlbum(1, 0, "Summer.alb", []ObjectHandle{10, 11})
	if err != nil {
		t.Fatalf("CreateAlbum: %v", err)
	}
	if al.Name != "Summer" {
		t.Errorf("Name = %q, want Summer (suffix stripped)", al.Name)
	}
	rec, ok := s.cache.Get(al.Handle)
	if !ok {
		t.Fatal("created album was not cached")
	}
	if rec.Format != FormatAbstractAudioAlbum {
		t.Errorf("cached Format = %v, want FormatAbstractAudioAlbum", rec.Format)
	}
	if rec.Name != "Summer" {
		t.Errorf("cached Name = %q, want Summer", rec.Name)
	}
}

func TestListPlaylistsResolvesReferencesAndStripsSuffix(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)

	usb.queueIn(fakeDataContainer(OpGetObjectHandles, 1, buildUint32ArrayPayload([]uint32{50})))
	usb.queueIn(fakeResponse(RespOK, 1))
	usb.queueIn(fakeDataContainer(OpGetObjectInfo, 2,
		buildObjectInfoPayload(0, FormatAbstractAudioVideoPlaylist, 1, "Party.zpl")))
	usb.queueIn(fakeResponse(RespOK, 2))
	usb.queueIn(fakeDataContainer(OpGetObjectReferences, 3, buildUint32ArrayPayload([]uint32{10, 11})))
	usb.queueIn(fakeResponse(RespOK, 3))

	pls, err := s.ListPlaylists(1, 0)
	if err != nil {
		t.Fatalf("ListPlaylists: %v", err)
	}
	if len(pls) != 1 {
		t.Fatalf("len(pls) = %d, want 1", len(pls))
	}
	if pls[0].Name != "Party" {
		t.Errorf("Name = %q, want Party", pls[0].Name)
	}
	if len(pls[0].Tracks) != 2 || pls[0].Tracks[0] != 10 || pls[0].Tracks[1] != 11 {
		t.Errorf("Tracks = %v, want [10 11]", pls[0].Tracks)
	}
}

func TestGetPlaylistNative(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)
	s.cache.Put(ObjectRecord{Handle: 20, ParentHandle: 0, Name: "Jams", Format: FormatAbstractAudioVideoPlaylist})

	usb.queueIn(fakeDataContainer(OpGetObjectReferences, 1, buildUint32ArrayPayload([]uint32{1, 2})))
	usb.queueIn(fakeResponse(RespOK, 1))

	pl, err := s.GetPlaylist(20)
	if err != nil {
		t.Fatalf("GetPlaylist: %v", err)
	}
	if pl.Name != "Jams" {
		t.Errorf("Name = %q, want Jams", pl.Name)
	}
	if len(pl.Tracks) != 2 || pl.Tracks[0] != 1 || pl.Tracks[1] != 2 {
		t.Errorf("Tracks = %v, want [1 2]", pl.Tracks)
	}
}

func TestUpdatePlaylistNoOpWhenTracksUnchanged(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)
	s.cache.Put(ObjectRecord{Handle: 7, ParentHandle: 0, Name: "Mix", Format: FormatAbstractAudioVideoPlaylist})

	usb.queueIn(fakeDataContainer(OpGetObjectReferences, 1, buildUint32ArrayPayload([]uint32{10, 11})))
	usb.queueIn(fakeResponse(RespOK, 1))

	pl, err := s.UpdatePlaylist(7, "", []ObjectHandle{10, 11})
	if err != nil {
		t.Fatalf("UpdatePlaylist: %v", err)
	}
	if pl.Handle != 7 {
		t.Errorf("Handle = %d, want 7 (no recreate)", pl.Handle)
	}
	if len(usb.outWrites) != 1 {
		t.Errorf("outWrites = %d, want 1 (only the GetObjectReferences command, no SendObjectInfo/SetObjectReferences)", len(usb.outWrites))
	}
}

func TestUpdatePlaylistRecreatesWhenTracksChanged(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)
	s.cache.Put(ObjectRecord{Handle: 8, StorageID: 1, ParentHandle: 0, Name: "Old", Format: FormatAbstractAudioVideoPlaylist})

	// GetObjectReferences (tid 1): current tracks differ from the new set.
	usb.queueIn(fakeDataContainer(OpGetObjectReferences, 1, buildUint32ArrayPayload([]uint32{10})))
	usb.queueIn(fakeResponse(RespOK, 1))
	// DeleteObject (tid 2).
	usb.queueIn(fakeResponse(RespOK, 2))
	// CreatePlaylist's SendObjectInfo (tid 3) + SendObject (tid 4) +
	// SetObjectPropValue(Name) (tid 5) + SetObjectReferences (tid 6).
	usb.queueIn(fakeResponse(RespOK, 3, 0, 0, 99))
	usb.queueIn(fakeResponse(RespOK, 4))
	usb.queueIn(fakeResponse(RespOK, 5))
	usb.queueIn(fakeResponse(RespOK, 6))

	pl, err := s.UpdatePlaylist(8, "", []ObjectHandle{10, 11})
	if err != nil {
		t.Fatalf("UpdatePlaylist: %v", err)
	}
	if pl.Handle != 99 {
		t.Errorf("Handle = %d, want 99 (new handle after recreate)", pl.Handle)
	}
	if _, ok := s.cache.Get(8); ok {
		t.Error("old playlist handle still cached after recreate")
	}
	if _, ok := s.cache.Get(99); !ok {
		t.Error("new playlist handle not cached after recreate")
	}
}

func TestDeletePlaylistFlushesCache(t *testing.T) {
	usb := newFakeTransport()
	s := newTestSession(usb, 0)
	s.cache.Put(ObjectRecord{Handle: 5, ParentHandle: 0, Name: "Old Mix", Format: FormatAbstractAudioVideoPlaylist})

	usb.queueIn(fakeResponse(RespOK, 1))

	if err := s.DeletePlaylist(5); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	if _, ok := s.cache.Get(5); ok {
		t.Error("deleted playlist still present in cache")
	}
}
