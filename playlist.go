// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"os"
	"strings"
)

// Playlist is an ordered collection of track handles stored either as a
// native MTP abstract-playlist/abstract-album object or, on devices
// carrying PlaylistSplV1/PlaylistSplV2, as a ".spl" text file. Name never
// carries the on-device filename suffix; CreatePlaylist/CreateAlbum/
// ListPlaylists/ListAlbums/GetPlaylist strip it on the way in and
// reapply it on the way out.
type Playlist struct {
	Handle ObjectHandle
	Name   string
	Tracks []ObjectHandle
}

// Album is a Playlist-shaped grouping with no ordering guarantee beyond
// what SetObjectReferences preserves; MTP models both as an abstract
// object plus a reference list.
type Album = Playlist

// On-device filename suffixes. Names cached/returned by this package are
// always suffix-stripped; these are only appended when composing the
// SendObjectInfo dataset's filename.
const (
	nativePlaylistSuffix = ".zpl"
	albumSuffix          = ".alb"
	splSuffix            = ".spl"
)

var playlistSuffixes = []string{splSuffix, nativePlaylistSuffix, ".pla", albumSuffix}

// stripPlaylistSuffix removes a trailing playlist/album filename suffix
// from name, if present, matched case-insensitively.
func stripPlaylistSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, suf := range playlistSuffixes {
		if strings.HasSuffix(lower, suf) {
			return name[:len(name)-len(suf)]
		}
	}
	return name
}

// CreatePlaylist creates a new abstract-playlist object on storageID
// under parent. Devices carrying PlaylistSplV1/PlaylistSplV2 get a
// ".spl" text file instead of a native AbstractAudioVideoPlaylist
// object, per the device's playlist representation.
func (s *MtpSession) CreatePlaylist(storageID uint32, parent ObjectHandle, name string, tracks []ObjectHandle) (*Playlist, error) {
	if s.quirks.UsesSplPlaylists() {
		return s.createSplPlaylist(storageID, parent, name, tracks)
	}
	return s.createAbstractPlaylist(storageID, parent, name, tracks, FormatAbstractAudioVideoPlaylist, nativePlaylistSuffix)
}

// CreateAlbum creates a new AbstractAudioAlbum object on storageID under
// parent. Albums are always native MTP objects; no device quirk stores
// them as ".spl" files.
func (s *MtpSession) CreateAlbum(storageID uint32, parent ObjectHandle, name string, tracks []ObjectHandle) (*Playlist, error) {
	return s.createAbstractPlaylist(storageID, parent, name, tracks, FormatAbstractAudioAlbum, albumSuffix)
}

// createAbstractPlaylist creates a new object of the given format on
// storageID under parent, following the
// SendObjectInfo(size=1)+SendObject(one zero byte)+SetObjectPropValue(Name)+
// SetObjectReferences sequence that a zero-length object's info dataset
// would otherwise make ambiguous: many devices reject an object
// announced with ObjectCompressedSize 0, so the placeholder is sent as a
// single null byte instead. name is composed with suffix before
// SendObjectInfo and stripped again before it is cached or returned.
func (s *MtpSession) createAbstractPlaylist(storageID uint32, parent ObjectHandle, name string, tracks []ObjectHandle, format FormatCode, suffix string) (*Playlist, error) {
	strippedName := stripPlaylistSuffix(name)
	fileName := strippedName + suffix

	if err := s.lock(); err != nil {
		return nil, err
	}

	info := encodeObjectInfo(storageID, parent, format, 1, fileName)
	tx, err := s.ptp.RunTransaction(OpSendObjectInfo, []uint32{storageID, uint32(parent)},
		&sendPayload{bytes: info}, false)
	if err != nil {
		s.unlock()
		return nil, err
	}
	if len(tx.Params) < 3 {
		s.unlock()
		return nil, newError(KindProtocolViolation, "SendObjectInfo response missing handle parameter")
	}
	handle := ObjectHandle(tx.Params[2])

	_, err = s.ptp.RunTransaction(OpSendObject, nil, &sendPayload{bytes: []byte{0}}, false)
	s.unlock()
	if err != nil {
		return nil, err
	}

	if err := s.SetObjectPropValue(handle, PropName, ObjectPropValue{Kind: KindString, Str: strippedName}); err != nil {
		return nil, err
	}
	if err := s.SetObjectReferences(handle, tracks); err != nil {
		return nil, err
	}

	s.cache.Put(ObjectRecord{
		Handle: handle, StorageID: storageID, ParentHandle: parent,
		Format: format, Name: strippedName, Size: 1,
	})
	return &Playlist{Handle: handle, Name: strippedName, Tracks: tracks}, nil
}

// ListPlaylists returns every playlist under parent: native
// AbstractAudioVideoPlaylist objects, or ".spl" files on devices carrying
// PlaylistSplV1/PlaylistSplV2, each with its track references resolved.
func (s *MtpSession) ListPlaylists(storageID uint32, parent ObjectHandle) ([]*Playlist, error) {
	if s.quirks.UsesSplPlaylists() {
		return s.listSplPlaylists(storageID, parent)
	}
	return s.listAbstractPlaylists(storageID, parent, FormatAbstractAudioVideoPlaylist)
}

// ListAlbums returns every AbstractAudioAlbum object under parent, with
// its track references resolved.
func (s *MtpSession) ListAlbums(storageID uint32, parent ObjectHandle) ([]*Playlist, error) {
	return s.listAbstractPlaylists(storageID, parent, FormatAbstractAudioAlbum)
}

func (s *MtpSession) listAbstractPlaylists(storageID uint32, parent ObjectHandle, format FormatCode) ([]*Playlist, error) {
	recs, err := s.ListFiles(storageID, parent)
	if err != nil {
		return nil, err
	}
	out := make([]*Playlist, 0, len(recs))
	for _, r := range recs {
		if r.Format != format {
			continue
		}
		tracks, err := s.GetObjectReferences(r.Handle)
		if err != nil {
			return nil, err
		}
		out = append(out, &Playlist{Handle: r.Handle, Name: stripPlaylistSuffix(r.Name), Tracks: tracks})
	}
	return out, nil
}

// GetPlaylist reads a single playlist/album object back, resolving its
// track references (native objects) or downloading and decoding its
// ".spl" file (SPL-quirked devices).
func (s *MtpSession) GetPlaylist(handle ObjectHandle) (*Playlist, error) {
	rec, ok := s.cache.Get(handle)
	if !ok {
		return nil, newError(KindInvalidArgument, "playlist handle not in object cache")
	}
	if isSplObject(rec) {
		return s.loadSplPlaylist(rec)
	}
	tracks, err := s.GetObjectReferences(handle)
	if err != nil {
		return nil, err
	}
	return &Playlist{Handle: handle, Name: stripPlaylistSuffix(rec.Name), Tracks: tracks}, nil
}

// UpdatePlaylist brings handle's stored references in line with tracks.
// If the device's current reference list already equals tracks, this is
// a no-op beyond an optional rename: no SendObjectInfo is issued and the
// handle does not change. Otherwise the playlist is deleted and
// recreated with tracks; the returned Playlist carries the new handle,
// which the caller must adopt in place of the old one.
func (s *MtpSession) UpdatePlaylist(handle ObjectHandle, name string, tracks []ObjectHandle) (*Playlist, error) {
	current, err := s.GetObjectReferences(handle)
	if err != nil {
		return nil, err
	}

	rec, cached := s.cache.Get(handle)
	effectiveName := name
	if effectiveName == "" && cached {
		effectiveName = rec.Name
	}

	if tracksEqual(current, tracks) {
		if name != "" {
			if err := s.SetObjectPropValue(handle, PropName, ObjectPropValue{Kind: KindString, Str: name}); err != nil {
				return nil, err
			}
		}
		return &Playlist{Handle: handle, Name: stripPlaylistSuffix(effectiveName), Tracks: current}, nil
	}

	var storageID uint32
	var parent ObjectHandle
	if cached {
		storageID, parent = rec.StorageID, rec.ParentHandle
	}
	if err := s.DeletePlaylist(handle); err != nil {
		return nil, err
	}
	return s.CreatePlaylist(storageID, parent, effectiveName, tracks)
}

func tracksEqual(a, b []ObjectHandle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DeletePlaylist deletes the playlist object itself; its referenced
// tracks are untouched.
func (s *MtpSession) DeletePlaylist(handle ObjectHandle) error {
	return s.DeleteObject(handle)
}

// createSplPlaylist writes a local ".spl" file via SplCodec and sends it
// as a plain file object, the representation PlaylistSplV1/V2 devices
// expect instead of a native abstract-playlist object.
func (s *MtpSession) createSplPlaylist(storageID uint32, parent ObjectHandle, name string, tracks []ObjectHandle) (*Playlist, error) {
	strippedName := stripPlaylistSuffix(name)
	paths := make([]string, 0, len(tracks))
	for _, h := range tracks {
		if p := PathForHandle(s.cache, h); p != "" {
			paths = append(paths, p)
		}
	}

	version := SplV1
	if s.quirks.Has(PlaylistSplV2) {
		version = SplV2
	}
	tmp, err := os.CreateTemp("", "*.spl")
	if err != nil {
		return nil, wrapError(KindInvalidArgument, "create temporary spl file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := WriteSplFile(tmpPath, version, paths); err != nil {
		return nil, err
	}

	handle, err := s.sendFileAs(tmpPath, strippedName+splSuffix, storageID, parent, FormatSamsungPlaylist)
	if err != nil {
		return nil, err
	}
	return &Playlist{Handle: handle, Name: strippedName, Tracks: tracks}, nil
}
