// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SplVersion is the ".spl" playlist format version a Samsung-family
// device expects, selected by the PlaylistSplV1/PlaylistSplV2 quirk
// flags.
type SplVersion int

const (
	SplV1 SplVersion = iota
	SplV2
)

func (v SplVersion) versionLine() string {
	if v == SplV2 {
		return "VERSION 2.00"
	}
	return "VERSION 1.00"
}

// splLines builds the ".spl" file's text lines, one per CRLF-terminated
// record: header, version, a blank separator, one backslash-rooted path
// per track, a blank separator, the footer, and (v2 only) an empty
// myDNSe trailer section.
func splLines(version SplVersion, trackPaths []string) []string {
	lines := []string{"SPL PLAYLIST", version.versionLine(), ""}
	lines = append(lines, trackPaths...)
	lines = append(lines, "", "END PLAYLIST")
	if version == SplV2 {
		lines = append(lines, "", "myDNSe DATA", "", "", "END myDNSe")
	}
	return lines
}

// WriteSplFile writes a ".spl" playlist file to path: a UTF-16LE BOM
// followed by CRLF-terminated UTF-16LE lines. trackPaths are
// backslash-rooted device paths ("\Music\song.mp3"), already resolved
// from object handles by the caller.
func WriteSplFile(path string, version SplVersion, trackPaths []string) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapError(KindInvalidArgument, "create spl file", err)
	}
	defer f.Close()

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	w := transform.NewWriter(f, enc.NewEncoder())
	defer w.Close()

	for _, line := range splLines(version, trackPaths) {
		if _, err := fmt.Fprintf(w, "%s\r\n", line); err != nil {
			return wrapError(KindUsbIo, "write spl line", err)
		}
	}
	return nil
}

// ReadSplFile reads a ".spl" playlist file, decoding its UTF-16LE
// (BOM-prefixed) text and returning the non-empty lines that begin with
// a backslash (the track path entries); header, footer and myDNSe
// trailer lines are discarded.
func ReadSplFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(KindInvalidArgument, "open spl file", err)
	}
	defer f.Close()

	dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	r := transform.NewReader(f, dec.NewDecoder())

	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, `\`) {
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, wrapError(KindProtocolViolation, "scan spl file", err)
	}
	return paths, nil
}

// PathForHandle reconstructs a backslash-rooted device path for handle
// by walking the object cache's parent chain to the storage root.
// Returns "" if any ancestor is not cached.
func PathForHandle(cache *ObjectCache, handle ObjectHandle) string {
	var parts []string
	for handle != 0 {
		rec, ok := cache.Get(handle)
		if !ok {
			return ""
		}
		parts = append([]string{rec.Name}, parts...)
		handle = rec.ParentHandle
	}
	if len(parts) == 0 {
		return ""
	}
	return `\` + strings.Join(parts, `\`)
}

// ResolvePathToHandle finds the object handle for a backslash-rooted
// device path by matching each path component, case-insensitively,
// against the cached children of the previous component (root's
// children for the first component).
func ResolvePathToHandle(cache *ObjectCache, path string) (ObjectHandle, error) {
	if path == "" {
		return 0, ErrEmptyPath
	}
	components := strings.Split(strings.TrimPrefix(path, `\`), `\`)

	var current ObjectHandle
	for _, want := range components {
		found := ObjectHandle(0)
		matched := false
		for _, child := range cache.Children(current) {
			rec, ok := cache.Get(child)
			if ok && strings.EqualFold(rec.Name, want) {
				found = child
				matched = true
				break
			}
		}
		if !matched {
			return 0, newError(KindInvalidArgument, fmt.Sprintf("path component %q not found", want))
		}
		current = found
	}
	return current, nil
}

// isSplObject reports whether r looks like a Samsung ".spl" playlist
// file: an Undefined- or SamsungPlaylist-format object whose filename
// ends in ".spl".
func isSplObject(r ObjectRecord) bool {
	if r.Format != FormatUndefined && r.Format != FormatSamsungPlaylist {
		return false
	}
	return strings.HasSuffix(strings.ToLower(r.Name), splSuffix)
}

// listSplPlaylists lists every ".spl" file under parent and decodes each
// into a Playlist. A file that cannot be downloaded or decoded is
// recorded on the error stack and skipped rather than failing the whole
// listing.
func (s *MtpSession) listSplPlaylists(storageID uint32, parent ObjectHandle) ([]*Playlist, error) {
	recs, err := s.ListFiles(storageID, parent)
	if err != nil {
		return nil, err
	}
	out := make([]*Playlist, 0, len(recs))
	for _, r := range recs {
		if !isSplObject(r) {
			continue
		}
		pl, err := s.loadSplPlaylist(r)
		if err != nil {
			s.errStack.Push(wrapError(KindProtocolViolation, "load spl playlist", err))
			continue
		}
		out = append(out, pl)
	}
	return out, nil
}

// loadSplPlaylist downloads rec's ".spl" file and decodes it into a
// Playlist: each track line is resolved against the object cache's
// folder/file tree into an ObjectHandle. A line whose path does not
// resolve drops that entry rather than failing the whole playlist.
func (s *MtpSession) loadSplPlaylist(rec ObjectRecord) (*Playlist, error) {
	tmp, err := os.CreateTemp("", "*.spl")
	if err != nil {
		return nil, wrapError(KindInvalidArgument, "create temporary spl file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := s.GetFile(rec.Handle, tmpPath); err != nil {
		return nil, err
	}
	paths, err := ReadSplFile(tmpPath)
	if err != nil {
		return nil, err
	}

	tracks := make([]ObjectHandle, 0, len(paths))
	for _, p := range paths {
		h, err := ResolvePathToHandle(s.cache, p)
		if err != nil {
			continue
		}
		tracks = append(tracks, h)
	}
	return &Playlist{Handle: rec.Handle, Name: stripPlaylistSuffix(rec.Name), Tracks: tracks}, nil
}
