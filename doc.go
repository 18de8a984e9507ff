// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package mtp implements a host-side Media Transfer Protocol (MTP) client
// over USB bulk/interrupt endpoints.
//
// MTP layers an object-oriented file/metadata model (sessions, object
// handles, storages, object properties, references) on top of PTP
// (Picture Transfer Protocol) request/response/data container framing.
// The package is organized bottom-up:
//
//   - container.go / codes.go: the wire-level PTP container shape and the
//     operation/response/event/format/property code tables.
//   - transport.go / transaction.go: the UsbTransport abstraction and the
//     PtpTransport transaction state machine (chunking, ZLP policy,
//     split-header handling, cancellation, events).
//   - registry.go: known-device table, quirk flags, Microsoft OS
//     descriptor probing for unknown devices.
//   - session.go / cache.go / objects.go / properties.go / playlist.go:
//     the MtpSession object graph, its handle cache, and entity
//     operations (files, folders, tracks, playlists, albums).
//   - spl.go: the Samsung ".spl" playlist codec.
//
// Callers provide a concrete UsbTransport (internal/usbhost ships one
// backed by github.com/google/gousb); the package never talks to a USB
// library directly.
package mtp
