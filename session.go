// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import (
	"os"
	"sync"
	"time"

	"github.com/saferwall/mtp/log"
)

// PropertyDiscoveryMode selects how a session fetches an object's
// property set.
type PropertyDiscoveryMode int

const (
	// PropertyDiscoveryAuto uses the default Enhanced strategy.
	PropertyDiscoveryAuto PropertyDiscoveryMode = iota
	// PropertyDiscoveryEnhanced calls GetObjectPropsSupported for the
	// object's format and reads each supported property individually
	// with GetObjectPropValue. Slower than Bulk, but robust against
	// devices whose GetObjectPropList implementation is unreliable; this
	// is the default.
	PropertyDiscoveryEnhanced
	// PropertyDiscoveryBulk always uses the single GetObjectPropList
	// call, except on devices carrying BrokenObjectPropListAll.
	PropertyDiscoveryBulk
)

// Options configures a session beyond what device identification
// already determined.
type Options struct {
	// StartTimeout, DefaultTimeout and LongTimeout are stored with the
	// session but not read: transactions use the package constants of the
	// same names, as QuirkFlags.Timeout selects.
	StartTimeout   time.Duration
	DefaultTimeout time.Duration
	LongTimeout    time.Duration

	// ForceProbe is stored with the session but not read; Open does not
	// run the Microsoft OS descriptor probe.
	ForceProbe bool

	// PropertyDiscovery selects the metadata-read strategy; defaults to
	// PropertyDiscoveryAuto.
	PropertyDiscovery PropertyDiscoveryMode

	// Logger is a custom logger; nil uses a stderr logger filtered to
	// error level.
	Logger log.Logger
}

// DeviceInfo is the parsed GetDeviceInfo response.
type DeviceInfo struct {
	StandardVersion       uint16
	VendorExtensionID     uint32
	VendorExtensionDesc   string
	FunctionalMode        uint16
	OperationsSupported   []OperationCode
	EventsSupported       []EventCode
	DevicePropsSupported  []uint16
	Manufacturer          string
	Model                 string
	DeviceVersion         string
	SerialNumber          string
}

// Supports reports whether op is listed in OperationsSupported.
func (d DeviceInfo) Supports(op OperationCode) bool {
	for _, o := range d.OperationsSupported {
		if o == op {
			return true
		}
	}
	return false
}

// StorageDescriptor is the parsed GetStorageInfo response for one
// storage id.
type StorageDescriptor struct {
	StorageID       uint32
	StorageType     uint16
	FilesystemType  uint16
	AccessCapability uint16
	MaxCapacity     uint64
	FreeSpace       uint64
	Description     string
	VolumeLabel     string

	// RootHandles caches the well-known top-level folders this session
	// found on this storage (Music, My Playlists, ...) keyed by name.
	RootHandles map[string]ObjectHandle
}

// defaultFolderNames are the case-sensitive top-level folder names a
// session looks for on each storage when building RootHandles.
var defaultFolderNames = []string{
	"Music", "My Playlists", "Pictures", "Video", "My Organizer", "ZENcast",
}

// MtpSession is an open PTP session against one USB MTP device. Exported
// methods that issue transactions take the session's mutex, so a second
// call made while one is already in flight returns ErrSessionBusy rather
// than interleaving container traffic on the wire. Composite operations
// (the playlist and album methods) take it once per step, and
// WaitForEvent and the accessors do not take it.
type MtpSession struct {
	mu sync.Mutex

	ptp    *PtpTransport
	quirks QuirkFlags
	opts   *Options
	logger *log.Helper

	sessionID uint32
	opened    bool

	info     DeviceInfo
	storages []StorageDescriptor
	cache    *ObjectCache
	errStack ErrorStack
}

// Open runs GetDeviceInfo, OpenSession, storage enumeration, and
// default-folder discovery against an already-claimed transport, and
// returns a ready-to-use session.
func Open(usb UsbTransport, quirks QuirkFlags, opts *Options) (*MtpSession, error) {
	if opts == nil {
		opts = &Options{}
	}

	var logger log.Logger
	if opts.Logger == nil {
		logger = log.NewStdLogger(os.Stderr)
		logger = log.NewFilter(logger, log.FilterLevel(log.LevelError))
	} else {
		logger = opts.Logger
	}
	helper := log.NewHelper(logger)

	if quirks.Has(SwitchModeBlackberry) {
		SwitchBlackberryMode(usb)
	}

	s := &MtpSession{
		ptp:    NewPtpTransport(usb, quirks, helper),
		quirks: quirks,
		opts:   opts,
		logger: helper,
		cache:  NewObjectCache(),
	}

	info, err := s.getDeviceInfo()
	if err != nil {
		return nil, wrapError(KindUsbIo, "get device info", err)
	}
	s.info = info

	if err := s.openSessionWithRetry(); err != nil {
		return nil, err
	}

	storages, err := s.fetchStorages()
	if err != nil {
		s.logger.Warnf("storage enumeration failed: %v", err)
	}
	s.storages = storages

	for i := range s.storages {
		s.discoverDefaultFolders(&s.storages[i])
	}

	return s, nil
}

// lock acquires the session mutex, returning ErrSessionBusy if another
// operation already holds it.
func (s *MtpSession) lock() error {
	if !s.mu.TryLock() {
		return ErrSessionBusy
	}
	return nil
}

func (s *MtpSession) unlock() { s.mu.Unlock() }

// getDeviceInfo issues the session-less GetDeviceInfo operation (valid
// before OpenSession) and parses its fixed-then-string fields.
func (s *MtpSession) getDeviceInfo() (DeviceInfo, error) {
	tx, err := s.ptp.RunTransaction(OpGetDeviceInfo, nil, nil, true)
	if err != nil {
		return DeviceInfo{}, err
	}
	return decodeDeviceInfo(tx.Data)
}

// openSessionWithRetry opens session id 1. It retries once after a USB
// reset if the first attempt fails with a KindUsbIo error, and once after
// a CloseSession if the device reports RespSessionAlreadyOpened (it was
// left open by a prior, uncleanly terminated run).
func (s *MtpSession) openSessionWithRetry() error {
	const sessionID = 1
	_, err := s.ptp.RunTransaction(OpOpenSession, []uint32{sessionID}, nil, false)
	if err == nil {
		s.sessionID = sessionID
		s.opened = true
		return nil
	}

	var mtpErr *MtpError
	if asMtpError(err, &mtpErr) && mtpErr.Kind == KindUsbIo {
		if rerr := s.ptp.usb.Reset(); rerr == nil {
			_, err = s.ptp.RunTransaction(OpOpenSession, []uint32{sessionID}, nil, false)
			if err == nil {
				s.sessionID = sessionID
				s.opened = true
				return nil
			}
		}
	} else if asMtpError(err, &mtpErr) && mtpErr.Kind == KindPtpResponse && mtpErr.Code == RespSessionAlreadyOpened {
		_, _ = s.ptp.RunTransaction(OpCloseSession, nil, nil, false)
		_, err = s.ptp.RunTransaction(OpOpenSession, []uint32{sessionID}, nil, false)
		if err == nil {
			s.sessionID = sessionID
			s.opened = true
			return nil
		}
	}
	return wrapError(KindUsbIo, "open session", err)
}

// asMtpError is a small errors.As helper kept local so callers above
// don't need to import errors just for this one check.
func asMtpError(err error, target **MtpError) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if me, ok := err.(*MtpError); ok {
			*target = me
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// fetchStorages issues GetStorageIDs then GetStorageInfo per id.
func (s *MtpSession) fetchStorages() ([]StorageDescriptor, error) {
	tx, err := s.ptp.RunTransaction(OpGetStorageIDs, nil, nil, true)
	if err != nil {
		return nil, err
	}
	ids := decodeUint32Array(tx.Data)

	out := make([]StorageDescriptor, 0, len(ids))
	for _, id := range ids {
		infoTx, err := s.ptp.RunTransaction(OpGetStorageInfo, []uint32{id}, nil, true)
		if err != nil {
			s.logger.Warnf("get storage info for %#x failed: %v", id, err)
			continue
		}
		desc, err := decodeStorageInfo(id, infoTx.Data)
		if err != nil {
			s.logger.Warnf("decode storage info for %#x failed: %v", id, err)
			continue
		}
		out = append(out, desc)
	}
	return out, nil
}

// discoverDefaultFolders lists the root of storage.StorageID and
// populates RootHandles with whichever defaultFolderNames it finds,
// matched case-sensitively.
func (s *MtpSession) discoverDefaultFolders(storage *StorageDescriptor) {
	storage.RootHandles = make(map[string]ObjectHandle)

	tx, err := s.ptp.RunTransaction(OpGetObjectHandles,
		[]uint32{storage.StorageID, 0, 0}, nil, true)
	if err != nil {
		s.logger.Warnf("list root objects on storage %#x failed: %v", storage.StorageID, err)
		return
	}
	handles := decodeUint32Array(tx.Data)

	wanted := make(map[string]bool, len(defaultFolderNames))
	for _, n := range defaultFolderNames {
		wanted[n] = true
	}

	for _, h := range handles {
		infoTx, err := s.ptp.RunTransaction(OpGetObjectInfo, []uint32{h}, nil, true)
		if err != nil {
			continue
		}
		rec, err := decodeObjectInfo(ObjectHandle(h), storage.StorageID, infoTx.Data)
		if err != nil {
			continue
		}
		s.cache.Put(rec)
		if wanted[rec.Name] {
			storage.RootHandles[rec.Name] = rec.Handle
		}
	}
}

// DeviceInfo returns the device's parsed GetDeviceInfo response.
func (s *MtpSession) DeviceInfo() DeviceInfo { return s.info }

// Storages returns the session's cached storage descriptors.
func (s *MtpSession) Storages() []StorageDescriptor { return s.storages }

// Errors drains the session's accumulated ErrorStack.
func (s *MtpSession) Errors() []*MtpError { return s.errStack.Drain() }

// Cache returns the session's object cache.
func (s *MtpSession) Cache() *ObjectCache { return s.cache }

// Close issues CloseSession and releases the underlying transport
// according to the device's quirks (ForceResetOnClose, NoReleaseInterface).
func (s *MtpSession) Close(usb UsbTransport) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()

	if s.opened {
		_, _ = s.ptp.RunTransaction(OpCloseSession, nil, nil, false)
		s.opened = false
	}

	if s.quirks.Has(ForceResetOnClose) {
		_ = usb.Reset()
	}
	if !s.quirks.Has(NoReleaseInterface) {
		return usb.Release()
	}
	return nil
}
