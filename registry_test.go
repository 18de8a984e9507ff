// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "testing"

func TestQuirkFlagsHas(t *testing.T) {
	f := NoZeroReads | IgnoreHeaderErrors
	if !f.Has(NoZeroReads) {
		t.Error("Has(NoZeroReads) = false, want true")
	}
	if f.Has(ForceResetOnClose) {
		t.Error("Has(ForceResetOnClose) = true, want false")
	}
}

func TestQuirkFlagsTimeout(t *testing.T) {
	if got := QuirkFlags(0).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want DefaultTimeout", got)
	}
	if got := FlagLongTimeout.Timeout(); got != LongTimeout {
		t.Errorf("Timeout() with FlagLongTimeout = %v, want LongTimeout", got)
	}
}

func TestQuirkFlagsUsesSplPlaylists(t *testing.T) {
	if QuirkFlags(0).UsesSplPlaylists() {
		t.Error("UsesSplPlaylists() = true for no quirks")
	}
	if !PlaylistSplV1.UsesSplPlaylists() {
		t.Error("UsesSplPlaylists() = false for PlaylistSplV1")
	}
	if !PlaylistSplV2.UsesSplPlaylists() {
		t.Error("UsesSplPlaylists() = false for PlaylistSplV2")
	}
}

func TestMatchDeviceKnownEntry(t *testing.T) {
	entry, matched := MatchDevice(0x04E8, 0x5137, UsbClassStillImage, nil)
	if !matched {
		t.Fatal("MatchDevice did not match the known Samsung YP-T9 entry")
	}
	if !entry.Quirks.Has(PlaylistSplV2) {
		t.Errorf("entry.Quirks = %v, want PlaylistSplV2 set", entry.Quirks)
	}
}

func TestMatchDeviceUnknownProbesWhenClassPlausible(t *testing.T) {
	probed := false
	entry, matched := MatchDevice(0xDEAD, 0xBEEF, UsbClassStillImage, func() bool {
		probed = true
		return true
	})
	if !probed {
		t.Fatal("probe was not called for an unknown, plausible-class device")
	}
	if !matched {
		t.Fatal("MatchDevice should match when probe reports true")
	}
	if entry.Name == "" {
		t.Error("matched unknown-device entry should still carry a name")
	}
}

func TestMatchDeviceUnknownImplausibleClassSkipsProbe(t *testing.T) {
	probed := false
	_, matched := MatchDevice(0xDEAD, 0xBEEF, 0x01 /* audio class, not a probe candidate */, func() bool {
		probed = true
		return true
	})
	if probed {
		t.Fatal("probe should not run for an implausible device class")
	}
	if matched {
		t.Fatal("MatchDevice should not match an implausible, unknown device")
	}
}

func TestMatchDeviceProbeDeclines(t *testing.T) {
	_, matched := MatchDevice(0xDEAD, 0xBEEF, UsbClassStillImage, func() bool { return false })
	if matched {
		t.Fatal("MatchDevice should not match when probe reports false")
	}
}
