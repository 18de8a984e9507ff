// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "testing"

func TestFormatCodeIsFolder(t *testing.T) {
	if !FormatAssociation.IsFolder() {
		t.Error("FormatAssociation.IsFolder() = false, want true")
	}
	if FormatMP3.IsFolder() {
		t.Error("FormatMP3.IsFolder() = true, want false")
	}
}

func TestIsKnownAudioFormat(t *testing.T) {
	if !IsKnownAudioFormat(FormatMP3) {
		t.Error("IsKnownAudioFormat(FormatMP3) = false, want true")
	}
	if !IsKnownAudioFormat(FormatFLAC) {
		t.Error("IsKnownAudioFormat(FormatFLAC) = false, want true")
	}
	if IsKnownAudioFormat(FormatText) {
		t.Error("IsKnownAudioFormat(FormatText) = true, want false")
	}
}

func TestOperationCodeString(t *testing.T) {
	if got := OpOpenSession.String(); got != "OpenSession" {
		t.Errorf("OpOpenSession.String() = %q, want OpenSession", got)
	}
}

func TestResponseCodeString(t *testing.T) {
	if got := RespOK.String(); got != "OK" {
		t.Errorf("RespOK.String() = %q, want OK", got)
	}
}

func TestEventCodeString(t *testing.T) {
	if got := EventObjectAdded.String(); got != "ObjectAdded" {
		t.Errorf("EventObjectAdded.String() = %q, want ObjectAdded", got)
	}
}
