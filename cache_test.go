// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "testing"

func TestObjectCachePutAndGet(t *testing.T) {
	c := NewObjectCache()
	c.Put(ObjectRecord{Handle: 1, ParentHandle: 0, Name: "Music", Format: FormatAssociation})

	rec, ok := c.Get(1)
	if !ok {
		t.Fatal("Get(1) not found")
	}
	if rec.Name != "Music" {
		t.Fatalf("Name = %q, want Music", rec.Name)
	}
	if got := c.Children(0); len(got) != 1 || got[0] != 1 {
		t.Fatalf("Children(0) = %v, want [1]", got)
	}
}

func TestObjectCachePutBumpsGeneration(t *testing.T) {
	c := NewObjectCache()
	g0 := c.Generation()
	c.Put(ObjectRecord{Handle: 1, Name: "a"})
	if c.Generation() == g0 {
		t.Fatal("Generation did not advance after Put")
	}
}

func TestObjectCachePutReplaceDoesNotDuplicateChild(t *testing.T) {
	c := NewObjectCache()
	c.Put(ObjectRecord{Handle: 1, ParentHandle: 0, Name: "old"})
	c.Put(ObjectRecord{Handle: 1, ParentHandle: 0, Name: "new"})

	if got := c.Children(0); len(got) != 1 {
		t.Fatalf("Children(0) = %v, want exactly one entry", got)
	}
	rec, _ := c.Get(1)
	if rec.Name != "new" {
		t.Fatalf("Name = %q, want new (replace, not duplicate)", rec.Name)
	}
}

func TestObjectCacheFlushHandlesRemovesFromParent(t *testing.T) {
	c := NewObjectCache()
	c.Put(ObjectRecord{Handle: 1, ParentHandle: 0, Name: "Music"})
	c.Put(ObjectRecord{Handle: 2, ParentHandle: 1, Name: "song.mp3"})

	c.FlushHandles(2)

	if _, ok := c.Get(2); ok {
		t.Fatal("Get(2) found after FlushHandles")
	}
	if got := c.Children(1); len(got) != 0 {
		t.Fatalf("Children(1) = %v, want empty after flushing its only child", got)
	}
	if _, ok := c.Get(1); !ok {
		t.Fatal("Get(1) should survive flushing its child, not itself")
	}
}

func TestObjectCacheSnapshotAndStale(t *testing.T) {
	c := NewObjectCache()
	c.Put(ObjectRecord{Handle: 1, Name: "a"})
	snap := c.Snapshot()

	if c.Stale(snap) {
		t.Fatal("fresh snapshot reported stale")
	}
	c.Put(ObjectRecord{Handle: 2, Name: "b"})
	if !c.Stale(snap) {
		t.Fatal("snapshot should be stale after a further mutation")
	}
	if len(snap.Records) != 1 {
		t.Fatalf("snapshot captured %d records, want 1 (no mutation should retroactively appear)", len(snap.Records))
	}
}
