// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "sync"

// ObjectHandle is a device-assigned object identifier. 0 denotes the
// storage root when used as a parent handle.
type ObjectHandle uint32

// ObjectRecord is the cached view of one object's GetObjectInfo result
// plus the bookkeeping the cache needs to know when it is stale.
type ObjectRecord struct {
	Handle       ObjectHandle
	StorageID    uint32
	ParentHandle ObjectHandle
	Format       FormatCode
	Name         string
	Size         uint64

	generation uint64
}

// CacheSnapshot is a read-only, point-in-time view returned by
// ObjectCache.Snapshot: a slice of records plus the generation they were
// valid at, so a caller can tell whether a later comparison is still
// meaningful.
type CacheSnapshot struct {
	Generation uint64
	Records    []ObjectRecord
}

// ObjectCache holds the subset of the device's object graph this session
// has discovered, tagged with a generation counter that advances on
// every mutation (delete, move, add) so a consumer holding an older
// Snapshot can detect staleness without re-walking the device.
type ObjectCache struct {
	mu         sync.RWMutex
	generation uint64
	byHandle   map[ObjectHandle]*ObjectRecord
	children   map[ObjectHandle][]ObjectHandle // parent -> child handles, insertion order
}

// NewObjectCache returns an empty cache at generation 0.
func NewObjectCache() *ObjectCache {
	return &ObjectCache{
		byHandle: make(map[ObjectHandle]*ObjectRecord),
		children: make(map[ObjectHandle][]ObjectHandle),
	}
}

// Generation returns the current generation counter.
func (c *ObjectCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Put inserts or replaces the record for rec.Handle, bumping the
// generation and (for a new handle) appending it to its parent's child
// list.
func (c *ObjectCache) Put(rec ObjectRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	rec.generation = c.generation

	if _, exists := c.byHandle[rec.Handle]; !exists {
		c.children[rec.ParentHandle] = append(c.children[rec.ParentHandle], rec.Handle)
	}
	stored := rec
	c.byHandle[rec.Handle] = &stored
}

// Get returns the cached record for handle, if present.
func (c *ObjectCache) Get(handle ObjectHandle) (ObjectRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byHandle[handle]
	if !ok {
		return ObjectRecord{}, false
	}
	return *rec, true
}

// Children returns the cached child handles of parent, in the order they
// were discovered.
func (c *ObjectCache) Children(parent ObjectHandle) []ObjectHandle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ObjectHandle, len(c.children[parent]))
	copy(out, c.children[parent])
	return out
}

// FlushHandles removes handles from the cache entirely: their records
// and their membership in their parent's child list. Used after a
// DeleteObject or MoveObject whose new shape this session has not yet
// re-queried, so stale entries cannot be served from Get/Children/
// Snapshot.
func (c *ObjectCache) FlushHandles(handles ...ObjectHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	remove := make(map[ObjectHandle]bool, len(handles))
	for _, h := range handles {
		remove[h] = true
	}
	for _, h := range handles {
		rec, ok := c.byHandle[h]
		if !ok {
			continue
		}
		delete(c.byHandle, h)
		siblings := c.children[rec.ParentHandle]
		kept := siblings[:0]
		for _, s := range siblings {
			if s != h {
				kept = append(kept, s)
			}
		}
		c.children[rec.ParentHandle] = kept
	}
	for parent := range remove {
		delete(c.children, parent)
	}
}

// Snapshot returns every cached record along with the generation it was
// captured at.
func (c *ObjectCache) Snapshot() CacheSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records := make([]ObjectRecord, 0, len(c.byHandle))
	for _, rec := range c.byHandle {
		records = append(records, *rec)
	}
	return CacheSnapshot{Generation: c.generation, Records: records}
}

// Stale reports whether snap was captured at an earlier generation than
// the cache's current one.
func (c *ObjectCache) Stale(snap CacheSnapshot) bool {
	return c.Generation() != snap.Generation
}
