// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package nonlocal implements a first-fit allocator for memory that the
// allocator itself never touches, such as regions of GPU buffers.
//
// Addresses are opaque 64-bit values. Callers usually encode a backing
// buffer in the high 32 bits and a byte offset in the low 32 bits:
//
//	block := uint64(buffer)<<32 | uint64(offset)
package nonlocal

import "sort"

// Invalid is returned by Alloc when no free region is large enough.
const Invalid = ^uint64(0)

type region struct {
	ptr  uint64
	size uint32
}

// Allocator hands out sub-regions of the regions added to it.
//
// Allocator is not safe for concurrent use.
type Allocator struct {
	free []region
	used map[uint64]uint32
}

// New creates an empty allocator.
func New() *Allocator {
	return &Allocator{used: make(map[uint64]uint32)}
}

// Reset forgets every region.
func (a *Allocator) Reset() {
	a.free = a.free[:0]
	clear(a.used)
}

// Add makes [ptr, ptr+size) available for allocation.
func (a *Allocator) Add(ptr uint64, size uint32) {
	a.free = append(a.free, region{ptr: ptr, size: size})
}

// Alloc returns the address of the first free region that can hold size
// bytes, or Invalid.
func (a *Allocator) Alloc(size uint32) uint64 {
	for i := range a.free {
		r := &a.free[i]
		if r.size < size {
			continue
		}
		ptr := r.ptr
		a.used[ptr] = size
		if r.size != size {
			r.size -= size
			r.ptr += uint64(size)
		} else {
			a.free = append(a.free[:i], a.free[i+1:]...)
		}
		return ptr
	}
	return Invalid
}

// Free returns a block obtained from Alloc. Unknown blocks are ignored.
func (a *Allocator) Free(block uint64) {
	size, ok := a.used[block]
	if !ok {
		return
	}
	delete(a.used, block)
	// Freed blocks go to the front so they are found first.
	a.free = append(a.free, region{})
	copy(a.free[1:], a.free)
	a.free[0] = region{ptr: block, size: size}
}

// Compact sorts the free list and merges adjacent regions.
func (a *Allocator) Compact() {
	if len(a.free) < 2 {
		return
	}
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].ptr < a.free[j].ptr })
	out := a.free[:1]
	for _, r := range a.free[1:] {
		last := &out[len(out)-1]
		if last.ptr+uint64(last.size) == r.ptr {
			last.size += r.size
			continue
		}
		out = append(out, r)
	}
	a.free = out
}

// FreeRegions returns the number of free regions.
func (a *Allocator) FreeRegions() int { return len(a.free) }

// Used returns the number of live blocks.
func (a *Allocator) Used() int { return len(a.used) }

// FreeBytes returns the total size of the free regions whose address lies
// in the given backing buffer (the high 32 bits of the address).
func (a *Allocator) FreeBytes(buffer uint32) uint32 {
	var n uint32
	for _, r := range a.free {
		if uint32(r.ptr>>32) == buffer {
			n += r.size
		}
	}
	return n
}
