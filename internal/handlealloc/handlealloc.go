// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package handlealloc provides fixed-capacity slot allocators that hand out
// generation-tagged handles.
//
// A handle packs a 16-bit slot index and a 16-bit generation:
//
//	handle = generation<<16 | index
//
// Generations start at 1 and are bumped every time a slot is freed, so the
// zero handle is never issued and a handle captured before a Free/Alloc cycle
// no longer validates against its slot.
//
// Allocation always returns the lowest free slot. The policy is deterministic:
// freeing a slot and allocating again yields the same index whenever that slot
// is the lowest free one.
package handlealloc

import (
	"errors"
	"math/bits"
)

// Invalid is the handle value that never refers to a slot.
const Invalid uint32 = 0

// MaxCapacity is the largest capacity an Allocator supports.
const MaxCapacity = 0xffff

var (
	// ErrStale is returned when a handle's generation does not match its slot,
	// or the slot is not allocated.
	ErrStale = errors.New("handlealloc: stale handle")

	// ErrOutOfRange is returned when a handle's index is beyond the capacity.
	ErrOutOfRange = errors.New("handlealloc: index out of range")
)

// Make packs an index and a generation into a handle.
func Make(index, generation uint16) uint32 {
	return uint32(generation)<<16 | uint32(index)
}

// Index returns the slot index of h.
func Index(h uint32) uint16 { return uint16(h) }

// Generation returns the generation of h.
func Generation(h uint32) uint16 { return uint16(h >> 16) }

// Allocator is a fixed-capacity slot allocator.
//
// Allocator is not safe for concurrent use.
type Allocator struct {
	gens   []uint16
	used   []uint64
	lowest int
	n      int
}

// New creates an allocator with the given number of slots.
func New(capacity uint16) *Allocator {
	a := &Allocator{
		gens: make([]uint16, capacity),
		used: make([]uint64, (int(capacity)+63)/64),
	}
	a.Reset()
	return a
}

// Reset frees every slot and restarts all generations.
func (a *Allocator) Reset() {
	for i := range a.gens {
		a.gens[i] = 1
	}
	for i := range a.used {
		a.used[i] = 0
	}
	// Bits past the capacity in the last word are permanently taken.
	if tail := len(a.gens) % 64; tail != 0 {
		a.used[len(a.used)-1] = ^uint64(0) << tail
	}
	a.lowest = 0
	a.n = 0
}

// Alloc takes the lowest free slot and returns its handle.
// It returns (Invalid, false) when every slot is in use.
func (a *Allocator) Alloc() (uint32, bool) {
	for w := a.lowest >> 6; w < len(a.used); w++ {
		free := ^a.used[w]
		if free == 0 {
			continue
		}
		bit := bits.TrailingZeros64(free)
		idx := w<<6 + bit
		a.used[w] |= 1 << uint(bit)
		a.lowest = idx + 1
		a.n++
		return Make(uint16(idx), a.gens[idx]), true
	}
	a.lowest = len(a.gens)
	return Invalid, false
}

// Free releases the slot referenced by h.
func (a *Allocator) Free(h uint32) error {
	idx := int(Index(h))
	if idx >= len(a.gens) {
		return ErrOutOfRange
	}
	if !a.isUsed(idx) || a.gens[idx] != Generation(h) {
		return ErrStale
	}
	a.used[idx>>6] &^= 1 << uint(idx&63)
	a.gens[idx]++
	if a.gens[idx] == 0 {
		a.gens[idx] = 1
	}
	if idx < a.lowest {
		a.lowest = idx
	}
	a.n--
	return nil
}

// IsValid reports whether h refers to a live slot with a matching generation.
func (a *Allocator) IsValid(h uint32) bool {
	if h == Invalid {
		return false
	}
	idx := int(Index(h))
	return idx < len(a.gens) && a.isUsed(idx) && a.gens[idx] == Generation(h)
}

// Check returns nil when h is valid, or the reason it is not.
func (a *Allocator) Check(h uint32) error {
	idx := int(Index(h))
	if idx >= len(a.gens) {
		return ErrOutOfRange
	}
	if h == Invalid || !a.isUsed(idx) || a.gens[idx] != Generation(h) {
		return ErrStale
	}
	return nil
}

// Len returns the number of allocated slots.
func (a *Allocator) Len() int { return a.n }

// Cap returns the number of slots.
func (a *Allocator) Cap() int { return len(a.gens) }

func (a *Allocator) isUsed(idx int) bool {
	return a.used[idx>>6]&(1<<uint(idx&63)) != 0
}
