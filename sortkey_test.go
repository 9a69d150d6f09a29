// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

func TestSortKeyRoundTrip(t *testing.T) {
	keys := []SortKey{
		{},
		{Depth: -1, Program: 3, Trans: 2, Seq: 7, View: 31},
		{Depth: math.MinInt32, Program: sortKeyNoProgram, Trans: 1, Seq: sortKeySeqMask, View: 255},
		{Depth: math.MaxInt32, Program: 1, View: 1},
	}
	rng := rand.New(rand.NewPCG(3, 4))
	for range 10000 {
		keys = append(keys, SortKey{
			Depth:   int32(rng.Uint32()),
			Program: uint16(rng.IntN(sortKeyProgramMask + 1)),
			Trans:   uint8(rng.IntN(sortKeyTransMask + 1)),
			Seq:     uint16(rng.IntN(sortKeySeqMask + 1)),
			View:    uint8(rng.IntN(sortKeyViewMask + 1)),
		})
	}
	for _, k := range keys {
		if got := DecodeSortKey(k.Encode()); got != k {
			t.Fatalf("DecodeSortKey(%+v.Encode()) = %+v", k, got)
		}
	}

	// The fields cover all 64 bits, so every key decodes and re-encodes
	// to itself.
	for range 10000 {
		raw := rng.Uint64()
		if got := DecodeSortKey(raw).Encode(); got != raw {
			t.Fatalf("DecodeSortKey(%#x).Encode() = %#x", raw, got)
		}
	}
}

func TestSortKeyOrder(t *testing.T) {
	// Each key must sort before the next one.
	ordered := []SortKey{
		{View: 0, Seq: 0, Trans: 0, Program: 0, Depth: math.MinInt32},
		{View: 0, Seq: 0, Trans: 0, Program: 0, Depth: -1},
		{View: 0, Seq: 0, Trans: 0, Program: 0, Depth: 0},
		{View: 0, Seq: 0, Trans: 0, Program: 1, Depth: math.MinInt32},
		{View: 0, Seq: 0, Trans: 0, Program: sortKeyNoProgram},
		{View: 0, Seq: 0, Trans: 1},
		{View: 0, Seq: 0, Trans: 2},
		{View: 0, Seq: 1},
		{View: 1},
		{View: 2, Depth: math.MinInt32},
	}
	for i := 1; i < len(ordered); i++ {
		a, b := ordered[i-1].Encode(), ordered[i].Encode()
		if a >= b {
			t.Errorf("%+v (%#x) does not sort before %+v (%#x)", ordered[i-1], a, ordered[i], b)
		}
	}
}

func TestFrameSortStable(t *testing.T) {
	l := DefaultLimits()
	l.MaxDrawCalls = 512
	f := newFrame(&l)
	seq := newViewSeq(int(l.MaxViews))
	rng := rand.New(rand.NewPCG(1, 2))

	for i := range 300 {
		f.state.NumVertices = 3
		f.setProgram(ProgramHandle{v: uint32(i%4) + 1<<16})
		f.submit(uint8(rng.IntN(3)), int32(rng.IntN(5)), &seq)
	}
	f.sort()

	var prev uint64
	for i := range f.num {
		key := f.sortKeys[i]
		if key < prev {
			t.Fatalf("key %d = %#x is smaller than %#x", i, key, prev)
		}
		if i > 0 && key == prev && f.sortValues[i] < f.sortValues[i-1] {
			t.Fatalf("equal keys at %d reordered: %d after %d", i, f.sortValues[i], f.sortValues[i-1])
		}
		prev = key
	}
	if !slices.ContainsFunc(f.sortKeys[:f.num], func(k uint64) bool { return DecodeSortKey(k).View == 2 }) {
		t.Error("no draws in view 2")
	}
}

func BenchmarkFrameSubmitSort(b *testing.B) {
	l := DefaultLimits()
	f := newFrame(&l)
	seq := newViewSeq(int(l.MaxViews))
	b.ReportAllocs()
	for b.Loop() {
		f.start()
		for i := range 2000 {
			f.state.NumVertices = 3
			f.submit(uint8(i&7), int32(i*7919%1000), &seq)
		}
		f.sort()
	}
}
