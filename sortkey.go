// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

// Sort key layout, low to high bits.
const (
	sortKeyDepthBits   = 32
	sortKeyProgramBits = 9
	sortKeyTransBits   = 2
	sortKeySeqBits     = 13
	sortKeyViewBits    = 8

	sortKeyDepthShift   = 0
	sortKeyProgramShift = sortKeyDepthShift + sortKeyDepthBits
	sortKeyTransShift   = sortKeyProgramShift + sortKeyProgramBits
	sortKeySeqShift     = sortKeyTransShift + sortKeyTransBits
	sortKeyViewShift    = sortKeySeqShift + sortKeySeqBits

	sortKeyProgramMask = 1<<sortKeyProgramBits - 1
	sortKeyTransMask   = 1<<sortKeyTransBits - 1
	sortKeySeqMask     = 1<<sortKeySeqBits - 1
	sortKeyViewMask    = 1<<sortKeyViewBits - 1
)

// sortKeyNoProgram is the program field of draws without a program. It sorts
// after every real program index.
const sortKeyNoProgram = sortKeyProgramMask

// SortKey is the decoded form of the 64-bit key that orders draw calls.
//
// Keys compare by View, then Seq, then Trans, then Program, then Depth.
// Seq is zero unless the view is sequential, so draws within an ordinary
// view are grouped by transparency and program.
type SortKey struct {
	Depth   int32
	Program uint16
	Trans   uint8
	Seq     uint16
	View    uint8
}

// Encode packs k. Fields are truncated to their bit widths.
//
// Depth is stored with its sign bit flipped so that signed depth order
// matches unsigned key order.
func (k SortKey) Encode() uint64 {
	depth := uint64(uint32(k.Depth) ^ 0x80000000)
	return depth<<sortKeyDepthShift |
		uint64(k.Program&sortKeyProgramMask)<<sortKeyProgramShift |
		uint64(k.Trans&sortKeyTransMask)<<sortKeyTransShift |
		uint64(k.Seq&sortKeySeqMask)<<sortKeySeqShift |
		uint64(k.View&sortKeyViewMask)<<sortKeyViewShift
}

// DecodeSortKey unpacks a key produced by Encode.
func DecodeSortKey(key uint64) SortKey {
	return SortKey{
		Depth:   int32(uint32(key>>sortKeyDepthShift) ^ 0x80000000),
		Program: uint16(key>>sortKeyProgramShift) & sortKeyProgramMask,
		Trans:   uint8(key>>sortKeyTransShift) & sortKeyTransMask,
		Seq:     uint16(key>>sortKeySeqShift) & sortKeySeqMask,
		View:    uint8(key >> sortKeyViewShift),
	}
}
