// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package radix sorts 64-bit keys together with a parallel value array.
//
// Sort64 is a least-significant-digit radix sort using 11-bit digits
// (6 passes). Each pass is a stable counting scatter, so equal keys keep
// their relative order. Passes whose digit is identical for every key are
// skipped.
package radix

const (
	bits    = 11
	buckets = 1 << bits
	mask    = buckets - 1
	passes  = (64 + bits - 1) / bits
)

// Sort64 sorts keys ascending and applies the same permutation to values.
// tmpKeys and tmpValues are scratch space of at least len(keys) elements.
// On return the sorted data is in keys and values.
func Sort64(keys, tmpKeys []uint64, values, tmpValues []uint16) {
	n := len(keys)
	if n < 2 {
		return
	}
	tmpKeys = tmpKeys[:n]
	values = values[:n]
	tmpValues = tmpValues[:n]

	srcK, dstK := keys, tmpKeys
	srcV, dstV := values, tmpValues
	var histogram [buckets]uint32

	for pass := 0; pass < passes; pass++ {
		shift := uint(pass * bits)
		histogram = [buckets]uint32{}
		for _, k := range srcK {
			histogram[(k>>shift)&mask]++
		}

		// Every key shares this digit: the pass would be an identity copy.
		if histogram[(srcK[0]>>shift)&mask] == uint32(n) {
			continue
		}

		var offset uint32
		for i := range histogram {
			c := histogram[i]
			histogram[i] = offset
			offset += c
		}
		for i, k := range srcK {
			d := (k >> shift) & mask
			dst := histogram[d]
			histogram[d]++
			dstK[dst] = k
			dstV[dst] = srcV[i]
		}
		srcK, dstK = dstK, srcK
		srcV, dstV = dstV, srcV
	}

	if &srcK[0] != &keys[0] {
		copy(keys, srcK)
		copy(values, srcV)
	}
}
