// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a size-bounded LRU cache for objects that own
// native resources.
//
// Entries pushed out by the size limit are handed to an eviction callback
// so the owner can release them, typically after the GPU has finished with
// the current frame:
//
//	c := cache.New[key, hal.RenderPipeline](1024, func(_ key, p hal.RenderPipeline) {
//		retired = append(retired, p)
//	})
//	p, err := c.GetOrCreate(k, build)
//
// An LRU is used by one goroutine. Its counters may be read from any
// goroutine through Stats.
package cache
