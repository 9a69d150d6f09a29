// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"errors"
	"slices"
	"strconv"
	"testing"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New(2, func(k string, _ int) { evicted = append(evicted, k) })

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) missed")
	}
	c.Set("c", 3)

	if !slices.Equal(evicted, []string{"b"}) {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) hit after eviction")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if st := c.Stats(); st.Evictions != 1 || st.Limit != 2 {
		t.Errorf("Stats() = %+v, want 1 eviction and limit 2", st)
	}
}

func TestLRUSetReplaces(t *testing.T) {
	evictions := 0
	c := New(1, func(string, int) { evictions++ })
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	if evictions != 0 {
		t.Errorf("evictions = %d, want 0", evictions)
	}
}

func TestLRUGetOrCreate(t *testing.T) {
	c := New[int, string](0, nil)
	created := 0
	create := func() (string, error) {
		created++
		return "v" + strconv.Itoa(created), nil
	}
	for _, k := range []int{1, 1, 2, 1} {
		if _, err := c.GetOrCreate(k, create); err != nil {
			t.Fatalf("GetOrCreate(%d) error = %v", k, err)
		}
	}
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}
	if st := c.Stats(); st.Hits != 2 || st.Misses != 2 {
		t.Errorf("Stats() = %+v, want 2 hits and 2 misses", st)
	}

	errCreate := errors.New("boom")
	if _, err := c.GetOrCreate(3, func() (string, error) { return "", errCreate }); !errors.Is(err, errCreate) {
		t.Errorf("GetOrCreate() error = %v, want %v", err, errCreate)
	}
	if c.Len() != 2 || c.Stats().Misses != 2 {
		t.Errorf("a failed create changed the cache: Len() = %d, %+v", c.Len(), c.Stats())
	}
}

func TestLRUDeleteFunc(t *testing.T) {
	c := New[int, int](0, nil)
	for i := range 6 {
		c.Set(i, i*10)
	}
	var released []int
	n := c.DeleteFunc(func(k int) bool { return k%2 == 0 }, func(v int) { released = append(released, v) })
	slices.Sort(released)
	if n != 3 || !slices.Equal(released, []int{0, 20, 40}) {
		t.Errorf("DeleteFunc() = %d, released %v, want 3 and [0 20 40]", n, released)
	}
	if _, ok := c.Get(1); !ok {
		t.Error("Get(1) missed after deleting even keys")
	}

	released = released[:0]
	c.Clear(func(v int) { released = append(released, v) })
	if c.Len() != 0 || len(released) != 3 {
		t.Errorf("Clear() left %d entries and released %v", c.Len(), released)
	}
	// The list is usable after being emptied.
	c.Set(7, 70)
	if v, ok := c.Get(7); !ok || v != 70 {
		t.Errorf("Get(7) = %d, %v after Clear", v, ok)
	}
}

func BenchmarkLRUGetOrCreate(b *testing.B) {
	c := New[int, int](64, nil)
	i := 0
	for b.Loop() {
		_, _ = c.GetOrCreate(i%100, func() (int, error) { return i, nil })
		i++
	}
}
