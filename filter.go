// Copyright © 2014-2017 Lawrence E. Bakst. All rights reserved.

package cuckoohash

import (
	"github.com/dataence/bloom/standard"
)

// filter answers "definitely absent" before any table is probed.
// Removed keys stay in the filter until the next rehash rebuilds it.
type filter struct {
	add   func(item []byte)
	check func(item []byte) bool
}

func newFilter(n int) *filter {
	bf := standard.New(uint(n))
	return &filter{
		add:   func(item []byte) { bf.Add(item) },
		check: bf.Check,
	}
}

func (f *filter) insert(key Key) {
	f.add([]byte(key))
}

func (f *filter) mayContain(key Key) bool {
	return f.check([]byte(key))
}
