// Copyright © 2014-2017 Lawrence E. Bakst. All rights reserved.

package cuckoohash

import "github.com/willf/bitset"

// Key is a celebrity name, Value a four digit birth year.
type Key string
type Value int

// NotFound is returned by Search when a key is absent.
const NotFound Value = -1

// For historical reasons this is called a Bucket but it holds exactly one element.
type Bucket struct {
	key Key
	val Value
}

func (b Bucket) Key() Key     { return b.key }
func (b Bucket) Value() Value { return b.val }

const (
	primary   = 0
	secondary = 1
)

// tables is the pair of slot arrays. A slot is live iff its bit is set in
// used, so the zero Key ("") is a valid key.
type tables struct {
	tbs  [2][]Bucket
	used [2]*bitset.BitSet
	tc   [2]TableCounters
	size int
}

func newTables(size int) *tables {
	ts := &tables{size: size}
	for t := range ts.tbs {
		ts.tbs[t] = make([]Bucket, size)
		ts.used[t] = bitset.New(uint(size))
		ts.tc[t].Size = size
	}
	return ts
}

func (ts *tables) get(t int, i uint) (Bucket, bool) {
	if !ts.used[t].Test(i) {
		return Bucket{}, false
	}
	return ts.tbs[t][i], true
}

func (ts *tables) put(t int, i uint, b Bucket) {
	ts.tbs[t][i] = b
	ts.used[t].Set(i)
	ts.tc[t].Elements++
}

func (ts *tables) clear(t int, i uint) Bucket {
	b := ts.tbs[t][i]
	ts.tbs[t][i] = Bucket{}
	ts.used[t].Clear(i)
	ts.tc[t].Elements--
	if ts.tc[t].Elements < 0 {
		panic("clear")
	}
	return b
}

// swap stores b at slot i of table t and returns the previous occupant.
// Occupancy is unchanged, one out and one in.
func (ts *tables) swap(t int, i uint, b Bucket) Bucket {
	old := ts.tbs[t][i]
	ts.tbs[t][i] = b
	return old
}

func (ts *tables) elements() int {
	return ts.tc[primary].Elements + ts.tc[secondary].Elements
}

// halfFull reports whether either table has reached half its size.
func (ts *tables) halfFull() bool {
	return 2*ts.tc[primary].Elements >= ts.size || 2*ts.tc[secondary].Elements >= ts.size
}

// each calls f for every live bucket of table t in slot order.
func (ts *tables) each(t int, f func(i uint, b Bucket) (stop bool)) bool {
	for i, ok := ts.used[t].NextSet(0); ok; i, ok = ts.used[t].NextSet(i + 1) {
		if f(i, ts.tbs[t][i]) {
			return true
		}
	}
	return false
}
