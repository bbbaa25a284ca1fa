// Copyright © 2014 Lawrence E. Bakst. All rights reserved.

// Package cuckoohash implements a two table cuckoo hash of celebrity names to
// birth years. Each key lives either at its H1 slot in the primary table or at
// its H2 slot in the secondary table. An insert that finds its slot taken
// evicts the occupant into the other table, which may evict again, until the
// chain depth reaches ceil(log2(table size)). Hitting the cap, or either
// table reaching half full, grows both tables to the next size in
// Config.Sizes and rehashes every record. A Cuckoo is not safe for
// concurrent use.
package cuckoohash

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"leb.io/cuckoohash/internal/primes"
)

var (
	ErrDuplicateKey      = errors.New("cuckoohash: duplicate key")
	ErrInvalidValue      = errors.New("cuckoohash: value is not four digits")
	ErrCapacityExhausted = errors.New("cuckoohash: no larger table size")
	ErrUnknownHash       = errors.New("cuckoohash: unknown hash function")
	ErrBadConfig         = errors.New("cuckoohash: bad config")
)

// DefaultSizes is the growth sequence, each entry roughly double the last.
var DefaultSizes = []int{11, 23, 47, 97, 197, 397, 797, 1597, 3203, 6421, 12853, 25717, 51481}

// GrowthSizes returns n table sizes starting at the prime nearest above first,
// each the next prime after double its predecessor.
func GrowthSizes(first, n int) []int {
	return primes.Growth(first, n)
}

// DepthCap selects what the eviction depth cap is the log2 of.
type DepthCap int

const (
	DepthSize     DepthCap = iota // log2 of the table size
	DepthElements                 // log2 of the number of stored records
)

// Configuration info for the cuckoo hash is collected in this structure.
// All fields are exported/public.
type Config struct {
	Sizes    []int              // ascending table sizes, nil means DefaultSizes
	HashName string             // "poly" (default), "m3", "city" or "aes"
	DepthCap DepthCap           // eviction depth cap rule
	Filter   bool               // keep a bloom filter of inserted keys in front of lookups
	Logger   logrus.FieldLogger // nil means logrus.StandardLogger()
}

// Counters. All public but there is also an API to access them.
type Counters struct {
	Elements   int // number of elements currently residing in the data structure
	Inserts    int // number of times insert has been called
	Fails      int // number of rejected inserts
	Lookups    int // number of lookups
	Deletes    int // number of times delete has been called
	Bumps      int // number of evicted buckets
	Rehashes   int // number of rehashes
	Grows      int // number of size steps taken, a rehash can take several
	MaxPathLen int // longest chain of bumps
}

// Per table stats.
type TableCounters struct {
	Size     int // slots in this table
	Elements int // number of elements currently residing in this table
	Bumps    int // number of buckets evicted from this table
}

// The main data structure for the cuckoo hash.
// Most fields are private but the config and counters are public.
type Cuckoo struct {
	Config
	Counters
	ts     *tables
	si     int // index of the current size in Sizes
	h      *hasher
	filter *filter
	log    logrus.FieldLogger
	grow   bool
}

// New creates an empty cuckoo hash. At most one Config may be passed.
func New(cfg ...Config) (*Cuckoo, error) {
	c := &Cuckoo{grow: true}
	if len(cfg) > 1 {
		return nil, errors.Wrap(ErrBadConfig, "more than one config")
	}
	if len(cfg) == 1 {
		c.Config = cfg[0]
	}
	if c.Sizes == nil {
		c.Sizes = DefaultSizes
	}
	if err := checkSizes(c.Sizes); err != nil {
		return nil, err
	}
	h, err := newHasher(c.HashName)
	if err != nil {
		return nil, err
	}
	c.h = h
	c.log = c.Logger
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	c.ts = newTables(c.Sizes[0])
	if c.Filter {
		c.filter = newFilter(2 * c.Sizes[0])
	}
	return c, nil
}

// NewWith creates a cuckoo hash holding one initial record.
func NewWith(key Key, val Value, cfg ...Config) (*Cuckoo, error) {
	c, err := New(cfg...)
	if err != nil {
		return nil, err
	}
	if err := c.Insert(key, val); err != nil {
		return nil, err
	}
	return c, nil
}

func checkSizes(sizes []int) error {
	if len(sizes) == 0 {
		return errors.Wrap(ErrBadConfig, "no sizes")
	}
	for i, s := range sizes {
		if s < 1 {
			return errors.Wrapf(ErrBadConfig, "size[%d]=%d", i, s)
		}
		if i > 0 && s <= sizes[i-1] {
			return errors.Wrapf(ErrBadConfig, "sizes not ascending at %d", i)
		}
	}
	return nil
}

// Set if the table may grow. With grow off an insert that needs a rehash
// fails with ErrCapacityExhausted.
func (c *Cuckoo) SetGrow(b bool) {
	c.grow = b
}

// SetLogger replaces the logger; nil means logrus.StandardLogger().
func (c *Cuckoo) SetLogger(l logrus.FieldLogger) {
	c.Logger, c.log = l, l
	if l == nil {
		c.log = logrus.StandardLogger()
	}
}

// Given key return the value and a "ok" bool indicating success or failure.
func (c *Cuckoo) Lookup(key Key) (Value, bool) {
	c.Lookups++
	if c.filter != nil && !c.filter.mayContain(key) {
		return NotFound, false
	}
	if b, ok := c.find(key); ok {
		return b.val, true
	}
	return NotFound, false
}

// find probes both home slots of key. It touches no counters.
func (c *Cuckoo) find(key Key) (Bucket, bool) {
	for t := range c.ts.tbs {
		if b, ok := c.ts.get(t, c.h.index(t, key, c.ts.size)); ok && b.key == key {
			return b, true
		}
	}
	return Bucket{}, false
}

// Search returns the value stored under key or NotFound.
func (c *Cuckoo) Search(key Key) Value {
	v, _ := c.Lookup(key)
	return v
}

func (c *Cuckoo) Contains(key Key) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Given key remove the bucket. Return the value found and a bool "ok" indicating success.
func (c *Cuckoo) Remove(key Key) (Value, bool) {
	c.Deletes++
	for t := range c.ts.tbs {
		i := c.h.index(t, key, c.ts.size)
		if b, ok := c.ts.get(t, i); ok && b.key == key {
			c.ts.clear(t, i)
			c.Elements--
			return b.val, true
		}
	}
	return NotFound, false
}

// Delete is Remove under the name the Container interface uses.
func (c *Cuckoo) Delete(key Key) (Value, bool) {
	return c.Remove(key)
}

// Size returns the number of records in both tables.
func (c *Cuckoo) Size() int {
	return c.ts.elements()
}

func (c *Cuckoo) Len() int {
	return c.Size()
}

// Cap returns the current number of slots in each table.
func (c *Cuckoo) Cap() int {
	return c.ts.size
}

// Nodes1 and Nodes2 return the occupancy of the primary and secondary table.
func (c *Cuckoo) Nodes1() int { return c.ts.tc[primary].Elements }
func (c *Cuckoo) Nodes2() int { return c.ts.tc[secondary].Elements }

// Get the current load factor over both tables.
func (c *Cuckoo) LoadFactor() float64 {
	return float64(c.ts.elements()) / float64(2*c.ts.size)
}

// Map calls iter for every record, primary table first, until iter returns true.
func (c *Cuckoo) Map(iter func(key Key, val Value) (stop bool)) {
	for t := range c.ts.tbs {
		stop := c.ts.each(t, func(_ uint, b Bucket) bool {
			return iter(b.key, b.val)
		})
		if stop {
			return
		}
	}
}

// TableStats returns a copy of the per table counters.
func (c *Cuckoo) TableStats() []TableCounters {
	return []TableCounters{c.ts.tc[primary], c.ts.tc[secondary]}
}

// Get the value of some of the counters.
func (c *Cuckoo) GetCounter(s string) int {
	switch s {
	case "bumps":
		return c.Bumps
	case "inserts":
		return c.Inserts
	case "fails":
		return c.Fails
	case "lookups":
		return c.Lookups
	case "deletes":
		return c.Deletes
	case "elements":
		return c.Elements
	case "rehashes":
		return c.Rehashes
	case "grows":
		return c.Grows
	case "size":
		return 2 * c.ts.size
	case "MaxPathLen":
		return c.MaxPathLen
	default:
		panic("GetCounter")
	}
}

// Get the value of some of the table counters.
func (c *Cuckoo) GetTableCounter(t int, s string) int {
	if t < 0 || t >= len(c.ts.tc) {
		panic("GetTableCounter")
	}
	switch s {
	case "size":
		return c.ts.tc[t].Size
	case "elements":
		return c.ts.tc[t].Elements
	case "bumps":
		return c.ts.tc[t].Bumps
	default:
		panic("GetTableCounter")
	}
}

// Print writes each occupied slot, one per line.
func (c *Cuckoo) Print(w io.Writer) {
	for t := range c.ts.tbs {
		c.ts.each(t, func(i uint, b Bucket) bool {
			fmt.Fprintf(w, "[%d][%d]: %q %d\n", t, i, b.key, b.val)
			return false
		})
	}
}
