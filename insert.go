// Copyright © 2014 Lawrence E. Bakst. All rights reserved.

package cuckoohash

import (
	"math/bits"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A move records one eviction so a failed insert can be rolled back.
type move struct {
	t   int
	i   uint
	old Bucket
}

// undo walks the journal backwards restoring every swapped slot.
func (ts *tables) undo(j []move) {
	for k := len(j) - 1; k >= 0; k-- {
		m := j[k]
		ts.tbs[m.t][m.i] = m.old
	}
}

// digits counts decimal digits by repeated division; 0 and negatives have none.
func digits(v Value) (n int) {
	for ; v > 0; v /= 10 {
		n++
	}
	return
}

// depthCap is ceil(log2(n)), where n is the table size or, with
// DepthElements, the number of records. It is never less than 2 so the home
// slot is always tried.
func (c *Cuckoo) depthCap(size, elements int) int {
	n := size
	if c.DepthCap == DepthElements {
		n = elements
	}
	d := 0
	if n > 1 {
		d = bits.Len(uint(n - 1))
	}
	if d < 2 {
		d = 2
	}
	return d
}

func (c *Cuckoo) pathLen(bumps int) {
	if bumps > c.MaxPathLen {
		c.MaxPathLen = bumps
	}
}

// evict places b in ts starting with table t, ping-ponging displaced records
// between the tables. Every placement attempt is one level deeper; at depth
// limit it gives up and returns the record still in flight. When j is not nil
// every eviction is journaled.
func (c *Cuckoo) evict(ts *tables, b Bucket, t int, limit int, j *[]move) (Bucket, bool) {
	bumps := 0
	for depth := 1; depth < limit; depth++ {
		i := c.h.index(t, b.key, ts.size)
		if !ts.used[t].Test(i) {
			ts.put(t, i, b)
			c.pathLen(bumps)
			return Bucket{}, true
		}
		old := ts.swap(t, i, b)
		if j != nil {
			*j = append(*j, move{t: t, i: i, old: old})
		}
		bumps++
		c.Bumps++
		ts.tc[t].Bumps++
		b = old
		t ^= 1
	}
	c.pathLen(bumps)
	return b, false
}

// Given key, value insert a KV pair. Duplicate keys and values that are not
// four digits are refused. On any error the table is unchanged.
func (c *Cuckoo) Insert(key Key, val Value) error {
	c.Inserts++
	if err := c.insert(key, val); err != nil {
		c.Fails++
		return err
	}
	return nil
}

func (c *Cuckoo) insert(key Key, val Value) error {
	if _, ok := c.find(key); ok {
		return errors.Wrapf(ErrDuplicateKey, "insert %q", key)
	}
	if digits(val) != 4 {
		return errors.Wrapf(ErrInvalidValue, "insert %q: %d", key, val)
	}
	if c.ts.halfFull() {
		if err := c.rehash(); err != nil {
			return errors.Wrapf(err, "insert %q", key)
		}
	}

	var j []move
	limit := c.depthCap(c.ts.size, c.ts.elements())
	if b, ok := c.evict(c.ts, Bucket{key: key, val: val}, primary, limit, &j); !ok {
		if err := c.rehash(b); err != nil {
			c.ts.undo(j)
			return errors.Wrapf(err, "insert %q", key)
		}
	}
	c.Elements = c.ts.elements()
	if c.filter != nil {
		c.filter.insert(key)
	}
	return nil
}

// rehash grows to the next size and migrates every record plus any records
// in flight. If migration itself gets stuck it moves on to the following
// size. The current tables are replaced only on success.
func (c *Cuckoo) rehash(extra ...Bucket) error {
	from := c.ts.size
	n := c.ts.elements() + len(extra)
	for si := c.si + 1; ; si++ {
		if !c.grow || si >= len(c.Sizes) {
			c.log.WithFields(logrus.Fields{"size": from, "elements": n}).Warn("cuckoohash: capacity exhausted")
			return ErrCapacityExhausted
		}
		ts, ok := c.migrate(c.Sizes[si], n, extra)
		if !ok {
			c.log.WithFields(logrus.Fields{"size": c.Sizes[si], "elements": n}).Debug("cuckoohash: migration stuck, growing again")
			continue
		}
		c.Rehashes++
		c.Grows += si - c.si
		c.ts, c.si = ts, si
		c.Elements = ts.elements()
		if c.filter != nil {
			c.rebuildFilter()
		}
		c.log.WithFields(logrus.Fields{"from": from, "to": ts.size, "elements": n}).Debug("cuckoohash: rehash")
		return nil
	}
}

// migrate builds tables of the given size holding every current record and
// extra. Records start in the table they came from, so a record lands at its
// home slot unless that slot is already taken.
func (c *Cuckoo) migrate(size, n int, extra []Bucket) (*tables, bool) {
	ts := newTables(size)
	for t := range ts.tc {
		ts.tc[t].Bumps = c.ts.tc[t].Bumps
	}
	limit := c.depthCap(size, n)
	for t := range c.ts.tbs {
		stuck := c.ts.each(t, func(_ uint, b Bucket) bool {
			_, ok := c.evict(ts, b, t, limit, nil)
			return !ok
		})
		if stuck {
			return nil, false
		}
	}
	for _, b := range extra {
		if _, ok := c.evict(ts, b, primary, limit, nil); !ok {
			return nil, false
		}
	}
	return ts, true
}

func (c *Cuckoo) rebuildFilter() {
	c.filter = newFilter(2 * c.ts.size)
	c.Map(func(key Key, _ Value) bool {
		c.filter.insert(key)
		return false
	})
}
