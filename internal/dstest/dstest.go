// Copyright © 2014-2017 Lawrence E. Bakst. All rights reserved.

// small step towards creating a package that can test data structures
package dstest

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	c "leb.io/cuckoohash"
)

// basic data structures methods and a method to get stats
type DSTester interface {
	Insert(key c.Key, value c.Value) error
	Lookup(key c.Key) (v c.Value, ok bool)
	Delete(key c.Key) (c.Value, bool)
	GetCounter(stat string) int
}

// return information about what happened during a fill
type FillStats struct {
	Load      float64
	Base      int
	Used      int // records inserted
	Remaining int // records not attempted after a failure
	Dups      int
	Invalid   int
	Failed    bool // stopped on ErrCapacityExhausted
}

type DSTest struct {
	Seed      int64 // seed used to control the base and the name stream
	FillStats       // stats of the last fill
	I         DSTester
	R         *rand.Rand // random number generator with no lock
	Progress  bool       // print a % every 1% of work
}

func NewTester(i DSTester, seed int64) *DSTest {
	return &DSTest{Seed: seed, I: i, R: rand.New(rand.NewSource(seed))}
}

var first = []string{
	"Brad", "Natalie", "Johnny", "Tom", "Betty", "Meryl", "Denzel", "Cate",
	"Keanu", "Viola", "Morgan", "Emma", "Sidney", "Audrey", "Idris", "Greta",
}

var last = []string{
	"Pitt", "Portman", "Depp", "Brady", "White", "Streep", "Washington", "Blanchett",
	"Reeves", "Davis", "Freeman", "Stone", "Poitier", "Hepburn", "Elba", "Gerwig",
}

// Name returns the i'th generated celebrity name. Names are distinct for
// distinct i.
func Name(i int) c.Key {
	n := len(first) * len(last)
	return c.Key(fmt.Sprintf("%s %s %d", first[i%len(first)], last[(i/len(first))%len(last)], i/n))
}

// Year returns the four digit value stored under Name(i).
func Year(i int) c.Value {
	return c.Value(1000 + (i*7919)%9000)
}

func (d *DSTest) rbetween(a int, b int) int {
	return a + d.R.Intn(b-a+1)
}

func progress(on bool, cnt, onep int, thresh *int) {
	if on && cnt >= *thresh {
		fmt.Printf("%%")
		*thresh += onep
	}
}

// Fill inserts Name(i), Year(i) for i in [base, base+n). A random base is
// chosen when r is set. Duplicate and invalid rejections are counted; a
// capacity failure stops the fill.
func (d *DSTest) Fill(base, n int, r bool) *FillStats {
	var fs FillStats
	if r {
		base = d.rbetween(0, 1<<20)
	}
	fs.Base = base
	onep := n/100 + 1
	thresh := onep
	if d.Progress {
		fmt.Printf("F: ")
	}
	for i := base; i < base+n; i++ {
		err := d.I.Insert(Name(i), Year(i))
		switch {
		case err == nil:
			fs.Used++
		case errors.Is(err, c.ErrDuplicateKey):
			fs.Dups++
		case errors.Is(err, c.ErrInvalidValue):
			fs.Invalid++
		default:
			fs.Failed = true
			fs.Remaining = base + n - i
		}
		if fs.Failed {
			break
		}
		progress(d.Progress, i-base+1, onep, &thresh)
	}
	if d.Progress {
		fmt.Printf("\n")
	}
	if size := d.I.GetCounter("size"); size > 0 {
		fs.Load = float64(d.I.GetCounter("elements")) / float64(size)
	}
	d.FillStats = fs
	return &fs
}

// Verify looks up a sequence of generated names and checks their years.
func (d *DSTest) Verify(base, n int) error {
	onep := n/100 + 1
	thresh := onep
	if d.Progress {
		fmt.Printf("V: ")
	}
	for i := base; i < base+n; i++ {
		v, ok := d.I.Lookup(Name(i))
		if !ok {
			return errors.Errorf("verify: lookup failed i=%d, key=%q", i, Name(i))
		}
		if v != Year(i) {
			return errors.Errorf("verify: i=%d, key=%q, got %d want %d", i, Name(i), v, Year(i))
		}
		progress(d.Progress, i-base+1, onep, &thresh)
	}
	if d.Progress {
		fmt.Printf("\n")
	}
	return nil
}

// Delete removes a sequence of generated names, each of which must be present.
func (d *DSTest) Delete(base, n int) error {
	onep := n/100 + 1
	thresh := onep
	if d.Progress {
		fmt.Printf("D: ")
	}
	for i := base; i < base+n; i++ {
		v, ok := d.I.Delete(Name(i))
		if !ok {
			return errors.Errorf("delete: missing i=%d, key=%q", i, Name(i))
		}
		if v != Year(i) {
			return errors.Errorf("delete: i=%d, key=%q, got %d want %d", i, Name(i), v, Year(i))
		}
		progress(d.Progress, i-base+1, onep, &thresh)
	}
	if d.Progress {
		fmt.Printf("\n")
	}
	return nil
}
