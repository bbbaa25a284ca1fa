// Copyright © 2014 Lawrence E. Bakst. All rights reserved.
package cuckoohash_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	. "leb.io/cuckoohash"
	"leb.io/cuckoohash/internal/primes"
	"pgregory.net/rapid"
)

var celebs = []struct {
	name string
	year Value
}{
	{"Brad Pitt", 1963},
	{"Natalie Portman", 1981},
	{"Johnny Depp", 1963},
	{"Beyonce", 1981},
	{"Tom Brady", 1977},
	{"Betty White", 1922},
}

func newCelebs(t *testing.T, cfg ...Config) *Cuckoo {
	c, err := New(cfg...)
	require.NoError(t, err)
	for _, p := range celebs {
		require.NoError(t, c.Insert(Key(p.name), p.year))
	}
	return c
}

func TestCelebrities(t *testing.T) {
	assert := assert.New(t)
	c := newCelebs(t)

	assert.Equal(6, c.Size())
	assert.Equal(Value(1963), c.Search("Brad Pitt"))
	assert.Equal(Value(1981), c.Search("Beyonce"))
	assert.True(c.Contains("Betty White"))
	assert.False(c.Contains("Brad"))
	assert.Equal(NotFound, c.Search("Keanu Reeves"))
	assert.Equal(c.Size(), c.Nodes1()+c.Nodes2())

	v, ok := c.Remove("Beyonce")
	assert.True(ok)
	assert.Equal(Value(1981), v)
	assert.Equal(NotFound, c.Search("Beyonce"))
	assert.Equal(5, c.Size())

	_, ok = c.Remove("Beyonce")
	assert.False(ok)
	assert.Equal(5, c.Size())
	assert.Equal(Value(1963), c.Search("Johnny Depp"))
}

func TestNewWith(t *testing.T) {
	c, err := NewWith("Anthony Lupica", 2000)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Size())
	assert.Equal(t, Value(2000), c.Search("Anthony Lupica"))

	_, err = NewWith("Anthony Lupica", 200)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestNewBadConfig(t *testing.T) {
	for _, cfg := range []Config{
		{Sizes: []int{}},
		{Sizes: []int{11, 11}},
		{Sizes: []int{23, 11}},
		{Sizes: []int{0, 11}},
	} {
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrBadConfig, "%v", cfg.Sizes)
	}
	_, err := New(Config{}, Config{})
	assert.ErrorIs(t, err, ErrBadConfig)
	_, err = New(Config{HashName: "md5"})
	assert.ErrorIs(t, err, ErrUnknownHash)
}

func TestDuplicateKey(t *testing.T) {
	c := newCelebs(t)
	err := c.Insert("Brad Pitt", 1999)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Contains(t, err.Error(), "Brad Pitt")
	assert.Equal(t, 6, c.Size())
	assert.Equal(t, Value(1963), c.Search("Brad Pitt"), "duplicates never overwrite")
	assert.Equal(t, 1, c.Fails)
}

func TestInvalidValue(t *testing.T) {
	c := newCelebs(t)
	for _, v := range []Value{0, 5, 999, 10000, 99999, -1963, -5} {
		err := c.Insert("Keanu Reeves", v)
		assert.ErrorIs(t, err, ErrInvalidValue, "%d", v)
		assert.Equal(t, 6, c.Size())
		assert.False(t, c.Contains("Keanu Reeves"))
	}
	assert.NoError(t, c.Insert("Keanu Reeves", 1000))
	assert.NoError(t, c.Insert("Keanu Reeves 2", 9999))
}

func TestEmptyKey(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.False(t, c.Contains(""))
	require.NoError(t, c.Insert("", 1900))
	assert.True(t, c.Contains(""))
	assert.Equal(t, Value(1900), c.Search(""))
	assert.ErrorIs(t, c.Insert("", 1901), ErrDuplicateKey)
	v, ok := c.Remove("")
	assert.True(t, ok)
	assert.Equal(t, Value(1900), v)
	assert.False(t, c.Contains(""))
}

func TestSizeCountsInserts(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		require.NoError(t, c.Insert(Key(fmt.Sprintf("person %d", i)), Value(1900+i%100)))
		require.Equal(t, i+1, c.Size())
	}
	assert.Equal(t, 500, c.Elements)
	assert.Equal(t, 500, c.Inserts)
	assert.Equal(t, 0, c.Fails)
}

func randomName(r *rand.Rand) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 4+r.Intn(12))
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	b[0] -= 'a' - 'A'
	return string(b)
}

func TestRoundTripAcrossGrowth(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	c, err := New()
	require.NoError(t, err)
	m := make(map[Key]Value)
	for len(m) < 1500 {
		k := Key(randomName(r) + " " + randomName(r))
		if _, ok := m[k]; ok {
			continue
		}
		v := Value(1000 + r.Intn(9000))
		require.NoError(t, c.Insert(k, v))
		m[k] = v
		assert.Equal(t, v, c.Search(k))
	}
	assert.Greater(t, c.Rehashes, 3, "several growth steps")
	assert.Equal(t, len(m), c.Size())
	for k, v := range m {
		assert.Equal(t, v, c.Search(k), "%q", k)
	}
}

func TestRehashPreservesRecords(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	m := make(map[Key]Value)
	for i := 0; c.Rehashes < 4; i++ {
		before := c.Rehashes
		k := Key(fmt.Sprintf("Actor %d", i))
		require.NoError(t, c.Insert(k, 1950))
		m[k] = 1950
		if c.Rehashes != before {
			for k, v := range m {
				require.Equal(t, v, c.Search(k), "%q after rehash to %d", k, c.Cap())
			}
		}
	}
	assert.Greater(t, c.Cap(), DefaultSizes[0])
	assert.Equal(t, len(m), c.Size())
}

func TestGrowthIsTriggeredAtHalfFull(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	for i := 0; ; i++ {
		if 2*c.Nodes1() >= c.Cap() || 2*c.Nodes2() >= c.Cap() {
			size := c.Cap()
			require.NoError(t, c.Insert(Key(fmt.Sprintf("x%d", i)), 2020))
			assert.Greater(t, c.Cap(), size)
			return
		}
		require.NoError(t, c.Insert(Key(fmt.Sprintf("x%d", i)), 2020))
	}
}

// fill inserts generated keys until an insert fails and returns the keys
// inserted and the error.
func fill(t *testing.T, c *Cuckoo, max int) (map[Key]Value, error) {
	m := make(map[Key]Value)
	for i := 0; i < max; i++ {
		k := Key(fmt.Sprintf("celebrity %d", i))
		v := Value(1000 + i%9000)
		if err := c.Insert(k, v); err != nil {
			return m, err
		}
		m[k] = v
	}
	return m, nil
}

func snapshot(c *Cuckoo) map[Key]Value {
	m := make(map[Key]Value)
	c.Map(func(k Key, v Value) bool {
		m[k] = v
		return false
	})
	return m
}

func TestCapacityExhaustedSmall(t *testing.T) {
	c, err := New(Config{Sizes: []int{11, 23, 47}})
	require.NoError(t, err)
	m, err := fill(t, c, 1000)
	require.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, 47, c.Cap())
	assert.Equal(t, len(m), c.Size())
	assert.Equal(t, m, snapshot(c), "a failed insert leaves the table unchanged")
	assert.Equal(t, 1, c.Fails)
}

func TestCapacityExhaustedDefault(t *testing.T) {
	if testing.Short() {
		t.Skip("fills the largest table")
	}
	c, err := New()
	require.NoError(t, err)
	m, err := fill(t, c, 100000)
	require.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, DefaultSizes[len(DefaultSizes)-1], c.Cap())
	assert.Equal(t, len(m), c.Size())
	assert.Equal(t, m, snapshot(c))
}

func TestNoGrow(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	c.SetGrow(false)
	m, err := fill(t, c, 100)
	require.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, 11, c.Cap())
	assert.Equal(t, m, snapshot(c))
}

func TestDepthElements(t *testing.T) {
	c, err := New(Config{DepthCap: DepthElements})
	require.NoError(t, err)
	m, err := fill(t, c, 300)
	require.NoError(t, err)
	assert.Equal(t, m, snapshot(c))
}

func TestHashFamilies(t *testing.T) {
	for _, hn := range HashNames {
		t.Run(hn, func(t *testing.T) {
			c, err := New(Config{HashName: hn})
			require.NoError(t, err)
			m, err := fill(t, c, 2000)
			require.NoError(t, err)
			for k, v := range m {
				require.Equal(t, v, c.Search(k))
			}
			assert.Equal(t, len(m), c.Size())
		})
	}
}

func TestFilter(t *testing.T) {
	c, err := New(Config{Filter: true})
	require.NoError(t, err)
	m, err := fill(t, c, 1000)
	require.NoError(t, err)
	for k, v := range m {
		require.Equal(t, v, c.Search(k), "no false negatives")
	}
	for i := 0; i < 1000; i++ {
		assert.False(t, c.Contains(Key(fmt.Sprintf("nobody %d", i))))
	}
	_, ok := c.Remove("celebrity 7")
	assert.True(t, ok)
	assert.False(t, c.Contains("celebrity 7"))
	assert.NoError(t, c.Insert("celebrity 7", 1234))
	assert.Equal(t, Value(1234), c.Search("celebrity 7"))
}

func TestMapStops(t *testing.T) {
	c := newCelebs(t)
	n := 0
	c.Map(func(Key, Value) bool {
		n++
		return n == 2
	})
	assert.Equal(t, 2, n)
	assert.Len(t, snapshot(c), 6)
}

func TestCounters(t *testing.T) {
	c := newCelebs(t)
	c.Search("Brad Pitt")
	c.Remove("Tom Brady")
	assert.Equal(t, 6, c.GetCounter("inserts"))
	assert.Equal(t, 5, c.GetCounter("elements"))
	assert.Equal(t, 1, c.GetCounter("deletes"))
	assert.Equal(t, 2*c.Cap(), c.GetCounter("size"))
	assert.Equal(t, c.Cap(), c.GetTableCounter(0, "size"))
	assert.Equal(t, c.Nodes1(), c.GetTableCounter(0, "elements"))
	assert.Equal(t, c.Nodes2(), c.GetTableCounter(1, "elements"))
	assert.Equal(t, c.Nodes1(), c.TableStats()[0].Elements)
	assert.InDelta(t, 5.0/float64(2*c.Cap()), c.LoadFactor(), 1e-9)
	assert.Panics(t, func() { c.GetCounter("nope") })
	assert.Panics(t, func() { c.GetTableCounter(2, "size") })
}

func TestPrint(t *testing.T) {
	c := newCelebs(t)
	var b bytes.Buffer
	c.Print(&b)
	assert.Contains(t, b.String(), `"Betty White" 1922`)
	assert.Equal(t, 6, bytes.Count(b.Bytes(), []byte("\n")))
}

func TestRehashIsLogged(t *testing.T) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	c, err := New(Config{Logger: l, Sizes: []int{11, 23}})
	require.NoError(t, err)
	_, err = fill(t, c, 100)
	require.ErrorIs(t, err, ErrCapacityExhausted)

	var rehash, exhausted bool
	for _, e := range hook.AllEntries() {
		switch e.Message {
		case "cuckoohash: rehash":
			rehash = true
			assert.Equal(t, 11, e.Data["from"])
			assert.Equal(t, 23, e.Data["to"])
		case "cuckoohash: capacity exhausted":
			exhausted = true
			assert.Equal(t, logrus.WarnLevel, e.Level)
		}
	}
	assert.True(t, rehash)
	assert.True(t, exhausted)
}

func TestSetLogger(t *testing.T) {
	l, hook := test.NewNullLogger()
	c, err := New(Config{Sizes: []int{11}})
	require.NoError(t, err)
	c.SetLogger(l)
	_, err = fill(t, c, 100)
	require.ErrorIs(t, err, ErrCapacityExhausted)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "cuckoohash: capacity exhausted", hook.LastEntry().Message)
}

func TestSetLoggerNil(t *testing.T) {
	hook := test.NewGlobal()
	l, _ := test.NewNullLogger()
	c, err := New(Config{Sizes: []int{11}, Logger: l})
	require.NoError(t, err)
	c.SetLogger(nil)
	assert.Nil(t, c.Logger)
	assert.NotPanics(t, func() {
		_, err = fill(t, c, 100)
	})
	require.ErrorIs(t, err, ErrCapacityExhausted)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "cuckoohash: capacity exhausted", hook.LastEntry().Message)
}

func TestLookupsCountCallersOnly(t *testing.T) {
	c := newCelebs(t)
	assert.Equal(t, 0, c.GetCounter("lookups"))
	require.Error(t, c.Insert("Brad Pitt", 1963))
	assert.Equal(t, 0, c.GetCounter("lookups"))
	c.Search("Brad Pitt")
	c.Contains("Keanu Reeves")
	assert.Equal(t, 2, c.GetCounter("lookups"))
}

func TestGrowthSizes(t *testing.T) {
	assert.Equal(t, DefaultSizes[:12], GrowthSizes(11, 12))
	for _, s := range DefaultSizes {
		assert.True(t, primes.IsPrime(s), "%d", s)
	}
	c, err := New(Config{Sizes: GrowthSizes(5, 4)})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Cap())
}

// Property: every inserted record can be found with its value, rejected
// inserts change nothing, and removals only remove their own key.
func TestModelProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c, err := New(Config{
			HashName: rapid.SampledFrom(HashNames).Draw(t, "hash"),
			Filter:   rapid.Bool().Draw(t, "filter"),
		})
		if err != nil {
			t.Fatal(err)
		}
		m := make(map[Key]Value)
		key := rapid.StringMatching(`[A-Z][a-z]{0,6}( [A-Z][a-z]{1,8})?`)
		ops := rapid.IntRange(1, 400).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			k := Key(key.Draw(t, "key"))
			switch rapid.IntRange(0, 9).Draw(t, "op") {
			case 0:
				v, ok := c.Remove(k)
				mv, mok := m[k]
				if ok != mok || (ok && v != mv) {
					t.Fatalf("Remove(%q) = %d, %v; model %d, %v", k, v, ok, mv, mok)
				}
				delete(m, k)
			default:
				v := Value(rapid.IntRange(-100, 12000).Draw(t, "value"))
				err := c.Insert(k, v)
				_, dup := m[k]
				switch {
				case dup:
					if err == nil {
						t.Fatalf("duplicate %q accepted", k)
					}
				case v < 1000 || v > 9999:
					if err == nil {
						t.Fatalf("value %d accepted", v)
					}
				case err != nil:
					t.Fatalf("Insert(%q, %d): %v", k, v, err)
				default:
					m[k] = v
				}
			}
			if c.Size() != len(m) {
				t.Fatalf("Size() = %d, model %d", c.Size(), len(m))
			}
		}
		for k, v := range m {
			if got := c.Search(k); got != v {
				t.Fatalf("Search(%q) = %d, want %d", k, got, v)
			}
		}
	})
}

func BenchmarkCuckooInsert(b *testing.B) {
	keys := make([]Key, b.N)
	for i := range keys {
		keys[i] = Key(fmt.Sprintf("celebrity %d", i%10000))
	}
	b.ResetTimer()
	b.ReportAllocs()
	var c *Cuckoo
	for i := 0; i < b.N; i++ {
		if i%10000 == 0 {
			c, _ = New()
		}
		c.Insert(keys[i], 1963)
	}
}

func BenchmarkCuckooSearch(b *testing.B) {
	c, _ := New()
	for i := 0; i < 10000; i++ {
		c.Insert(Key(fmt.Sprintf("celebrity %d", i)), 1963)
	}
	keys := make([]Key, 10000)
	for i := range keys {
		keys[i] = Key(fmt.Sprintf("celebrity %d", i))
	}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Search(keys[i%len(keys)])
	}
}

func BenchmarkGoMapSearch(b *testing.B) {
	m := make(map[Key]Value)
	keys := make([]Key, 10000)
	for i := range keys {
		keys[i] = Key(fmt.Sprintf("celebrity %d", i))
		m[keys[i]] = 1963
	}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = m[keys[i%len(keys)]]
	}
}
