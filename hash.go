// Copyright © 2014 Lawrence E. Bakst. All rights reserved.

package cuckoohash

import (
	"github.com/alecthomas/binary"
	"github.com/dataence/cityhash"
	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"
	"leb.io/aeshash"
)

const (
	poly = iota
	m3
	city
	aes
)

// HashNames lists the names accepted by Config.HashName.
var HashNames = []string{"poly", "m3", "city", "aes"}

func setHash(hashName string) (int, error) {
	switch hashName {
	case "", "poly":
		return poly, nil
	case "m3":
		return m3, nil
	case "city":
		return city, nil
	case "aes":
		return aes, nil
	default:
		return -1, errors.Wrapf(ErrUnknownHash, "%q", hashName)
	}
}

// h1 is the primary table hash. The multiplier starts at 29 and grows by the
// position of each byte.
func h1(key Key, size int) uint {
	var total uint64
	mult := uint64(29)
	for i := 0; i < len(key); i++ {
		total += uint64(key[i]) * mult
		mult += uint64(i)
	}
	return uint(total % uint64(size))
}

// h2 is the secondary table hash, a base 31 polynomial over byte+position.
func h2(key Key, size int) uint {
	var total uint64
	for i := 0; i < len(key); i++ {
		total = total*31 + uint64(key[i]) + uint64(i)
	}
	return uint(total % uint64(size))
}

// Simple struct and a couple of methods that satisfy the io.Writer interface.
// Used to serialize the key for the seeded hash functions.
type buf struct {
	b []byte
}

func (b *buf) Reset() {
	b.b = b.b[:0]
}

func (b *buf) Write(p []byte) (n int, err error) {
	b.b = append(b.b, p...)
	return len(p), nil
}

// hasher computes home slots. The poly family needs nothing else; the seeded
// families serialize the key and use seed t+1 for table t.
type hasher struct {
	hashno  int
	seeds   [2]uint64
	buf     *buf
	encoder *binary.Encoder
	hfb     func(data []byte, seed uint64) uint64
}

func newHasher(hashName string) (*hasher, error) {
	hn, err := setHash(hashName)
	if err != nil {
		return nil, err
	}
	h := &hasher{hashno: hn, seeds: [2]uint64{1, 2}}
	switch hn {
	case m3:
		h.hfb = func(data []byte, seed uint64) uint64 {
			return murmur3.Sum64WithSeed(data, uint32(seed))
		}
	case city:
		h.hfb = func(data []byte, seed uint64) uint64 {
			return cityhash.CityHash64WithSeed(data, uint32(len(data)), seed)
		}
	case aes:
		h.hfb = aeshash.Hash
	}
	if h.hfb != nil {
		h.buf = &buf{b: make([]byte, 0, 64)}
		h.encoder = binary.NewEncoder(h.buf)
	}
	return h, nil
}

// index returns the home slot of key in table t for tables of the given size.
func (h *hasher) index(t int, key Key, size int) uint {
	if h.hfb == nil {
		if t == primary {
			return h1(key, size)
		}
		return h2(key, size)
	}
	h.buf.Reset()
	if err := h.encoder.Encode(&key); err != nil {
		panic("index: binary.Encode")
	}
	return uint(h.hfb(h.buf.b, h.seeds[t]) % uint64(size))
}
