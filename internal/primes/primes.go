// Copyright © 2014 Lawrence E. Bakst. All rights reserved.

// Package primes is a segmented wheel sieve after plan9/p9p primes.c,
// used to derive the table growth sequence.
package primes

var pt = []int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29,
	31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97, 101, 103, 107, 109, 113,
	127, 131, 137, 139, 149, 151, 157, 163, 167, 173,
	179, 181, 191, 193, 197, 199, 211, 223, 227, 229,
}

// gaps between numbers coprime to 2, 3, 5 and 7
var wheel = []int{
	10, 2, 4, 2, 4, 6, 2, 6, 4, 2,
	4, 6, 6, 2, 6, 4, 2, 6, 4, 6,
	8, 4, 2, 4, 2, 4, 8, 6, 4, 6,
	2, 4, 6, 2, 6, 6, 4, 2, 4, 6,
	2, 6, 4, 2, 4, 2, 10, 2,
}

const (
	tsiz  = 10000
	tsiz8 = tsiz * 8
)

var bittab = [8]byte{1, 2, 4, 8, 16, 32, 64, 128}

// bit i of the segment stands for nn+i
type segment [tsiz]byte

// mark strikes the multiples of k in the segment starting at nn, never k itself.
func (s *segment) mark(nn, k int) {
	j := (k - nn%k) % k
	if nn+j < k*k {
		j = k*k - nn
	}
	for ; j < tsiz8; j += k {
		s[j>>3] |= bittab[j&07]
	}
}

func isqrt(n int) int {
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// Primes calls f with each prime p, nn <= p <= limit, in ascending order
// until f returns false. A limit of 0 means no limit.
func Primes(nn, limit int, f func(p int) bool) {
	if nn < 0 || limit < 0 {
		panic("Primes: negative bound")
	}
	if nn < 230 {
		for _, p := range pt {
			if p < nn {
				continue
			}
			if limit > 0 && p > limit {
				return
			}
			if !f(p) {
				return
			}
		}
		nn = 230
	}
	nn = nn/2*2 + 1

	var s segment
	for {
		s = segment{}

		// run the sieve.
		max := isqrt(nn + tsiz8)
		s.mark(nn, 3)
		s.mark(nn, 5)
		s.mark(nn, 7)
		for i, k := 0, 11; k <= max; k += wheel[i] {
			s.mark(nn, k)
			i++
			if i >= len(wheel) {
				i = 0
			}
		}

		// now get the primes from the segment.
		for i := 0; i < tsiz8; i += 2 {
			if s[i>>3]&bittab[i&07] != 0 {
				continue
			}
			p := nn + i
			if limit > 0 && p > limit {
				return
			}
			if !f(p) {
				return
			}
		}
		nn += tsiz8
	}
}

// NextPrime returns the smallest prime >= n.
func NextPrime(n int) (p int) {
	Primes(n, 0, func(v int) bool {
		p = v
		return false
	})
	return
}

func IsPrime(n int) bool {
	return n > 1 && NextPrime(n) == n
}

// Growth returns n ascending primes. The first is NextPrime(first) and each
// following one is the next prime after double its predecessor.
func Growth(first, n int) []int {
	if n <= 0 {
		return nil
	}
	s := make([]int, 0, n)
	p := NextPrime(first)
	for len(s) < n {
		s = append(s, p)
		p = NextPrime(2 * p)
	}
	return s
}
