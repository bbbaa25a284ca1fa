// Copyright © 2014 Lawrence E. Bakst. All rights reserved.

// Primes prints the primes between its arguments, or with -g the table
// growth sequence starting at the first argument.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"leb.io/cuckoohash"
	"leb.io/cuckoohash/internal/primes"
)

var growth = flag.Bool("g", false, "print the table growth sequence instead")
var count = flag.Int("n", 13, "length of the growth sequence")

func arg(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		log.Fatalf("primes: bad number %q", s)
	}
	return v
}

func main() {
	flag.Parse()
	numbers := flag.Args()
	if *growth {
		var sizes []int
		if len(numbers) == 0 {
			sizes = cuckoohash.DefaultSizes
		} else {
			sizes = cuckoohash.GrowthSizes(arg(numbers[0]), *count)
		}
		for _, p := range sizes {
			fmt.Println(p)
		}
		return
	}
	if len(numbers) == 0 {
		log.Fatal("usage: primes [-g] [-n count] start [limit]")
	}
	nn, limit := arg(numbers[0]), 0
	if len(numbers) > 1 {
		limit = arg(numbers[1])
		if limit < nn {
			log.Fatalf("primes: limit %d < start %d", limit, nn)
		}
	}
	primes.Primes(nn, limit, func(p int) bool {
		fmt.Println(p)
		return true
	})
}
