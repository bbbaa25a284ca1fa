// Copyright © 2014 Lawrence E. Bakst. All rights reserved.

// This program provides a test interface to the cuckoo hash of birth years.
// Each trial creates the table, fills it with generated celebrity names,
// verifies they are in the table, deletes them, and verifies they are gone.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
	"leb.io/cuckoohash"
	"leb.io/cuckoohash/internal/dstest"
	"leb.io/cuckoohash/internal/siginfo"
	"leb.io/hrff"
)

var ranb = flag.Bool("rb", false, "ignore base, use random base value")
var seedb = flag.Int64("sb", 0, "seed for base values")

var n = flag.Int("n", 1000, "records per trial")
var ntrials = flag.Int("nt", 5, "number of trials")
var ibase = flag.Int("base", 0, "base of fill series")
var hash = flag.String("h", "poly", "name of hash function {poly, m3, city, aes}")
var first = flag.Int("p", 0, "first table size, 0 for the default sequence")
var nsizes = flag.Int("np", 13, "number of table sizes when -p is set")
var dce = flag.Bool("dce", false, "cap eviction depth by log2(elements) instead of log2(size)")
var bf = flag.Bool("f", false, "bloom filter in front of lookups")
var fo = flag.Bool("fo", false, "fill only")

var pt = flag.Bool("pt", false, "print summary for each trial")
var pr = flag.Bool("pr", false, "print progress")
var verbose = flag.Bool("v", false, "verbose, also logs rehashes")

var cp = flag.String("cp", "", "write cpu profile to file")
var mp = flag.String("mp", "", "write memory profile to this file")

var labels = []string{"init", "fill", "verify", "delete"}

func config() cuckoohash.Config {
	cfg := cuckoohash.Config{HashName: *hash, Filter: *bf}
	if *first > 0 {
		cfg.Sizes = cuckoohash.GrowthSizes(*first, *nsizes)
	}
	if *dce {
		cfg.DepthCap = cuckoohash.DepthElements
	}
	if *verbose {
		l := logrus.New()
		l.SetLevel(logrus.DebugLevel)
		cfg.Logger = l
	}
	return cfg
}

func statAdd(tot, add *cuckoohash.Counters) {
	tot.Inserts += add.Inserts
	tot.Fails += add.Fails
	tot.Lookups += add.Lookups
	tot.Deletes += add.Deletes
	tot.Bumps += add.Bumps
	tot.Rehashes += add.Rehashes
	tot.Grows += add.Grows
	if add.MaxPathLen > tot.MaxPathLen {
		tot.MaxPathLen = add.MaxPathLen
	}
}

func trial(t int, cfg cuckoohash.Config, seed int64, tot *cuckoohash.Counters) (failed bool) {
	var durations = make([]time.Duration, len(labels))
	var print = func(i, used int) {
		if *verbose {
			f2 := hrff.Float64{V: float64(used) * (float64(time.Second) / float64(durations[i])), U: "ops/sec"}
			fmt.Printf("    %s: %v %h\n", labels[i], durations[i], f2)
		}
	}

	start := time.Now()
	c, err := cuckoohash.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	d := dstest.NewTester(c, seed)
	d.Progress = *pr
	durations[0] = time.Since(start)
	print(0, 1)

	start = time.Now()
	fs := d.Fill(*ibase, *n, *ranb)
	durations[1] = time.Since(start)
	print(1, fs.Used)

	if *pt || *verbose {
		sz := hrff.Int64{V: int64(2 * c.Cap()), U: "slots"}
		fmt.Printf("trial=%d: used=%d, failed=%v, remaining=%d, size=%h, lf=%0.2f, nodes=%d/%d, rehashes=%d, bumps=%d, MaxPathLen=%d\n",
			t, fs.Used, fs.Failed, fs.Remaining, sz, c.LoadFactor(), c.Nodes1(), c.Nodes2(), c.Rehashes, c.Bumps, c.MaxPathLen)
	}
	if !*fo {
		start = time.Now()
		if err := d.Verify(fs.Base, fs.Used); err != nil {
			fmt.Printf("trial=%d: %v\n", t, err)
			failed = true
		}
		durations[2] = time.Since(start)
		print(2, fs.Used)

		start = time.Now()
		if err := d.Delete(fs.Base, fs.Used); err != nil || c.Size() != 0 {
			fmt.Printf("trial=%d: delete failed err=%v, size=%d\n", t, err, c.Size())
			failed = true
		}
		durations[3] = time.Since(start)
		print(3, fs.Used)
	}
	statAdd(tot, &c.Counters)
	return failed || fs.Failed
}

func runTrials() {
	var tot cuckoohash.Counters
	stop := siginfo.SetHandler(func() { *pt = !*pt })
	defer stop()

	cfg := config()
	fails := 0
	seed := *seedb
	for t := 0; t < *ntrials; t++ {
		if trial(t, cfg, seed, &tot) {
			fails++
		}
		seed++
	}
	bpi := float64(tot.Bumps) / float64(tot.Inserts)
	fmt.Printf("trials: n=%d, trials=%d, hash=%s, fails=%d, rehashes=%d, grows=%d, bpi=%0.2f, MaxPathLen=%d\n",
		*n, *ntrials, *hash, fails, tot.Rehashes, tot.Grows, bpi, tot.MaxPathLen)
}

func main() {
	flag.Parse()
	if *cp != "" {
		f, err := os.Create(*cp)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}
	runTrials()
	if *mp != "" {
		f, err := os.Create(*mp)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
