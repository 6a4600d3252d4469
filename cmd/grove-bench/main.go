// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// grove-bench drives insert, OLTP, OLAP and range workloads against the
// grove index (in-memory and file-backed stores) and a Pebble baseline,
// writing per-operation latency and heap figures to CSV and a latency
// comparison chart to PNG.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

func main() {
	scale := flag.Int("n", 100000, "keys per suite")
	order := flag.Int("order", 64, "tree order")
	pageSize := flag.Int("pagesize", 4096, "on-disk page size")
	csvPath := flag.String("csv", "bench_results.csv", "CSV output path")
	plotPath := flag.String("plot", "bench_latency.png", "latency chart output path (empty = skip)")
	flag.Parse()

	out, err := os.Create(*csvPath)
	if err != nil {
		fatal(err)
	}
	defer out.Close()
	w := csv.NewWriter(out)
	w.Write([]string{"Structure", "Config", "TestType", "LatencyNs", "MemMB", "HeapObjects"})

	workDir, err := os.MkdirTemp("", "grove-bench-*")
	if err != nil {
		fatal(err)
	}
	defer os.RemoveAll(workDir)

	var results []benchResult
	for _, suite := range []struct {
		name string
		open func() (engine, error)
	}{
		{"grove-mem", func() (engine, error) {
			return openGroveMem(*pageSize, *order)
		}},
		{"grove-file", func() (engine, error) {
			return openGroveFile(filepath.Join(workDir, "grove.db"), *pageSize, *order)
		}},
		{"pebble", func() (engine, error) {
			return openPebble(filepath.Join(workDir, "pebble"))
		}},
	} {
		fmt.Printf("Testing %s (n=%d)\n", suite.name, *scale)
		e, err := suite.open()
		if err != nil {
			fatal(fmt.Errorf("%s: %w", suite.name, err))
		}
		suiteResults, err := runSuite(w, suite.name, strconv.Itoa(*order), e, *scale)
		if cerr := e.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fatal(fmt.Errorf("%s: %w", suite.name, err))
		}
		results = append(results, suiteResults...)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fatal(err)
	}

	if *plotPath != "" {
		if err := renderLatencyPlot(results, *plotPath); err != nil {
			fatal(fmt.Errorf("plot: %w", err))
		}
	}
	fmt.Println("Benchmark complete.")
}

func runSuite(w *csv.Writer, name, conf string, e engine, n int) (results []benchResult, err error) {
	emit := func(res benchResult) {
		record(w, res)
		results = append(results, res)
	}

	// Pure insert, the initial load.
	start := time.Now()
	for k := range n {
		if err = e.Insert(uint64(k), []byte("v")); err != nil {
			return
		}
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(n)

	// Heap footprint right after load, before the mixed workloads.
	stats := sampleMem()
	emit(benchResult{
		Name:      name,
		Config:    conf,
		Operation: "Insert",
		LatencyNs: insertLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})

	for _, phase := range []struct {
		op   string
		kind workloadType
		ops  int
	}{
		{"Workload_OLTP", oltp, n / 2},
		{"Workload_OLAP", olap, n / 2},
		{"Workload_Range", reporting, 100},
	} {
		start = time.Now()
		if err = executeWorkload(e, phase.kind, phase.ops); err != nil {
			return
		}
		emit(benchResult{
			Name:      name,
			Config:    conf,
			Operation: phase.op,
			LatencyNs: time.Since(start).Nanoseconds() / int64(phase.ops),
			MemMB:     sampleMem().AllocMB,
		})
	}
	return
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
