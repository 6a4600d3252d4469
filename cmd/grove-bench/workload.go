// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package main

import "math/rand/v2"

type workloadType string

const (
	oltp      workloadType = "OLTP (90/10)"
	olap      workloadType = "OLAP (10/90)"
	reporting workloadType = "Reporting (Range)"
)

const rangeWidth = 100

// executeWorkload runs a mixed distribution of ops against the engine.
// OLTP is read heavy, OLAP is write heavy, Reporting scans fixed-width
// key ranges.
func executeWorkload(e engine, kind workloadType, ops int) error {
	for range ops {
		choice := rand.IntN(100)
		key := uint64(rand.IntN(ops))

		var err error
		switch kind {
		case oltp:
			if choice < 90 {
				_, err = e.Get(key)
			} else {
				err = e.Insert(key, []byte("x"))
			}
		case olap:
			if choice < 10 {
				_, err = e.Get(key)
			} else {
				err = e.Insert(key, []byte("x"))
			}
		case reporting:
			_, err = e.Range(key, key+rangeWidth)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
