// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runfmt reads and writes the run log emitted by the blob
// engine benchmark.
//
// A run log is free-form text. Each benchmark run contributes a block
// of lines, in this order:
//
//	... --elf async --inms 5 --outms 3 --njobs 1 --debug 0 --nblobs 1000
//	... alpha: jobs 1, blobs 1000, prod 5 [ms] -> 200 [u/s], cons 3 [ms] -> 333 [u/s], expected execution time [s] 7
//	... MaxTaskEver 12 MaxMissEver 3
//	... omega: elapsed [s] 6, [ms] prod 1000 act / 1200 exp, cons 1000 act / 2000 exp
//
// The MaxTaskEver line is optional. There is no explicit delimiter
// between blocks: the omega line completes a run. All other lines are
// ignored.
package runfmt

import (
	"fmt"
	"strings"
)

// A Variant is the execution strategy a run was benchmarked with.
type Variant int

const (
	// Pool runs blobs on a fixed pool of NJobs workers.
	Pool Variant = 1 + iota
	// Async launches one asynchronous task per blob. It reports a
	// single job in the log but internally fans out to full
	// concurrency.
	Async
)

// String returns the name of v as it appears in the log.
func (v Variant) String() string {
	switch v {
	case Pool:
		return "pool"
	case Async:
		return "async"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant returns the Variant named s. Only "pool" and "async"
// are recognized, ignoring case.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "pool":
		return Pool, nil
	case "async":
		return Async, nil
	}
	return 0, fmt.Errorf("unknown execution strategy %q", s)
}

// Config is the configuration of a run, from its command line.
type Config struct {
	Variant Variant
	InMs    int // Production period of one blob, in milliseconds.
	OutMs   int // Consumption time of one blob, in milliseconds.
	NJobs   int
	NBlobs  int
}

// Start is the observation logged by the alpha line when a run begins.
type Start struct {
	InExpRate  int // Expected production rate, in blobs per second.
	OutExpRate int // Expected consumption rate, in blobs per second.
	ExpTimeS   int // Expected duration, in seconds.
}

// TaskMiss is the optional queue high-water mark logged by a run.
type TaskMiss struct {
	MaxTask int
	MaxMiss int
}

// End is the observation logged by the omega line when a run finishes.
type End struct {
	// ActTimeS is the measured duration in seconds, regardless of
	// the unit used in the log.
	ActTimeS int
}

// A Run is a single benchmark run assembled from its block of log
// lines, plus the metrics derived from it.
type Run struct {
	Config Config
	Start  Start
	// TaskMiss is nil if the run did not log a MaxTaskEver line.
	TaskMiss *TaskMiss
	End      End

	// ExtraTimeS and Load are zero until derived. See package runtab.
	ExtraTimeS int
	Load       float64

	fileName string
	line     int
}

// Pos returns the file name and 1-based line number of the omega line
// that completed r, or "", 0 if r was not read from a file.
func (r *Run) Pos() (fileName string, line int) {
	return r.fileName, r.line
}

// SetPos sets the position reported by Pos.
func (r *Run) SetPos(fileName string, line int) {
	r.fileName, r.line = fileName, line
}

// Clone makes a copy of r that shares no state with r.
func (r *Run) Clone() *Run {
	r2 := *r
	if r.TaskMiss != nil {
		tm := *r.TaskMiss
		r2.TaskMiss = &tm
	}
	return &r2
}
