// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtab turns the runs of a run log into a finished table.
//
// The processing steps are:
//
// 1. Read collects every run of a log into a Table. A log with no
// complete run is an error.
//
// 2. Correct repairs the async strategy's logged job count and
// expected time. It needs the whole table because the repair uses
// the largest job count of any run.
//
// 3. Derive computes each run's extra time and load.
//
// Process performs all three steps. Each step returns a new Table
// and leaves its input untouched. Any error aborts the whole table:
// there is no partial result.
package runtab

import (
	"fmt"
	"strconv"

	"github.com/elfbench/elfstat/runfmt"
)

// A Table is the ordered list of runs read from one log, in
// completion order.
type Table struct {
	// Name identifies the source of the table, typically the
	// results directory or log file.
	Name string

	Runs []*runfmt.Run

	// Corrected and Derived record which processing steps have
	// been applied.
	Corrected bool
	Derived   bool
}

// An EmptyInputError reports a log without a single complete run.
type EmptyInputError struct {
	FileName string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: no completed runs", e.FileName)
}

// An InvariantError reports a table that violates a consistency
// requirement of a processing step. FileName and Line locate the
// offending run, if there is one.
type InvariantError struct {
	Msg      string
	FileName string
	Line     int
	Detail   string
}

func (e *InvariantError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *InvariantError) Error() string {
	msg := e.Msg
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.FileName == "" {
		return msg
	}
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, msg)
}

func invariantError(run *runfmt.Run, msg, detail string) *InvariantError {
	file, line := run.Pos()
	return &InvariantError{msg, file, line, detail}
}

// Read reads every run from r into a new Table named name.
func Read(r *runfmt.Reader, name string) (*Table, error) {
	t := &Table{Name: name}
	for r.Scan() {
		t.Runs = append(t.Runs, r.Run())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if len(t.Runs) == 0 {
		return nil, &EmptyInputError{name}
	}
	return t, nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	t2 := *t
	t2.Runs = make([]*runfmt.Run, len(t.Runs))
	for i, run := range t.Runs {
		t2.Runs[i] = run.Clone()
	}
	return &t2
}

// NJobsMax returns the largest job count of any run in t, regardless
// of variant.
func (t *Table) NJobsMax() int {
	max := 0
	for _, run := range t.Runs {
		if run.Config.NJobs > max {
			max = run.Config.NJobs
		}
	}
	return max
}

// Columns lists the columns of a finished table, in output order.
var Columns = []string{
	"variant",
	"in_ms",
	"out_ms",
	"n_jobs",
	"n_blobs",
	"max_task",
	"max_miss",
	"in_exp_rate",
	"out_exp_rate",
	"exp_time_s",
	"act_time_s",
	"extra_time_s",
	"load",
}

// Record formats run as one cell per column of Columns. Task/miss
// cells are empty if run has no task/miss observation, and derived
// cells are empty unless derived is set.
func Record(run *runfmt.Run, derived bool) []string {
	c, s := &run.Config, &run.Start
	rec := make([]string, 0, len(Columns))
	rec = append(rec,
		c.Variant.String(),
		strconv.Itoa(c.InMs),
		strconv.Itoa(c.OutMs),
		strconv.Itoa(c.NJobs),
		strconv.Itoa(c.NBlobs),
	)
	if tm := run.TaskMiss; tm != nil {
		rec = append(rec, strconv.Itoa(tm.MaxTask), strconv.Itoa(tm.MaxMiss))
	} else {
		rec = append(rec, "", "")
	}
	rec = append(rec,
		strconv.Itoa(s.InExpRate),
		strconv.Itoa(s.OutExpRate),
		strconv.Itoa(s.ExpTimeS),
		strconv.Itoa(run.End.ActTimeS),
	)
	if derived {
		rec = append(rec, strconv.Itoa(run.ExtraTimeS), formatLoad(run.Load))
	} else {
		rec = append(rec, "", "")
	}
	return rec
}

// formatLoad formats x with the smallest number of digits necessary
// to capture its exact value, since the output is mostly consumed by
// other programs.
func formatLoad(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
