// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtab

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/elfbench/elfstat/runfmt"
)

func TestDerive(t *testing.T) {
	tab := mkTable(
		[7]int{pool, 5, 3, 4, 1000, 5, 5},
		[7]int{pool, 10, 20, 2, 1000, 12, 9},
		[7]int{async, 4, 8, 1, 1000, 4, 7},
	)
	before := tab.Clone()
	got, err := Derive(tab)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Derived {
		t.Errorf("result not marked derived")
	}
	type metrics struct {
		Extra int
		Load  float64
	}
	var have []metrics
	for _, run := range got.Runs {
		have = append(have, metrics{run.ExtraTimeS, run.Load})
	}
	want := []metrics{{0, 0.15}, {-3, 1}, {3, 2}}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, tab, cmpTables); diff != "" {
		t.Errorf("Derive modified its input (-before +after):\n%s", diff)
	}

	again, err := Derive(got)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(got, again, cmpTables); diff != "" {
		t.Errorf("second Derive changed the table (-once +twice):\n%s", diff)
	}
}

func TestDeriveErrors(t *testing.T) {
	for _, test := range []struct {
		in   *Table
		want string
	}{
		{mkTable([7]int{pool, 5, 3, 0, 1000, 5, 5}), "test:4: cannot compute load (n_jobs 0)"},
		{mkTable([7]int{pool, 5, 3, 4, 1000, 5, 5}, [7]int{pool, 0, 3, 4, 1000, 5, 5}), "test:8: cannot compute load (in_ms 0)"},
	} {
		_, err := Derive(test.in)
		var ie *InvariantError
		if !errors.As(err, &ie) {
			t.Errorf("want InvariantError, got %v", err)
			continue
		}
		if err.Error() != test.want {
			t.Errorf("want error %q, got %q", test.want, err.Error())
		}
	}
}

func TestProcess(t *testing.T) {
	got, err := Process(newReader(poolAsyncLog), "test")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Corrected || !got.Derived {
		t.Errorf("want corrected and derived table, got corrected=%v derived=%v", got.Corrected, got.Derived)
	}
	async := got.Runs[1]
	if async.Config.Variant != runfmt.Async {
		t.Fatalf("second run: want async, got %v", async.Config.Variant)
	}
	type row struct {
		NJobs, ExpTimeS, ActTimeS, ExtraTimeS int
		Load                                  float64
	}
	have := row{async.Config.NJobs, async.Start.ExpTimeS, async.End.ActTimeS, async.ExtraTimeS, async.Load}
	want := row{4, 5, 6, 1, 0.15}
	if have != want {
		t.Errorf("async run: want %+v, got %+v", want, have)
	}
}

func TestProcessErrors(t *testing.T) {
	for _, test := range []struct {
		name, input string
		check       func(error) bool
	}{
		{
			"empty",
			"Hello, World!\n",
			func(err error) bool { var e *EmptyInputError; return errors.As(err, &e) },
		},
		{
			"async before correction",
			strings.Replace(poolAsyncLog, "--elf async --inms 5 --outms 3 --njobs 1", "--elf async --inms 5 --outms 3 --njobs 3", 1),
			func(err error) bool { var e *InvariantError; return errors.As(err, &e) },
		},
		{
			"malformed",
			"--elf pool --inms 5 --outms 3 --njobs 4 --debug 0 --nblobs 1000\nomega elapsed [s] 6\n",
			func(err error) bool { var e *runfmt.MissingRecordError; return errors.As(err, &e) },
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			tab, err := Process(newReader(test.input), "test")
			if err == nil {
				t.Fatalf("want error, got table with %d runs", len(tab.Runs))
			}
			if !test.check(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
		})
	}
}
