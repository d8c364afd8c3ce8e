// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestFiles(t *testing.T) {
	type got struct {
		label string
		runs  int
		err   bool
	}
	f := &Files{
		Paths: []string{
			"testdata/results-a",
			"testdata/results-a",
			"b=testdata/results-b/custom.log",
			"testdata/missing",
			"testdata/results-b",
		},
		AllowLabels: true,
	}
	defer f.Close()
	var gots []got
	for f.Next() {
		g := got{label: f.Label()}
		if err := f.Err(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("%s: unexpected error %v", f.Label(), err)
			}
			g.err = true
			gots = append(gots, g)
			continue
		}
		r := f.Reader()
		for r.Scan() {
			g.runs++
		}
		if err := r.Err(); err != nil {
			t.Errorf("%s: %v", f.Label(), err)
		}
		gots = append(gots, g)
	}

	want := []got{
		{"testdata/results-a#0", 1, false},
		{"testdata/results-a#1", 1, false},
		{"b", 1, false},
		{"testdata/missing", 0, true},
		// results-b has no log under the default name.
		{"testdata/results-b", 0, true},
	}
	if len(gots) != len(want) {
		t.Fatalf("got %d inputs %+v, want %d", len(gots), gots, len(want))
	}
	for i := range want {
		if gots[i] != want[i] {
			t.Errorf("input %d: got %+v, want %+v", i, gots[i], want[i])
		}
	}
}

func TestFilesLogName(t *testing.T) {
	f := &Files{Paths: []string{"testdata/results-b"}, LogName: "custom.log"}
	defer f.Close()
	if !f.Next() {
		t.Fatal("no input")
	}
	if err := f.Err(); err != nil {
		t.Fatal(err)
	}
	r := f.Reader()
	if !r.Scan() {
		t.Fatalf("no run: %v", r.Err())
	}
	file, _ := r.Run().Pos()
	if want := filepath.Join("testdata", "results-b", "custom.log"); file != want {
		t.Errorf("run from %s, want %s", file, want)
	}
	if r.Run().Config.Variant != Async {
		t.Errorf("variant = %v, want async", r.Run().Config.Variant)
	}
	if f.Next() {
		t.Error("unexpected second input")
	}
}

func TestFilesStdin(t *testing.T) {
	const log = `--elf async --inms 5 --outms 3 --njobs 1 --debug 0 --nblobs 1000
alpha: prod 5 [ms] -> 200 [u/s], cons 3 [ms] -> 333 [u/s], expected execution time [s] 7
omega: elapsed [s] 6
`
	f := &Files{
		Paths:      []string{"-", "testdata/results-a"},
		AllowStdin: true,
		Stdin:      strings.NewReader(log),
	}
	defer f.Close()
	var labels []string
	for f.Next() {
		if err := f.Err(); err != nil {
			t.Fatalf("%s: %v", f.Label(), err)
		}
		labels = append(labels, f.Label())
		r := f.Reader()
		if !r.Scan() {
			t.Fatalf("%s: no run: %v", f.Label(), r.Err())
		}
		if f.Label() == "-" {
			if file, _ := r.Run().Pos(); file != "<stdin>" {
				t.Errorf("stdin run from %s", file)
			}
		}
	}
	if got, want := strings.Join(labels, " "), "- testdata/results-a"; got != want {
		t.Errorf("labels %q, want %q", got, want)
	}

	// Without AllowStdin, "-" is an ordinary path.
	f = &Files{Paths: []string{"-"}, Stdin: strings.NewReader(log)}
	defer f.Close()
	if !f.Next() {
		t.Fatal("no input")
	}
	if err := f.Err(); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("want not-exist error for \"-\", got %v", err)
	}
	if f.Reader() != nil {
		t.Errorf("Reader of an unopened input is not nil")
	}
}
