// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtab

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/elfbench/elfstat/runfmt"
)

// poolAsyncLog is one pool run followed by one async run of the same
// workload.
const poolAsyncLog = `./blob-pool --elf pool --inms 5 --outms 3 --njobs 4 --debug 0 --nblobs 1000
[info] alpha: jobs 4, blobs 1000, prod 5 [ms] -> 200 [u/s], cons 3 [ms] -> 1332 [u/s], expected execution time [s] 5
[info] th consume end with 1000, MaxTaskEver 2 MaxMissEver 0
[info] omega: elapsed [s] 5, [ms] prod 1000 act / 1000 exp, cons 1000 act / 6664 exp
./blob-async --elf async --inms 5 --outms 3 --njobs 1 --debug 0 --nblobs 1000
[info] alpha: jobs 1, blobs 1000, prod 5 [ms] -> 200 [u/s], cons 3 [ms] -> 333 [u/s], expected execution time [s] 7
[info] omega: elapsed [s] 6, [ms] prod 1000 act / 1200 exp, cons 1000 act / 2000 exp
`

func newReader(data string) *runfmt.Reader {
	return runfmt.NewReader(strings.NewReader(data), "test", runfmt.Seconds)
}

func mustRead(t *testing.T, data string) *Table {
	t.Helper()
	tab, err := Read(newReader(data), "test")
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

// mkTable builds a table directly from runs. Each run is given as
// variant, in_ms, out_ms, n_jobs, n_blobs, exp_time_s, act_time_s.
func mkTable(runs ...[7]int) *Table {
	tab := &Table{Name: "test"}
	for i, r := range runs {
		run := &runfmt.Run{
			Config: runfmt.Config{
				Variant: runfmt.Variant(r[0]),
				InMs:    r[1],
				OutMs:   r[2],
				NJobs:   r[3],
				NBlobs:  r[4],
			},
			Start: runfmt.Start{ExpTimeS: r[5]},
			End:   runfmt.End{ActTimeS: r[6]},
		}
		run.SetPos("test", 4*i+4)
		tab.Runs = append(tab.Runs, run)
	}
	return tab
}

var (
	pool  = int(runfmt.Pool)
	async = int(runfmt.Async)
)

func TestRead(t *testing.T) {
	tab := mustRead(t, poolAsyncLog)
	if len(tab.Runs) != 2 {
		t.Fatalf("want 2 runs, got %d", len(tab.Runs))
	}
	if tab.Corrected || tab.Derived {
		t.Errorf("fresh table marked corrected=%v derived=%v", tab.Corrected, tab.Derived)
	}
	if got := tab.Runs[0].Config.Variant; got != runfmt.Pool {
		t.Errorf("first run variant: want pool, got %v", got)
	}
	if tab.Runs[1].TaskMiss != nil {
		t.Errorf("async run has task/miss %+v, want none", *tab.Runs[1].TaskMiss)
	}
	if got := tab.NJobsMax(); got != 4 {
		t.Errorf("NJobsMax: want 4, got %d", got)
	}
}

func TestReadEmpty(t *testing.T) {
	for _, input := range []string{
		"",
		"Hello, World!\n",
		// A started run without a completion line.
		"--elf pool --inms 5 --outms 3 --njobs 4 --debug 0 --nblobs 1000\n" +
			"alpha -> 200 -> 1332 [s] 5\n",
	} {
		_, err := Read(newReader(input), "empty")
		var ee *EmptyInputError
		if !errors.As(err, &ee) {
			t.Errorf("input %q: want EmptyInputError, got %v", input, err)
			continue
		}
		if ee.FileName != "empty" {
			t.Errorf("input %q: want file name %q, got %q", input, "empty", ee.FileName)
		}
	}
}

func TestReadParseError(t *testing.T) {
	_, err := Read(newReader("omega elapsed [s] 6\n"), "bad")
	var me *runfmt.MissingRecordError
	if !errors.As(err, &me) {
		t.Fatalf("want MissingRecordError, got %v", err)
	}
}

func TestClone(t *testing.T) {
	tab := mustRead(t, poolAsyncLog)
	c := tab.Clone()
	c.Runs[0].Config.NJobs = 99
	c.Runs[0].TaskMiss.MaxTask = 99
	if tab.Runs[0].Config.NJobs == 99 || tab.Runs[0].TaskMiss.MaxTask == 99 {
		t.Errorf("modifying clone modified original")
	}
}

func TestWriteCSV(t *testing.T) {
	tab, err := Process(newReader(poolAsyncLog), "test")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := tab.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	want := `variant,in_ms,out_ms,n_jobs,n_blobs,max_task,max_miss,in_exp_rate,out_exp_rate,exp_time_s,act_time_s,extra_time_s,load
pool,5,3,4,1000,2,0,200,1332,5,5,0,0.15
async,5,3,4,1000,,,200,333,5,6,1,0.15
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVUnderived(t *testing.T) {
	tab := mustRead(t, poolAsyncLog)
	var buf bytes.Buffer
	if err := tab.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	if want := "async,5,3,1,1000,,,200,333,7,6,,"; lines[2] != want {
		t.Errorf("want %q, got %q", want, lines[2])
	}
}

func TestFprint(t *testing.T) {
	tab, err := Process(newReader(poolAsyncLog), "test")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := tab.Fprint(&buf); err != nil {
		t.Fatal(err)
	}
	want := `variant  in_ms  out_ms  n_jobs  n_blobs  max_task  max_miss  in_exp_rate  out_exp_rate  exp_time_s  act_time_s  extra_time_s  load
pool         5       3       4     1000  2         0                 200          1332           5           5             0  0.15
async        5       3       4     1000  -         -                 200           333           5           6             1  0.15
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestFprintEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&Table{Name: "nothing"}).Fprint(&buf); err != nil {
		t.Fatal(err)
	}
	if want := "nothing: no runs\n"; buf.String() != want {
		t.Errorf("want %q, got %q", want, buf.String())
	}
}
