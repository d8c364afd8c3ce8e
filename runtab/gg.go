// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtab

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aclements/go-gg/table"
)

// GG converts t to a go-gg table with one column per entry of
// Columns. The variant column is a []string, load is a []float64,
// and the task/miss columns are []string so that a missing
// observation can be told apart from zero ("-"). Every other column
// is an []int. Derived columns are omitted unless t is derived.
func (t *Table) GG() *table.Table {
	n := len(t.Runs)
	variant := make([]string, n)
	inMs, outMs := make([]int, n), make([]int, n)
	nJobs, nBlobs := make([]int, n), make([]int, n)
	maxTask, maxMiss := make([]string, n), make([]string, n)
	inRate, outRate := make([]int, n), make([]int, n)
	expTime, actTime := make([]int, n), make([]int, n)
	extraTime, load := make([]int, n), make([]float64, n)
	for i, run := range t.Runs {
		c, s := &run.Config, &run.Start
		variant[i] = c.Variant.String()
		inMs[i], outMs[i], nJobs[i], nBlobs[i] = c.InMs, c.OutMs, c.NJobs, c.NBlobs
		maxTask[i], maxMiss[i] = "-", "-"
		if tm := run.TaskMiss; tm != nil {
			maxTask[i], maxMiss[i] = strconv.Itoa(tm.MaxTask), strconv.Itoa(tm.MaxMiss)
		}
		inRate[i], outRate[i], expTime[i], actTime[i] = s.InExpRate, s.OutExpRate, s.ExpTimeS, run.End.ActTimeS
		extraTime[i], load[i] = run.ExtraTimeS, run.Load
	}

	b := new(table.Builder).
		Add("variant", variant).
		Add("in_ms", inMs).
		Add("out_ms", outMs).
		Add("n_jobs", nJobs).
		Add("n_blobs", nBlobs).
		Add("max_task", maxTask).
		Add("max_miss", maxMiss).
		Add("in_exp_rate", inRate).
		Add("out_exp_rate", outRate).
		Add("exp_time_s", expTime).
		Add("act_time_s", actTime)
	if t.Derived {
		b.Add("extra_time_s", extraTime).Add("load", load)
	}
	return b.Done()
}

// Fprint writes t to w as an aligned text table.
func (t *Table) Fprint(w io.Writer) error {
	if len(t.Runs) == 0 {
		_, err := fmt.Fprintf(w, "%s: no runs\n", t.Name)
		return err
	}
	return table.Fprint(w, t.GG())
}
