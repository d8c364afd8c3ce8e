// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtab

import (
	"fmt"

	"github.com/elfbench/elfstat/runfmt"
)

// Derive returns a copy of t with the extra time and load of every
// run computed:
//
//	ExtraTimeS = ActTimeS - ExpTimeS
//	Load       = (OutMs / NJobs) / InMs
//
// ExtraTimeS is negative for a run that finished early. Both values
// depend only on fields Derive does not change, so deriving twice
// gives the same table.
func Derive(t *Table) (*Table, error) {
	out := t.Clone()
	for _, run := range out.Runs {
		if err := derive(run); err != nil {
			return nil, err
		}
	}
	out.Derived = true
	return out, nil
}

func derive(run *runfmt.Run) error {
	c := &run.Config
	if c.NJobs < 1 {
		return invariantError(run, "cannot compute load", fmt.Sprintf("n_jobs %d", c.NJobs))
	}
	if c.InMs < 1 {
		return invariantError(run, "cannot compute load", fmt.Sprintf("in_ms %d", c.InMs))
	}
	run.ExtraTimeS = run.End.ActTimeS - run.Start.ExpTimeS
	run.Load = float64(c.OutMs) / float64(c.NJobs) / float64(c.InMs)
	return nil
}

// Process reads every run from r and returns the corrected, derived
// table named name.
func Process(r *runfmt.Reader, name string) (*Table, error) {
	t, err := Read(r, name)
	if err != nil {
		return nil, err
	}
	if t, err = Correct(t); err != nil {
		return nil, err
	}
	return Derive(t)
}
