// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtab

import (
	"fmt"

	"github.com/elfbench/elfstat/runfmt"
)

// Correct returns a copy of t with the async runs repaired.
//
// The async strategy always logs a single job, but internally it
// runs blobs with full concurrency, and its expected time is
// estimated for a single job. Correct sets the job count of every
// async run to the largest job count in the table and recomputes its
// expected time as
//
//	ExpTimeS = InMs * (NBlobs / 1000)
//
// This formula was found empirically. It is exact only because the
// benchmark runs 1000 blobs, which makes the millisecond-to-second
// conversion an identity. It is applied to every async run whatever
// its blob count.
//
// Before correcting, Correct checks that no async run of t reports
// more than one job; otherwise t is either corrupted or was already
// corrected by something other than Correct. A table returned by
// Correct is marked Corrected and passes through a second Correct
// unchanged.
func Correct(t *Table) (*Table, error) {
	if len(t.Runs) == 0 {
		return nil, &EmptyInputError{t.Name}
	}
	nJobsMax := t.NJobsMax()

	out := t.Clone()
	if !t.Corrected {
		if err := checkAsyncSingleJob(t); err != nil {
			return nil, err
		}
		for _, run := range out.Runs {
			if run.Config.Variant != runfmt.Async {
				continue
			}
			run.Config.NJobs = nJobsMax
			run.Start.ExpTimeS = run.Config.InMs * run.Config.NBlobs / 1000
		}
		out.Corrected = true
		// Anything derived before correction is stale.
		out.Derived = false
	}
	if err := checkAsyncNormalized(out, nJobsMax); err != nil {
		return nil, err
	}
	return out, nil
}

// checkAsyncSingleJob checks that every async run of an uncorrected
// table logged a single job.
func checkAsyncSingleJob(t *Table) error {
	for _, run := range t.Runs {
		if run.Config.Variant == runfmt.Async && run.Config.NJobs > 1 {
			return invariantError(run, "async reported n_jobs>1 before correction",
				fmt.Sprintf("n_jobs %d", run.Config.NJobs))
		}
	}
	return nil
}

// checkAsyncNormalized checks that every async run of a corrected
// table runs nJobsMax jobs.
func checkAsyncNormalized(t *Table, nJobsMax int) error {
	for _, run := range t.Runs {
		if run.Config.Variant == runfmt.Async && run.Config.NJobs != nJobsMax {
			return invariantError(run, "correction failed to normalize n_jobs",
				fmt.Sprintf("n_jobs %d, want %d", run.Config.NJobs, nJobsMax))
		}
	}
	return nil
}
