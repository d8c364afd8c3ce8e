// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"bytes"
	"fmt"
	"io"
)

// A Writer writes runs in the run log format.
//
// The output carries only the fields the Reader extracts, so reading
// it back yields the same runs. Derived metrics are not written.
type Writer struct {
	w    io.Writer
	buf  bytes.Buffer
	unit TimeUnit
}

// NewWriter returns a writer that writes runs to w, tagging elapsed
// times with unit.
func NewWriter(w io.Writer, unit TimeUnit) *Writer {
	return &Writer{w: w, unit: unit}
}

// Write writes the block of lines for run.
func (w *Writer) Write(run *Run) error {
	c, s := &run.Config, &run.Start
	fmt.Fprintf(&w.buf, "--elf %s --inms %d --outms %d --njobs %d --debug 0 --nblobs %d\n",
		c.Variant, c.InMs, c.OutMs, c.NJobs, c.NBlobs)
	fmt.Fprintf(&w.buf, "alpha: jobs %d, blobs %d, prod %d [ms] -> %d [u/s], cons %d [ms] -> %d [u/s], expected execution time [s] %d\n",
		c.NJobs, c.NBlobs, c.InMs, s.InExpRate, c.OutMs, s.OutExpRate, s.ExpTimeS)
	if tm := run.TaskMiss; tm != nil {
		fmt.Fprintf(&w.buf, "MaxTaskEver %d MaxMissEver %d\n", tm.MaxTask, tm.MaxMiss)
	}
	if w.unit == Millis {
		fmt.Fprintf(&w.buf, "omega: [ms] %d\n", run.End.ActTimeS*1000)
	} else {
		fmt.Fprintf(&w.buf, "omega: elapsed [s] %d\n", run.End.ActTimeS)
	}

	// Write to the buffer can't fail, so we only have to check
	// if this fails.
	_, err := w.w.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}
