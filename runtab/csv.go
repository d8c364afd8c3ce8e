// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtab

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes t to out as CSV: a header row of Columns, then one
// row per run.
func (t *Table) WriteCSV(out io.Writer) error {
	tab := make([][]string, 0, 1+len(t.Runs))
	tab = append(tab, Columns)
	for _, run := range t.Runs {
		tab = append(tab, Record(run, t.Derived))
	}
	csvw := csv.NewWriter(out)
	// WriteAll flushes and reports any write error.
	return csvw.WriteAll(tab)
}
