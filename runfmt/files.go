// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLogName is the name of the run log inside a results
// directory.
const DefaultLogName = "results-and-stderr.txt"

// A Files steps through the run logs of a sequence of inputs.
//
// Each path in Paths is either a run log or a results directory
// containing a run log named LogName. Inputs are independent: a
// failure to open one does not stop the others, so unlike a
// bufio.Scanner, Files reports errors per input.
//
//	f := &runfmt.Files{Paths: paths}
//	defer f.Close()
//	for f.Next() {
//		if err := f.Err(); err != nil {
//			// report and skip this input
//			continue
//		}
//		r := f.Reader()
//		...
//	}
type Files struct {
	// Paths is the list of results directories or log files.
	//
	// If AllowLabels is set, these strings may be of the form
	// label=path, and the label part will be returned by Label.
	Paths []string

	// LogName is the file name looked up inside directories. If
	// empty, DefaultLogName is used.
	LogName string

	// Unit is the elapsed time tag of omega lines.
	Unit TimeUnit

	// AllowStdin indicates that the path "-" should be read from
	// Stdin.
	AllowStdin bool

	// Stdin is the input read for "-". If nil, os.Stdin is used.
	Stdin io.Reader

	// AllowLabels indicates that custom labels are allowed in
	// Paths.
	AllowLabels bool

	// inputs is the sequence of remaining inputs, or nil if this
	// Files has not started yet.
	inputs []input

	cur    input
	reader Reader
	open   bool     // reader is reading cur
	file   *os.File // nil for stdin
	err    error
}

type input struct {
	path      string
	label     string
	isStdin   bool
	isLabeled bool
}

// init does first-use initialization of f.
func (f *Files) init() {
	f.inputs = []input{}

	pathCount := make(map[string]int)
	for _, path := range f.Paths {
		label := path
		isLabeled := false
		if i := strings.Index(path, "="); f.AllowLabels && i >= 0 {
			label, path = path[:i], path[i+1:]
			isLabeled = true
		} else {
			pathCount[path]++
		}

		isStdin := f.AllowStdin && path == "-"
		f.inputs = append(f.inputs, input{path, label, isStdin, isLabeled})
	}

	// Results of the same path given twice would be
	// indistinguishable in the output, so number them.
	pathI := make(map[string]int)
	for i := range f.inputs {
		inp := &f.inputs[i]
		if inp.isLabeled || pathCount[inp.path] == 1 {
			continue
		}
		inp.label = fmt.Sprintf("%s#%d", inp.path, pathI[inp.path])
		pathI[inp.path]++
	}
}

// Next closes the current input, opens the next one, and reports
// whether there was a next input. If the input could not be opened,
// Next still returns true and Err reports the failure.
func (f *Files) Next() bool {
	if f.inputs == nil {
		f.init()
	}
	f.closeFile()
	f.err = nil
	if len(f.inputs) == 0 {
		return false
	}
	f.cur, f.inputs = f.inputs[0], f.inputs[1:]

	if f.cur.isStdin {
		var in io.Reader = os.Stdin
		if f.Stdin != nil {
			in = f.Stdin
		}
		f.open = true
		f.reader.Reset(in, "<stdin>", f.Unit)
		return true
	}
	path, err := f.logPath(f.cur.path)
	if err != nil {
		f.err = err
		return true
	}
	file, err := os.Open(path)
	if err != nil {
		f.err = err
		return true
	}
	f.open, f.file = true, file
	f.reader.Reset(f.file, path, f.Unit)
	return true
}

// logPath resolves a results directory to the run log inside it.
func (f *Files) logPath(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return path, nil
	}
	name := f.LogName
	if name == "" {
		name = DefaultLogName
	}
	return filepath.Join(path, name), nil
}

// Label returns the label of the current input: its path as given,
// or the label part of a label=path argument.
func (f *Files) Label() string {
	return f.cur.label
}

// Reader returns the reader for the current input, or nil if it
// could not be opened.
func (f *Files) Reader() *Reader {
	if !f.open {
		return nil
	}
	return &f.reader
}

// Err returns the error that prevented opening the current input.
func (f *Files) Err() error {
	return f.err
}

// Close closes the current input.
func (f *Files) Close() error {
	return f.closeFile()
}

func (f *Files) closeFile() error {
	f.open = false
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
