// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// A Reader reads runs from a run log.
//
// Its API is modeled on bufio.Scanner. Unlike a scanner, every error
// is fatal: once Scan returns false, Err reports why, and the runs
// read so far should be discarded by callers that need a complete
// log.
type Reader struct {
	s   *bufio.Scanner
	err error

	patterns *PatternSet

	fileName string
	line     int
	skipping bool // in the tail of an overlong line

	// Pending slots of the run being assembled. A slot is nil
	// until its line has been seen.
	config   *Config
	start    *Start
	taskMiss *TaskMiss

	run *Run
}

// A ParseError reports a line that matched a pattern but could not be
// interpreted.
type ParseError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *ParseError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// A MissingRecordError reports an omega line that was not preceded
// by the command line or alpha line of its run.
type MissingRecordError struct {
	FileName string
	Line     int
	Missing  []string // "config", "alpha", or both
}

func (e *MissingRecordError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *MissingRecordError) Error() string {
	return fmt.Sprintf("%s:%d: omega line without preceding %s line", e.FileName, e.Line, strings.Join(e.Missing, " and "))
}

// NewReader constructs a reader for the run log in r. fileName is
// used in error messages; it is purely diagnostic. unit is the tag
// used by omega lines in this log.
func NewReader(r io.Reader, fileName string, unit TimeUnit) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName, unit)
	return reader
}

// Reset resets the reader to begin reading from a new input and drops
// any partially assembled run.
func (r *Reader) Reset(ior io.Reader, fileName string, unit TimeUnit) {
	r.s = bufio.NewScanner(ior)
	r.s.Buffer(nil, MaxLineLen)
	r.s.Split(r.splitLines)
	r.skipping = false
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.err = nil
	if r.patterns == nil || r.patterns.Unit() != unit {
		r.patterns = NewPatternSet(unit)
	}
	r.fileName = fileName
	r.line = 0
	r.config, r.start, r.taskMiss = nil, nil, nil
	r.run = nil
}

// MaxLineLen is the length of the longest line the reader matches
// against the record patterns. Longer lines, such as raw stderr
// dumps, are read as empty lines.
const MaxLineLen = 1 << 20

// splitLines is bufio.ScanLines, except that a line that does not
// fit in MaxLineLen bytes is returned as an empty token once its end
// is reached.
func (r *Reader) splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if r.skipping {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			r.skipping = false
			return i + 1, data[:0], nil
		}
		if atEOF {
			r.skipping = false
			return len(data), data[:0], nil
		}
		return len(data), nil, nil
	}
	advance, token, err = bufio.ScanLines(data, atEOF)
	if advance == 0 && token == nil && err == nil && !atEOF && len(data) >= MaxLineLen {
		r.skipping = true
		return len(data), nil, nil
	}
	return advance, token, err
}

func (r *Reader) newParseError(msg string) *ParseError {
	return &ParseError{r.fileName, r.line, msg}
}

// Scan advances the reader to the next complete run and reports
// whether one was read. The caller should use the Run method to get
// the run. If Scan reaches EOF or an error occurs, it returns false,
// in which case the caller should use the Err method to check for
// errors.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	r.run = nil

	for r.s.Scan() {
		r.line++
		m, msg := r.patterns.Match(r.s.Bytes())
		if msg != "" {
			r.err = r.newParseError(m.Kind.String() + " line: " + msg)
			return false
		}
		switch m.Kind {
		case ConfigLine:
			cfg := m.Config
			r.config = &cfg
			// A new run begins; its task/miss line, if any,
			// is still ahead.
			r.taskMiss = nil
		case StartLine:
			start := m.Start
			r.start = &start
		case TaskMissLine:
			tm := m.TaskMiss
			r.taskMiss = &tm
		case CompletionLine:
			if err := r.complete(m.End); err != nil {
				r.err = err
				return false
			}
			return true
		}
		// Ignore the line.
	}

	// We hit EOF. Any partial run is dropped.
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
	}
	return false
}

// complete emits the pending run, ended by end.
func (r *Reader) complete(end End) error {
	var missing []string
	if r.config == nil {
		missing = append(missing, "config")
	}
	if r.start == nil {
		missing = append(missing, "alpha")
	}
	if missing != nil {
		return &MissingRecordError{r.fileName, r.line, missing}
	}

	run := &Run{
		Config:   *r.config,
		Start:    *r.start,
		TaskMiss: r.taskMiss,
		End:      end,
		fileName: r.fileName,
		line:     r.line,
	}
	r.taskMiss = nil
	r.run = run
	return nil
}

// Run returns the run that was just read by Scan. The Run is owned
// by the caller and is not modified by later calls to Scan.
func (r *Reader) Run() *Run {
	return r.run
}

// Err returns the first error encountered by the Reader, or nil if
// it reached EOF cleanly.
func (r *Reader) Err() error {
	return r.err
}
