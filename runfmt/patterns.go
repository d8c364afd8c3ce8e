// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"regexp"
	"strconv"
)

// A LineKind identifies which pattern, if any, a log line matched.
type LineKind int

const (
	NoMatch LineKind = iota
	ConfigLine
	StartLine
	TaskMissLine
	CompletionLine
)

func (k LineKind) String() string {
	switch k {
	case ConfigLine:
		return "config"
	case StartLine:
		return "alpha"
	case TaskMissLine:
		return "task/miss"
	case CompletionLine:
		return "omega"
	}
	return "none"
}

// A Match is the result of matching one line against a pattern set.
// Only the field selected by Kind is meaningful.
type Match struct {
	Kind     LineKind
	Config   Config
	Start    Start
	TaskMiss TaskMiss
	End      End
}

// A matcher tries one pattern against line. It returns a Match with
// Kind NoMatch if the line does not match. A non-empty message
// means the line matched but its captures could not be converted.
type matcher func(line []byte) (Match, string)

var (
	configRE   = regexp.MustCompile(`--elf (\w+) --inms (\d+) --outms (\d+) --njobs (\d+) --debug \d --nblobs (\d+)`)
	startRE    = regexp.MustCompile(`alpha.*-> (\d+).*-> (\d+).*\[s\] (\d+)`)
	taskMissRE = regexp.MustCompile(`MaxTaskEver (\d+).*MaxMissEver (\d+)`)
)

// omegaRE returns the completion pattern for unit u.
func omegaRE(u TimeUnit) *regexp.Regexp {
	if u == Millis {
		return regexp.MustCompile(`omega.*\[ms\] (\d+)`)
	}
	return regexp.MustCompile(`omega.*elapsed \[s\] (\d+)`)
}

// A PatternSet is the ordered list of line patterns of a run log.
// Patterns are tried in order and the first match wins.
type PatternSet struct {
	unit     TimeUnit
	matchers []matcher
}

// NewPatternSet returns the pattern set for logs whose omega lines
// report elapsed time in unit.
func NewPatternSet(unit TimeUnit) *PatternSet {
	omega := omegaRE(unit)
	return &PatternSet{
		unit: unit,
		matchers: []matcher{
			matchConfig,
			matchStart,
			matchTaskMiss,
			func(line []byte) (Match, string) {
				return matchEnd(omega, unit, line)
			},
		},
	}
}

// Unit returns the completion time unit of p.
func (p *PatternSet) Unit() TimeUnit {
	return p.unit
}

// Match matches line against each pattern of p in order.
func (p *PatternSet) Match(line []byte) (Match, string) {
	for _, m := range p.matchers {
		if res, msg := m(line); res.Kind != NoMatch || msg != "" {
			return res, msg
		}
	}
	return Match{}, ""
}

func matchConfig(line []byte) (Match, string) {
	sub := configRE.FindSubmatch(line)
	if sub == nil {
		return Match{}, ""
	}
	v, err := ParseVariant(string(sub[1]))
	if err != nil {
		return Match{Kind: ConfigLine}, err.Error()
	}
	var ints [4]int
	if msg := atois(ints[:], sub[2:]); msg != "" {
		return Match{Kind: ConfigLine}, msg
	}
	cfg := Config{Variant: v, InMs: ints[0], OutMs: ints[1], NJobs: ints[2], NBlobs: ints[3]}
	return Match{Kind: ConfigLine, Config: cfg}, ""
}

func matchStart(line []byte) (Match, string) {
	sub := startRE.FindSubmatch(line)
	if sub == nil {
		return Match{}, ""
	}
	var ints [3]int
	if msg := atois(ints[:], sub[1:]); msg != "" {
		return Match{Kind: StartLine}, msg
	}
	return Match{Kind: StartLine, Start: Start{ints[0], ints[1], ints[2]}}, ""
}

func matchTaskMiss(line []byte) (Match, string) {
	sub := taskMissRE.FindSubmatch(line)
	if sub == nil {
		return Match{}, ""
	}
	var ints [2]int
	if msg := atois(ints[:], sub[1:]); msg != "" {
		return Match{Kind: TaskMissLine}, msg
	}
	return Match{Kind: TaskMissLine, TaskMiss: TaskMiss{ints[0], ints[1]}}, ""
}

func matchEnd(re *regexp.Regexp, unit TimeUnit, line []byte) (Match, string) {
	sub := re.FindSubmatch(line)
	if sub == nil {
		return Match{}, ""
	}
	var ints [1]int
	if msg := atois(ints[:], sub[1:]); msg != "" {
		return Match{Kind: CompletionLine}, msg
	}
	return Match{Kind: CompletionLine, End: End{unit.Seconds(ints[0])}}, ""
}

// atois converts each capture in fields to dst. It returns a message
// describing the first capture that is not a valid int.
func atois(dst []int, fields [][]byte) string {
	for i, f := range fields {
		v, err := strconv.Atoi(string(f))
		if err != nil {
			return "parsing " + strconv.Quote(string(f)) + ": " + err.(*strconv.NumError).Err.Error()
		}
		dst[i] = v
	}
	return ""
}
