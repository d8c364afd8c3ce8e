// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import "fmt"

// A TimeUnit is the unit tag of the elapsed time on omega lines.
//
// Revisions of the benchmark disagree on the tag, and nothing in the
// log says which revision wrote it, so the unit has to be chosen by
// the caller for each log.
type TimeUnit int

const (
	// Seconds matches "elapsed [s] <int>". This is the default.
	Seconds TimeUnit = iota
	// Millis matches the earlier "[ms] <int>" format.
	Millis
)

// Tag returns the bracketed tag of u as written in the log.
func (u TimeUnit) Tag() string {
	if u == Millis {
		return "[ms]"
	}
	return "[s]"
}

func (u TimeUnit) String() string {
	if u == Millis {
		return "ms"
	}
	return "s"
}

// ParseTimeUnit parses "s" or "ms", with or without brackets.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch s {
	case "s", "[s]", "":
		return Seconds, nil
	case "ms", "[ms]":
		return Millis, nil
	}
	return 0, fmt.Errorf("unknown time unit %q (want s or ms)", s)
}

// Seconds converts an elapsed time logged in unit u to whole seconds.
func (u TimeUnit) Seconds(v int) int {
	if u == Millis {
		return v / 1000
	}
	return v
}
