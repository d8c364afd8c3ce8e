// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import "testing"

func TestPatternSet(t *testing.T) {
	p := NewPatternSet(Seconds)
	for _, test := range []struct {
		line string
		want LineKind
	}{
		{"--elf pool --inms 1 --outms 2 --njobs 3 --debug 0 --nblobs 4", ConfigLine},
		{"prefix --elf async --inms 1 --outms 2 --njobs 3 --debug 1 --nblobs 4 suffix", ConfigLine},
		{"--elf pool --inms 1 --outms 2 --njobs 3 --debug 10 --nblobs 4", NoMatch},
		{"alpha: -> 1 -> 2 [s] 3", StartLine},
		{"alpha: -> 1 [u/s] -> 2 [u/s] time [ms] 3", NoMatch},
		{"MaxTaskEver 1 MaxMissEver 2", TaskMissLine},
		{"MaxMissEver 2 MaxTaskEver 1", NoMatch},
		{"omega: elapsed [s] 5, [ms] prod 1 act", CompletionLine},
		{"omega: [ms] 5000", NoMatch},
		// Config wins over everything else on the same line.
		{"--elf pool --inms 1 --outms 2 --njobs 3 --debug 0 --nblobs 4 omega elapsed [s] 1", ConfigLine},
		// The alpha pattern precedes omega.
		{"alpha -> 1 -> 2 [s] 3 omega elapsed [s] 4", StartLine},
		{"", NoMatch},
	} {
		got, msg := p.Match([]byte(test.line))
		if msg != "" {
			t.Errorf("%q: unexpected error %s", test.line, msg)
		}
		if got.Kind != test.want {
			t.Errorf("%q: got %v, want %v", test.line, got.Kind, test.want)
		}
	}
}

func TestPatternSetCaptures(t *testing.T) {
	p := NewPatternSet(Millis)
	m, _ := p.Match([]byte("--elf Async --inms 5 --outms 3 --njobs 1 --debug 0 --nblobs 1000"))
	if want := (Config{Async, 5, 3, 1, 1000}); m.Config != want {
		t.Errorf("config = %+v, want %+v", m.Config, want)
	}
	m, _ = p.Match([]byte("alpha ... -> 100 ... -> 50 ... [s] 7"))
	if want := (Start{100, 50, 7}); m.Start != want {
		t.Errorf("start = %+v, want %+v", m.Start, want)
	}
	m, _ = p.Match([]byte("MaxTaskEver 12 and MaxMissEver 3"))
	if want := (TaskMiss{12, 3}); m.TaskMiss != want {
		t.Errorf("task/miss = %+v, want %+v", m.TaskMiss, want)
	}
	m, _ = p.Match([]byte("omega: [ms] 6500"))
	if want := (End{6}); m.Kind != CompletionLine || m.End != want {
		t.Errorf("end = %v %+v, want %+v", m.Kind, m.End, want)
	}
}

func TestParseVariant(t *testing.T) {
	for _, test := range []struct {
		in   string
		want Variant
	}{
		{"pool", Pool},
		{"async", Async},
		{"POOL", Pool},
		{"Async", Async},
	} {
		v, err := ParseVariant(test.in)
		if err != nil || v != test.want {
			t.Errorf("ParseVariant(%q) = %v, %v; want %v", test.in, v, err, test.want)
		}
	}
	for _, s := range []string{"", "cv", "pools"} {
		if _, err := ParseVariant(s); err == nil {
			t.Errorf("ParseVariant(%q) succeeded, want error", s)
		}
	}
}

func TestTimeUnit(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    TimeUnit
		seconds int
	}{
		{"s", Seconds, 6500},
		{"[s]", Seconds, 6500},
		{"ms", Millis, 6},
		{"[ms]", Millis, 6},
	} {
		u, err := ParseTimeUnit(test.in)
		if err != nil || u != test.want {
			t.Errorf("ParseTimeUnit(%q) = %v, %v; want %v", test.in, u, err, test.want)
			continue
		}
		if got := u.Seconds(6500); got != test.seconds {
			t.Errorf("%v.Seconds(6500) = %d, want %d", u, got, test.seconds)
		}
	}
	if _, err := ParseTimeUnit("us"); err == nil {
		t.Error("ParseTimeUnit(us) succeeded")
	}
}
