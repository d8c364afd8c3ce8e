// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtab

import (
	"fmt"
	"io"
	"sort"

	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"

	"github.com/elfbench/elfstat/runfmt"
)

// A Stat summarizes one metric over a group of runs.
type Stat struct {
	Mean, Min, Max float64
	// StdDev is the sample standard deviation, or 0 for fewer
	// than two runs.
	StdDev float64
}

// A Summary summarizes the runs of one variant of a derived table.
type Summary struct {
	Variant   runfmt.Variant
	Runs      int
	ExtraTime Stat // Seconds.
	Load      Stat
}

// summaryMetrics are the columns summarized by Summarize.
var summaryMetrics = []string{"extra_time_s", "load"}

// Summarize returns one Summary per variant present in t, Pool
// first. t must be derived.
func Summarize(t *Table) ([]Summary, error) {
	if !t.Derived {
		return nil, fmt.Errorf("%s: cannot summarize a table before deriving metrics", t.Name)
	}
	if len(t.Runs) == 0 {
		return nil, nil
	}

	// Aggregation keeps the type of its input columns, so
	// summarize float64 copies of the metrics.
	n := len(t.Runs)
	variants, extra, load := make([]string, n), make([]float64, n), make([]float64, n)
	for i, run := range t.Runs {
		variants[i] = run.Config.Variant.String()
		extra[i] = float64(run.ExtraTimeS)
		load[i] = run.Load
	}
	tab := new(table.Builder).
		Add("variant", variants).
		Add("extra_time_s", extra).
		Add("load", load).
		Done()

	g := ggstat.Agg("variant")(
		ggstat.AggCount("runs"),
		ggstat.AggMean(summaryMetrics...),
		ggstat.AggMin(summaryMetrics...),
		ggstat.AggMax(summaryMetrics...),
		aggStdDev(summaryMetrics...),
	).F(tab)
	agg := g.Table(g.Tables()[0])

	col := func(name string) []float64 {
		return agg.MustColumn(name).([]float64)
	}
	stat := func(metric string, i int) Stat {
		return Stat{
			Mean:   col("mean " + metric)[i],
			Min:    col("min " + metric)[i],
			Max:    col("max " + metric)[i],
			StdDev: col("stddev " + metric)[i],
		}
	}

	var out []Summary
	for i, name := range agg.MustColumn("variant").([]string) {
		v, err := runfmt.ParseVariant(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			Variant:   v,
			Runs:      agg.MustColumn("runs").([]int)[i],
			ExtraTime: stat("extra_time_s", i),
			Load:      stat("load", i),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Variant < out[j].Variant })
	return out, nil
}

// aggStdDev returns an aggregate function that computes the sample
// standard deviation of each of cols, which must be []float64. The
// resulting columns are named "stddev <col>".
func aggStdDev(cols ...string) ggstat.Aggregator {
	return func(input table.Grouping, b *table.Builder) {
		for _, col := range cols {
			sds := make([]float64, 0, len(input.Tables()))
			for _, gid := range input.Tables() {
				xs := input.Table(gid).MustColumn(col).([]float64)
				sd := 0.0
				if len(xs) > 1 {
					sd = stats.StdDev(xs)
				}
				sds = append(sds, sd)
			}
			b.Add("stddev "+col, sds)
		}
	}
}

// FprintSummaries writes sums to w as a text table.
func FprintSummaries(w io.Writer, name string, sums []Summary) error {
	if _, err := fmt.Fprintf(w, "%s\n", name); err != nil {
		return err
	}
	n := len(sums)
	variant, runs := make([]string, n), make([]int, n)
	var extraMean, extraSD, extraMin, extraMax, loadMean, loadMin, loadMax []float64
	for i, s := range sums {
		variant[i], runs[i] = s.Variant.String(), s.Runs
		extraMean = append(extraMean, s.ExtraTime.Mean)
		extraSD = append(extraSD, s.ExtraTime.StdDev)
		extraMin = append(extraMin, s.ExtraTime.Min)
		extraMax = append(extraMax, s.ExtraTime.Max)
		loadMean = append(loadMean, s.Load.Mean)
		loadMin = append(loadMin, s.Load.Min)
		loadMax = append(loadMax, s.Load.Max)
	}
	tab := new(table.Builder).
		Add("variant", variant).
		Add("runs", runs).
		Add("extra mean", extraMean).
		Add("extra stddev", extraSD).
		Add("extra min", extraMin).
		Add("extra max", extraMax).
		Add("load mean", loadMean).
		Add("load min", loadMin).
		Add("load max", loadMax).
		Done()
	return table.Fprint(w, tab, "%s", "%d", "%.2f", "%.2f", "%.0f", "%.0f", "%.3f", "%.3f", "%.3f")
}
