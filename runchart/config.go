// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runchart

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/elfbench/elfstat/runtab"
)

// A Chart describes one scatter chart of a run table.
type Chart struct {
	// Name is the base name of the chart's output file.
	Name  string `yaml:"name"`
	Title string `yaml:"title"`

	// X and Y name the plotted columns. Both must be numeric
	// columns of runtab.Columns.
	X string `yaml:"x"`
	Y string `yaml:"y"`

	// By optionally names a column that splits the points into
	// separately colored series.
	By string `yaml:"by"`
}

// A File is a set of charts and the size they are rendered at.
type File struct {
	// Width and Height are in centimeters.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	DPI    int     `yaml:"dpi"`

	Charts []Chart `yaml:"charts"`
}

// DefaultFile returns the chart set used when no chart file is given.
func DefaultFile() *File {
	f := &File{
		Charts: []Chart{
			{
				Name:  "jobs",
				Title: "jobs by expected time",
				X:     "exp_time_s",
				Y:     "n_jobs",
				By:    "variant",
			},
			{
				Name:  "times",
				Title: "actual by expected time",
				X:     "exp_time_s",
				Y:     "act_time_s",
			},
		},
	}
	applyDefaults(f)
	return f
}

func applyDefaults(f *File) {
	if f.Width == 0 {
		f.Width = 16
	}
	if f.Height == 0 {
		f.Height = 12
	}
	if f.DPI == 0 {
		f.DPI = 150
	}
	for i := range f.Charts {
		c := &f.Charts[i]
		if c.Name == "" {
			c.Name = c.Y + "-" + c.X
		}
		if c.Title == "" {
			c.Title = c.Y + " vs " + c.X
		}
	}
}

// ParseFile parses a YAML chart file, applies defaults and checks
// that every chart names known columns.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	applyDefaults(&f)
	if len(f.Charts) == 0 {
		return nil, fmt.Errorf("no charts defined")
	}
	for _, c := range f.Charts {
		if err := c.check(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// LoadChartFile reads and parses the chart file at path.
func LoadChartFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// nonNumeric lists the columns that cannot be used as an axis.
var nonNumeric = map[string]bool{
	"variant":  true,
	"max_task": true,
	"max_miss": true,
}

func (c Chart) check() error {
	for _, axis := range []string{c.X, c.Y} {
		if !isColumn(axis) {
			return fmt.Errorf("chart %s: unknown column %q", c.Name, axis)
		}
		if nonNumeric[axis] {
			return fmt.Errorf("chart %s: column %q is not numeric", c.Name, axis)
		}
	}
	if c.By != "" && !isColumn(c.By) {
		return fmt.Errorf("chart %s: unknown column %q", c.Name, c.By)
	}
	return nil
}

func isColumn(name string) bool {
	for _, col := range runtab.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// needsDerived reports whether c plots a derived column.
func (c Chart) needsDerived() bool {
	for _, col := range []string{c.X, c.Y, c.By} {
		if col == "extra_time_s" || col == "load" {
			return true
		}
	}
	return false
}
