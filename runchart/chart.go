// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runchart draws scatter charts of run tables.
package runchart

import (
	"fmt"
	"image/color"
	"io"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/elfbench/elfstat/runtab"
)

const pointRad = 3

// palette colors the series of a chart, in order of first appearance.
var palette = []color.Color{
	blue(0xff),
	red(0xff),
	green(0xff),
	purple(0xff),
	color.Black,
}

func red(alpha uint8) color.Color {
	return color.NRGBA{0xE0, 0, 0, alpha}
}
func green(alpha uint8) color.Color {
	return color.NRGBA{0, 0xA0, 0, alpha}
}
func blue(alpha uint8) color.Color {
	return color.NRGBA{0, 0, 0xFF, alpha}
}
func purple(alpha uint8) color.Color {
	return color.NRGBA{0x99, 0, 0xFF, alpha}
}

// glyphs shape the series of a chart, so that series stay apart in
// grayscale.
var glyphs = []draw.GlyphDrawer{
	draw.CircleGlyph{},
	draw.TriangleGlyph{},
	draw.SquareGlyph{},
	draw.CrossGlyph{},
	draw.PlusGlyph{},
}

// Plot builds chart c of the runs in t.
func Plot(t *runtab.Table, c Chart) (*plot.Plot, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if c.needsDerived() && !t.Derived {
		return nil, fmt.Errorf("chart %s of %s: derived columns requested from an underived table", c.Name, t.Name)
	}
	if len(t.Runs) == 0 {
		return nil, fmt.Errorf("chart %s of %s: no runs", c.Name, t.Name)
	}

	var g table.Grouping = t.GG()
	if c.By != "" {
		g = table.GroupBy(g, c.By)
	}

	pl := plot.New()
	pl.Title.Text = c.Title
	pl.X.Label.Text = c.X
	pl.Y.Label.Text = c.Y
	pl.Legend.Top = true
	pl.Add(plotter.NewGrid())

	for i, gid := range g.Tables() {
		tab := g.Table(gid)
		var xs, ys []float64
		slice.Convert(&xs, tab.MustColumn(c.X))
		slice.Convert(&ys, tab.MustColumn(c.Y))
		pts := make(plotter.XYs, len(xs))
		for j := range xs {
			pts[j].X, pts[j].Y = xs[j], ys[j]
		}

		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("chart %s of %s: %w", c.Name, t.Name, err)
		}
		s.GlyphStyle.Color = palette[i%len(palette)]
		s.GlyphStyle.Shape = glyphs[i%len(glyphs)]
		s.GlyphStyle.Radius = vg.Points(pointRad)
		pl.Add(s)
		if c.By != "" {
			pl.Legend.Add(fmt.Sprint(gid.Label()), s)
		}
	}
	return pl, nil
}

// WritePNG renders pl to w as a PNG image of f's size.
func (f *File) WritePNG(w io.Writer, pl *plot.Plot) error {
	can := vgimg.NewWith(
		vgimg.UseWH(vg.Length(f.Width)*vg.Centimeter, vg.Length(f.Height)*vg.Centimeter),
		vgimg.UseDPI(f.DPI),
		vgimg.UseBackgroundColor(color.White))
	pl.Draw(draw.New(can))
	_, err := vgimg.PngCanvas{Canvas: can}.WriteTo(w)
	return err
}

// Render draws every chart of f for t. For each chart it calls create
// with the chart's file name, writes a PNG to the result and closes
// it.
func (f *File) Render(t *runtab.Table, create func(name string) (io.WriteCloser, error)) error {
	for _, c := range f.Charts {
		pl, err := Plot(t, c)
		if err != nil {
			return err
		}
		w, err := create(c.Name + ".png")
		if err != nil {
			return err
		}
		err = f.WritePNG(w, pl)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("chart %s of %s: %w", c.Name, t.Name, err)
		}
	}
	return nil
}
