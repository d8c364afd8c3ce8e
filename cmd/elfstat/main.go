// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Elfstat reads the run logs of blob benchmark results directories
// and reports one finished table per directory.
//
// Usage:
//
//	elfstat [flags] results-dir... | run-log... | -
//
// Each argument is either a results directory, in which case the run
// log is read from the file named by -log inside it, or a run log
// itself. The argument "-" reads a run log from standard input. An
// argument of the form label=path names its table label.
//
// Every run of a log is parsed, async runs have their job count and
// expected time corrected against the largest job count of the log,
// and each run's extra time (actual minus expected seconds) and load
// ((out_ms / n_jobs) / in_ms) are computed.
//
// By default elfstat prints each table as aligned text on standard
// output. -csv adds a CSV rendering and -summary per-variant
// statistics. With -out or -gcs, the enabled renderings and a set of
// PNG scatter charts are instead written as artifacts named
// <label>/table.txt, <label>/table.csv, <label>/summary.txt and
// <label>/<chart>.png, where <label> is the last element of the
// table label, numbered if an earlier table used it. The charts are
// those of the YAML file given by -charts, for example
//
//	width: 16   # cm
//	height: 12
//	dpi: 150
//	charts:
//	  - name: jobs
//	    x: exp_time_s
//	    y: n_jobs
//	    by: variant
//
// With -db, every finished table is also stored in a SQL database
// (sqlite3 or mysql; a mysql DSN may use the cloudsql network).
//
// A directory that fails to parse or violates a table invariant is
// reported and skipped, and none of its output is kept. Elfstat
// exits with status 1 if any directory failed.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/elfbench/elfstat/internal/sink"
	"github.com/elfbench/elfstat/runchart"
	"github.com/elfbench/elfstat/runfmt"
	"github.com/elfbench/elfstat/runstore"
	_ "github.com/elfbench/elfstat/runstore/sqlite3"
	"github.com/elfbench/elfstat/runtab"
)

var exit = os.Exit

// errUsage reports bad command-line arguments. The usage message has
// already been printed.
var errUsage = errors.New("usage")

func main() {
	err := elfstat(os.Stdin, os.Stdout, os.Stderr, os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		exit(2)
	default:
		// Each failure was logged as it happened.
		exit(1)
	}
}

type options struct {
	logName   string
	unit      runfmt.TimeUnit
	text      bool
	csv       bool
	summary   bool
	outDir    string
	gcsBucket string
	charts    string
	dbDriver  string
	dsn       string
	verbose   bool
}

func parseFlags(stderr io.Writer, args []string) (*options, []string, error) {
	fs := flag.NewFlagSet("elfstat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: elfstat [flags] results-dir...\n")
		fs.PrintDefaults()
	}

	var o options
	fs.StringVar(&o.logName, "log", runfmt.DefaultLogName, "read the run log `name` inside each results directory")
	flagUnit := fs.String("unit", "s", "elapsed time `unit` tag of omega lines: s or ms")
	fs.BoolVar(&o.text, "text", true, "print tables as aligned text")
	fs.BoolVar(&o.csv, "csv", false, "print tables as CSV")
	fs.BoolVar(&o.summary, "summary", false, "print per-variant statistics")
	fs.StringVar(&o.outDir, "out", "", "write artifacts and charts under `dir`")
	fs.StringVar(&o.gcsBucket, "gcs", "", "write artifacts and charts to GCS `bucket`")
	fs.StringVar(&o.charts, "charts", "", "read chart definitions from YAML `file`")
	fs.StringVar(&o.dbDriver, "db", "", "store tables in a database using SQL `driver` (sqlite3 or mysql)")
	fs.StringVar(&o.dsn, "dsn", "", "database data source `name` for -db")
	fs.BoolVar(&o.verbose, "v", false, "log every run")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, nil, errUsage
		}
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	unit, err := runfmt.ParseTimeUnit(*flagUnit)
	if err != nil {
		fmt.Fprintf(stderr, "elfstat: %v\n", err)
		fs.Usage()
		return nil, nil, errUsage
	}
	o.unit = unit
	switch {
	case fs.NArg() == 0:
		fs.Usage()
		return nil, nil, errUsage
	case o.outDir != "" && o.gcsBucket != "":
		fmt.Fprintf(stderr, "elfstat: -out and -gcs are mutually exclusive\n")
		return nil, nil, errUsage
	case (o.dbDriver == "") != (o.dsn == ""):
		fmt.Fprintf(stderr, "elfstat: -db and -dsn must be given together\n")
		return nil, nil, errUsage
	}
	return &o, fs.Args(), nil
}

func elfstat(stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	o, paths, err := parseFlags(stderr, args)
	if err != nil {
		return err
	}

	logger := &log.Logger{
		Out:       stderr,
		Formatter: &log.TextFormatter{DisableTimestamp: true},
		Hooks:     make(log.LevelHooks),
		Level:     log.InfoLevel,
	}
	if o.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	ctx := context.Background()
	p := &processor{opts: o, log: logger, stdout: stdout, dirs: make(map[string]bool)}
	if err := p.setup(ctx); err != nil {
		logger.Error(err)
		return err
	}
	defer p.close()

	var result *multierror.Error
	files := &runfmt.Files{
		Paths:       paths,
		LogName:     o.logName,
		Unit:        o.unit,
		AllowStdin:  true,
		Stdin:       stdin,
		AllowLabels: true,
	}
	defer files.Close()
	for files.Next() {
		dlog := logger.WithField("dir", files.Label())
		if err := files.Err(); err != nil {
			dlog.Error(err)
			result = multierror.Append(result, err)
			continue
		}
		if err := p.process(ctx, dlog, files.Label(), files.Reader()); err != nil {
			dlog.Error(err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", files.Label(), err))
		}
	}
	return result.ErrorOrNil()
}

// A processor turns run logs into tables and sends the tables to
// every configured output.
type processor struct {
	opts   *options
	log    *log.Logger
	stdout io.Writer

	sink   sink.Sink // nil to print on stdout
	charts *runchart.File
	db     *runstore.DB

	dirs map[string]bool // artifact directories written so far
}

func (p *processor) setup(ctx context.Context) (err error) {
	o := p.opts
	switch {
	case o.outDir != "":
		p.sink = sink.Dir(o.outDir)
	case o.gcsBucket != "":
		if p.sink, err = sink.NewGCS(ctx, o.gcsBucket); err != nil {
			return fmt.Errorf("opening bucket %s: %w", o.gcsBucket, err)
		}
	}
	if p.sink != nil {
		p.charts = runchart.DefaultFile()
		if o.charts != "" {
			if p.charts, err = runchart.LoadChartFile(o.charts); err != nil {
				return err
			}
		}
	}
	if o.dbDriver != "" {
		if p.db, err = runstore.OpenSQL(o.dbDriver, o.dsn); err != nil {
			return fmt.Errorf("opening %s database: %w", o.dbDriver, err)
		}
	}
	return nil
}

func (p *processor) close() {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			p.log.Error(err)
		}
	}
}

func (p *processor) process(ctx context.Context, dlog *log.Entry, label string, r *runfmt.Reader) error {
	tab, err := runtab.Process(r, label)
	if err != nil {
		return err
	}
	for _, run := range tab.Runs {
		file, line := run.Pos()
		dlog.WithFields(log.Fields{
			"pos":     fmt.Sprintf("%s:%d", file, line),
			"variant": run.Config.Variant,
			"n_jobs":  run.Config.NJobs,
			"extra":   run.ExtraTimeS,
		}).Debug("run")
	}

	// Everything is rendered before any output, so a directory that
	// fails leaves nothing behind.
	arts, err := p.render(tab)
	if err != nil {
		return err
	}
	if p.sink == nil {
		if dlog, err = p.store(ctx, dlog, tab); err != nil {
			return err
		}
		if err := p.print(tab.Name, arts); err != nil {
			return err
		}
	} else {
		dir := p.newArtifactDir(tab.Name)
		written, err := p.export(ctx, dir, tab.Name, arts)
		if err != nil {
			return err
		}
		if dlog, err = p.store(ctx, dlog, tab); err != nil {
			p.remove(ctx, written)
			return err
		}
		p.dirs[dir] = true
	}
	dlog.WithField("runs", len(tab.Runs)).Info("processed")
	return nil
}

// An artifact is a rendered output file of one table.
type artifact struct {
	name string
	bytes.Buffer
}

func (*artifact) Close() error { return nil }

// render renders every enabled output of tab, charts included when
// exporting.
func (p *processor) render(tab *runtab.Table) ([]*artifact, error) {
	var arts []*artifact
	for _, r := range p.renderings() {
		a := &artifact{name: r.name}
		if err := r.write(tab, a); err != nil {
			return nil, err
		}
		arts = append(arts, a)
	}
	if p.charts != nil {
		err := p.charts.Render(tab, func(name string) (io.WriteCloser, error) {
			a := &artifact{name: name}
			arts = append(arts, a)
			return a, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return arts, nil
}

// store inserts tab into the database, if there is one.
func (p *processor) store(ctx context.Context, dlog *log.Entry, tab *runtab.Table) (*log.Entry, error) {
	if p.db == nil {
		return dlog, nil
	}
	u, err := p.db.InsertTable(ctx, tab)
	if err != nil {
		return dlog, fmt.Errorf("storing table: %w", err)
	}
	return dlog.WithField("upload", u.ID), nil
}

// print writes the artifacts of the table labeled label to stdout.
func (p *processor) print(label string, arts []*artifact) error {
	w := p.stdout
	fmt.Fprintf(w, "%s\n", label)
	for _, a := range arts {
		if _, err := w.Write(a.Bytes()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n")
	return err
}

// export writes arts to the sink under dir and returns the names
// written. If any write fails, the artifacts already written are
// removed.
func (p *processor) export(ctx context.Context, dir, label string, arts []*artifact) ([]string, error) {
	meta := map[string]string{"table": label}
	var written []string
	for _, a := range arts {
		name := dir + "/" + a.name
		if err := p.writeArtifact(ctx, name, meta, a.Bytes()); err != nil {
			p.remove(ctx, written)
			return nil, err
		}
		written = append(written, name)
	}
	return written, nil
}

func (p *processor) writeArtifact(ctx context.Context, name string, meta map[string]string, data []byte) error {
	w, err := p.sink.NewWriter(ctx, name, meta)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		w.CloseWithError(err)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	p.log.WithField("artifact", name).Debug("wrote")
	return nil
}

func (p *processor) remove(ctx context.Context, names []string) {
	for _, name := range names {
		if err := p.sink.Remove(ctx, name); err != nil {
			p.log.WithField("artifact", name).Warn(err)
		}
	}
}

// newArtifactDir returns an artifact directory for the table labeled
// label that no earlier table of this run has used.
func (p *processor) newArtifactDir(label string) string {
	base := artifactDir(label)
	dir := base
	for i := 1; p.dirs[dir]; i++ {
		dir = fmt.Sprintf("%s-%d", base, i)
	}
	return dir
}

type rendering struct {
	name  string
	write func(*runtab.Table, io.Writer) error
}

func (p *processor) renderings() []rendering {
	var rs []rendering
	if p.opts.text {
		rs = append(rs, rendering{"table.txt", (*runtab.Table).Fprint})
	}
	if p.opts.csv {
		rs = append(rs, rendering{"table.csv", (*runtab.Table).WriteCSV})
	}
	if p.opts.summary {
		rs = append(rs, rendering{"summary.txt", writeSummary})
	}
	return rs
}

func writeSummary(tab *runtab.Table, w io.Writer) error {
	sums, err := runtab.Summarize(tab)
	if err != nil {
		return err
	}
	return runtab.FprintSummaries(w, "summary", sums)
}

// artifactDir returns the artifact directory for the table labeled
// label: the label's last path element, made safe for object names.
func artifactDir(label string) string {
	dir := filepath.Base(filepath.Clean(label))
	switch dir {
	case ".", string(filepath.Separator):
		dir = "results"
	case "-":
		dir = "stdin"
	}
	return strings.NewReplacer("#", "-", "=", "-").Replace(dir)
}
