// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runstore persists finished run tables in a SQL database.
//
// Each stored table is an upload. Every run of the table becomes one
// row holding its canonical log text along with one column per table
// column, so that the runs can be queried directly with SQL.
package runstore

import (
	"bytes"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/net/context"

	"github.com/elfbench/elfstat/runfmt"
	"github.com/elfbench/elfstat/runtab"
)

// DB is a run table store. It's safe for concurrent use by multiple
// goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertUpload *sql.Stmt
	insertRun    *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db, dataSourceName); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(db *sql.DB, dataSourceName string) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. This is used by the sqlite3 package to
// configure its connections. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(db *sql.DB, dataSourceName string) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Uploads (
	UploadID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Name VARCHAR(1024) NOT NULL,
	Corrected BOOLEAN NOT NULL,
	Derived BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS Runs (
	UploadID BIGINT UNSIGNED,
	RunID BIGINT UNSIGNED,
	Content BLOB,
	Variant VARCHAR(16),
	InMs INT,
	OutMs INT,
	NJobs INT,
	NBlobs INT,
	MaxTask INT NULL,
	MaxMiss INT NULL,
	InExpRate INT,
	OutExpRate INT,
	ExpTimeS INT,
	ActTimeS INT,
	ExtraTimeS INT NULL,
	LoadFactor DOUBLE NULL,
{{if not .sqlite3}}
	Index (Variant),
{{end}}
	PRIMARY KEY (UploadID, RunID),
	FOREIGN KEY (UploadID) REFERENCES Uploads(UploadID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS RunsVariant ON Runs(Variant);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertUpload, err = db.sql.Prepare("INSERT INTO Uploads(Name, Corrected, Derived) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertRun, err = db.sql.Prepare(`INSERT INTO Runs(UploadID, RunID, Content,
	Variant, InMs, OutMs, NJobs, NBlobs, MaxTask, MaxMiss,
	InExpRate, OutExpRate, ExpTimeS, ActTimeS, ExtraTimeS, LoadFactor)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	return nil
}

// An Upload is a stored run table.
type Upload struct {
	// ID is the public identifier of the upload.
	ID string
	// Name is the name of the stored table.
	Name string

	// id is the numeric value used as the primary key.
	id int64
}

// InsertTable stores every run of t as a new upload, in a single
// transaction.
func (db *DB) InsertTable(ctx context.Context, t *runtab.Table) (u *Upload, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.StmtContext(ctx, db.insertUpload).ExecContext(ctx, t.Name, t.Corrected, t.Derived)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	insertRun := tx.StmtContext(ctx, db.insertRun)
	var buf bytes.Buffer
	w := runfmt.NewWriter(&buf, runfmt.Seconds)
	for i, run := range t.Runs {
		buf.Reset()
		if err := w.Write(run); err != nil {
			return nil, err
		}
		c, s := &run.Config, &run.Start
		var maxTask, maxMiss, extra, load interface{}
		if tm := run.TaskMiss; tm != nil {
			maxTask, maxMiss = tm.MaxTask, tm.MaxMiss
		}
		if t.Derived {
			extra, load = run.ExtraTimeS, run.Load
		}
		if _, err := insertRun.ExecContext(ctx, id, i, buf.Bytes(),
			c.Variant.String(), c.InMs, c.OutMs, c.NJobs, c.NBlobs, maxTask, maxMiss,
			s.InExpRate, s.OutExpRate, s.ExpTimeS, run.End.ActTimeS, extra, load); err != nil {
			return nil, fmt.Errorf("inserting run %d: %w", i, err)
		}
	}
	return &Upload{ID: fmt.Sprint(id), Name: t.Name, id: id}, nil
}

// An UnknownUploadError is returned by ReadTable for an upload ID
// that does not exist.
type UnknownUploadError struct {
	ID string
}

func (e *UnknownUploadError) Error() string {
	return fmt.Sprintf("unknown upload %q", e.ID)
}

// ReadTable reads back the table stored as upload id.
func (db *DB) ReadTable(ctx context.Context, id string) (*runtab.Table, error) {
	uid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, &UnknownUploadError{id}
	}
	t := new(runtab.Table)
	err = db.sql.QueryRowContext(ctx, "SELECT Name, Corrected, Derived FROM Uploads WHERE UploadID = ?", uid).
		Scan(&t.Name, &t.Corrected, &t.Derived)
	if err == sql.ErrNoRows {
		return nil, &UnknownUploadError{id}
	} else if err != nil {
		return nil, err
	}

	rows, err := db.sql.QueryContext(ctx, "SELECT RunID, Content, ExtraTimeS, LoadFactor FROM Runs WHERE UploadID = ? ORDER BY RunID", uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var r runfmt.Reader
	for rows.Next() {
		var (
			runID   int64
			content []byte
			extra   sql.NullInt64
			load    sql.NullFloat64
		)
		if err := rows.Scan(&runID, &content, &extra, &load); err != nil {
			return nil, err
		}
		r.Reset(bytes.NewReader(content), fmt.Sprintf("upload %s run %d", id, runID), runfmt.Seconds)
		if !r.Scan() {
			if err := r.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("upload %s run %d: no run in stored content", id, runID)
		}
		run := r.Run()
		if t.Derived {
			run.ExtraTimeS, run.Load = int(extra.Int64), load.Float64
		}
		t.Runs = append(t.Runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// ListUploads returns every stored upload, oldest first.
func (db *DB) ListUploads(ctx context.Context) ([]*Upload, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT UploadID, Name FROM Uploads ORDER BY UploadID")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Upload
	for rows.Next() {
		u := new(Upload)
		if err := rows.Scan(&u.id, &u.Name); err != nil {
			return nil, err
		}
		u.ID = fmt.Sprint(u.id)
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountUploads returns the number of stored uploads.
func (db *DB) CountUploads() (int, error) {
	var uploads int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Uploads").Scan(&uploads)
	return uploads, err
}

// CountRuns returns the number of stored runs of variant v.
func (db *DB) CountRuns(ctx context.Context, v runfmt.Variant) (int, error) {
	var runs int
	err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM Runs WHERE Variant = ?", v.String()).Scan(&runs)
	return runs, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertUpload.Close(); err != nil {
		return err
	}
	if err := db.insertRun.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
