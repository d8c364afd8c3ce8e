// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlite3 provides the sqlite3 driver for runstore. It must
// be imported instead of go-sqlite3 to ensure foreign keys are
// properly honored.
package sqlite3

import (
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/elfbench/elfstat/runstore"
)

func init() {
	runstore.RegisterOpenHook("sqlite3", func(db *sql.DB, dataSourceName string) error {
		db.Driver().(*sqlite3.SQLiteDriver).ConnectHook = func(c *sqlite3.SQLiteConn) error {
			_, err := c.Exec("PRAGMA foreign_keys = ON;", nil)
			return err
		}
		if dataSourceName == ":memory:" {
			// Every connection opens its own in-memory database.
			db.SetMaxOpenConns(1)
		}
		return nil
	})
}
