// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storetest opens empty run stores for tests.
//
// By default every store is a private in-memory SQLite database. With
// -mysql, each store is instead a new database on the given MySQL
// server, dropped when the test finishes:
//
//	go test ./runstore/... -mysql 'root:pw@tcp(localhost:3306)/'
//	go test ./runstore/... -mysql 'root@cloudsql(project:region:instance)/'
package storetest

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"flag"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	"github.com/go-sql-driver/mysql"

	"github.com/elfbench/elfstat/runstore"
	_ "github.com/elfbench/elfstat/runstore/sqlite3"
)

var mysqlDSN = flag.String("mysql", "", "run store tests on a new database of the MySQL server at `dsn` instead of in-memory SQLite")

// mysqlTestDB creates a database with a random name on the server of
// serverDSN and returns a DSN for it. Any database named by serverDSN
// is ignored.
func mysqlTestDB(t *testing.T, serverDSN string) string {
	t.Helper()
	cfg, err := mysql.ParseDSN(serverDSN)
	if err != nil {
		t.Fatalf("-mysql: %v", err)
	}
	var suffix [6]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		t.Fatal(err)
	}
	name := "elfstat_test_" + hex.EncodeToString(suffix[:])

	cfg.DBName = ""
	server, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := server.Exec("CREATE DATABASE `" + name + "`"); err != nil {
		server.Close()
		t.Fatalf("creating test database: %v", err)
	}
	t.Logf("using MySQL database %s", name)
	t.Cleanup(func() {
		if _, err := server.Exec("DROP DATABASE `" + name + "`"); err != nil {
			t.Error(err)
		}
		server.Close()
	})

	cfg.DBName = name
	return cfg.FormatDSN()
}

// NewDB opens an empty run store for the test. The store is closed
// when the test finishes.
func NewDB(t *testing.T) *runstore.DB {
	t.Helper()
	driverName, dataSourceName := "sqlite3", ":memory:"
	if *mysqlDSN != "" {
		driverName, dataSourceName = "mysql", mysqlTestDB(t, *mysqlDSN)
	}
	db, err := runstore.OpenSQL(driverName, dataSourceName)
	if err != nil {
		t.Fatalf("open %s store: %v", driverName, err)
	}
	// Registered after the database drop, so it runs first.
	t.Cleanup(func() { db.Close() })

	if n, err := db.CountUploads(); err != nil {
		t.Fatal(err)
	} else if n != 0 {
		t.Fatalf("new store has %d uploads, want 0", n)
	}
	return db
}
