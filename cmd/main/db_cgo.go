//go:build cgo_sqlite

package main

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	driverName       = "sqlite3"
	busyTimeoutParam = "_busy_timeout=5000"
)
