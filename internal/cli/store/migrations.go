package store

import (
	_ "embed"
)

// Embedded client SQL migrations (SQLite).
//
//go:embed migrations/001_init.sql
var initDDL string

func initialDDL() string { return initDDL }
