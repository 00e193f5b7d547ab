// Package migrations holds the versioned schema for docbrain's SQLite store.
// Files are named NNN_name.up.sql; .down.sql files are for manual rollback.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
