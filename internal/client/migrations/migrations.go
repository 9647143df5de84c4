// Package migrations embeds the goose migrations for the local SQLite store.
package migrations

import "embed"

// FS holds the *.sql migration files at its root.
//
//go:embed *.sql
var FS embed.FS
