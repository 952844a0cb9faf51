// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS contains the goose SQL migration files.
//
//go:embed *.sql
var FS embed.FS
