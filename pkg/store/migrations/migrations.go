// Package migrations embeds the goose SQL migrations for the Postgres
// session store.
package migrations

import "embed"

// FS holds the migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
