// Package migrations embeds the postgres schema migrations.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql pairs applied by golang-migrate
//
//go:embed *.sql
var FS embed.FS
