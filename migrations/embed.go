// Package migrations embeds the goose SQL migrations.
package migrations

import "embed"

// MigrationsFS holds every *.sql migration in this directory.
//
//go:embed *.sql
var MigrationsFS embed.FS
