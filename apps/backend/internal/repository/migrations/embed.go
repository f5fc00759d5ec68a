package migrations

import "embed"

// PostgresFS embeds the order table migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS
