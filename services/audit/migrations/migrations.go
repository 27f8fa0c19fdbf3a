// Package migrations embeds the audit service's SQL migration files.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
