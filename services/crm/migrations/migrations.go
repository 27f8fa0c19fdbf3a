// Package migrations embeds the crm service's SQL schema migrations.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
