// Package migrations embeds the ordered SQL migration set applied at boot.
package migrations

import "embed"

// FS holds the versioned up/down migration files.
//
//go:embed *.sql
var FS embed.FS
