// Package migrations embeds the numbered SQL migration files for every
// supported SQL backend.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
