// Package migrations embeds the schema migrations for every supported driver.
package migrations

import "embed"

// FS holds one directory of migrations per database driver.
//
//go:embed postgres/*.sql sqlite3/*.sql
var FS embed.FS
