// Package migrations embeds the schema for each storage driver.
package migrations

import "embed"

// Postgres contains the PostgreSQL migrations, applied in file name order.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite contains the SQLite migrations, applied in file name order.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
