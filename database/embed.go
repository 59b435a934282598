package database

import "embed"

// EmbeddedMigrations holds the schema files compiled into the binary.
// Use fs.Sub(EmbeddedMigrations, "migrations") to reach the files.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
