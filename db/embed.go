// Package db holds the SQL that defines the schema and the reporting views.
package db

import "embed"

// Migrations are golang-migrate files for postgres.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// SQLiteSchema creates the same tables and views on SQLite.
//
//go:embed schema_sqlite.sql
var SQLiteSchema string
