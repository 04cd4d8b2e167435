package database

import "embed"

// MigrationsFS содержит SQL-миграции схемы, встроенные в бинарник.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath is the directory inside MigrationsFS.
const MigrationsPath = "migrations"
