// Package db carries the goose migrations shipped with the binary.
package db

import _ "embed"

// SeedSQL is the seed migration. SQLite databases replay its Up section.
//
//go:embed migrations/00002_seed_trivia.sql
var SeedSQL string
