// Package db embeds the schema applied on startup.
package db

import _ "embed"

// Schema holds the DDL for products, clients, sellers, api_keys,
// proposals and orders. Statements are idempotent so the migration can
// run on every boot.
//
//go:embed migrations/001_schema.sql
var Schema string
