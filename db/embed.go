// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the products, orders and sessions tables.
//
//go:embed migrations/001_schema.sql
var Schema string
