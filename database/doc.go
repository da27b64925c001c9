// Package database provides connection management, health checks, table
// maintenance (truncate, auto-increment reset), model registration, SQL
// error classification and logging on top of Bun.
package database
