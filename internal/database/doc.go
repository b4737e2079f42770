// Package database provides connection pool management for PostgreSQL.
//
// The watcher keeps a single pool for the stream event archive.
package database
