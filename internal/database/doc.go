// Package database implements the PostgreSQL-backed notification store and
// the read-only survey ownership lookups the publisher needs.
package database
