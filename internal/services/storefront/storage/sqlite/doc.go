// Package sqlite provides the SQLite-backed client state and cache store.
package sqlite
