// Package storage defines the persistence contracts behind per-client state
// and the query cache. Implementations live in the sqlite and redis
// subpackages.
package storage
