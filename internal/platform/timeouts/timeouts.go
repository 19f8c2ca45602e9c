// Package timeouts defines shared timeout constants used across the storefront.
package timeouts

import "time"

// BackendRequest caps a single REST call from the storefront to a backend
// service. Calls are never retried automatically.
const BackendRequest = 10 * time.Second

// StateWrite caps a single durable client-state write.
const StateWrite = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
