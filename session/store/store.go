// Package store provides the session.Store implementations: an in-memory
// store for a single authoritative process and a Redis store for
// deployments sharing sessions across processes.
package store
