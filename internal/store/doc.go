// Package store holds the latest observation per namespace in memory. It is
// a thread-safe store with TTL eviction: an observation not refreshed within
// the TTL drops out of listings and is eventually removed by the eviction
// loop.
package store
