// Package cache provides the report cache used to serve the latest run
// report without re-running aggregation. Values are serialized bytes so
// the memory and Redis backends behave identically.
package cache

import "time"

// Cache is a TTL'd key/value store for serialized payloads
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	SetWithTTL(key string, value []byte, ttl time.Duration)
	Delete(key string)
	Clear()
}
