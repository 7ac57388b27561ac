package cache

import (
	"time"
)

// CacheService represents a generic cache service. The scrape pipeline uses it
// as a cooldown store: a rate-limited site gets a key for the block window and
// fetches are skipped while the key exists.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
