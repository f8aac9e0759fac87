package cache

import (
	"fmt"
	"time"
)

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get returns the value and true when present and not expired.
	Get(key string) (interface{}, bool)

	// Set stores a value; a zero duration uses the cache default TTL.
	Set(key string, value interface{}, duration time.Duration)

	Delete(key string)

	// Flush removes all items
	Flush()

	ItemCount() int
}

// ZonesKey is the cache key for a branch's active zone listing.
func ZonesKey(branchID int64) string {
	return fmt.Sprintf("shipping:zones:branch:%d", branchID)
}
