package cache

import (
	"fmt"
	"time"
)

// ClusterListKey caches the joined duplicate-cluster listing. Invalidated on
// every confirmed merge.
const ClusterListKey = "clusters:list"

// RateLimitKey buckets requests for one API key into the fixed window
// starting at window.
func RateLimitKey(keyPrefix string, window time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", keyPrefix, window.Unix())
}
