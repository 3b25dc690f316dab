package plan

import (
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// QueryCache memoizes ai-generated queries per topic for the lifetime of
// one scheduler run. Entries never expire; drop the cache to reset it.
type QueryCache struct {
	c *gocache.Cache
}

// NewQueryCache returns an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{c: gocache.New(gocache.NoExpiration, 0)}
}

func cacheKey(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// Get returns the cached query for topic.
func (q *QueryCache) Get(topic string) (string, bool) {
	v, ok := q.c.Get(cacheKey(topic))
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores query for topic.
func (q *QueryCache) Set(topic, query string) {
	q.c.Set(cacheKey(topic), query, gocache.NoExpiration)
}

// Len reports the number of cached topics.
func (q *QueryCache) Len() int {
	return q.c.ItemCount()
}
