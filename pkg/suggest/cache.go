package suggest

import (
	"math"
	"sync"

	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
)

// Cache memoizes Match results per query in front of another Matcher,
// evicting the least recently used query once maxQueries is reached.
type Cache struct {
	matcher     Matcher
	results     map[string][]trigger.Candidate
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	maxQueries  int
	mu          sync.Mutex
}

func NewCache(matcher Matcher, maxQueries int) *Cache {
	if maxQueries < 1 {
		maxQueries = 1
	}
	return &Cache{
		matcher:    matcher,
		results:    make(map[string][]trigger.Candidate, maxQueries),
		accessTime: make(map[string]int64, maxQueries),
		maxQueries: maxQueries,
	}
}

// Match implements Matcher. Callers get their own copy of the cached slice.
func (c *Cache) Match(query string) []trigger.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.results[query]; ok {
		c.hits++
		c.accessTime[query] = c.nextAccessTime()
		return append([]trigger.Candidate{}, cached...)
	}

	result := c.matcher.Match(query)
	if len(c.results) >= c.maxQueries {
		c.evictLRU()
	}
	c.results[query] = result
	c.accessTime[query] = c.nextAccessTime()
	return append([]trigger.Candidate{}, result...)
}

func (c *Cache) Len() int {
	return c.matcher.Len()
}

func (c *Cache) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]int{
		"cachedQueries": len(c.results),
		"maxQueries":    c.maxQueries,
		"cacheHits":     int(c.hits),
	}
}

func (c *Cache) nextAccessTime() int64 {
	c.accessCount++
	return c.accessCount
}

func (c *Cache) evictLRU() {
	var oldestQuery string
	var oldestTime int64 = math.MaxInt64
	found := false

	for query, accessTime := range c.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestQuery = query
			found = true
		}
	}

	if found {
		delete(c.results, oldestQuery)
		delete(c.accessTime, oldestQuery)
		log.Debugf("Evicted query '%s' from suggestion cache", oldestQuery)
	}
}
