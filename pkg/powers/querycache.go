// Package powers provides the built-in powers: extension records that
// hook into the engine's add/search/delete/clear pipeline. Each
// constructor returns an *engine.Power ready for engine.Use; per-power
// state lives in the closure and is never shared between instances.
package powers

import (
	"container/list"
	"context"
	"time"

	"github.com/thewizster/mysse/pkg/engine"
)

// QueryCacheName is the registry name of the query cache power.
const QueryCacheName = "query-cache"

// Query cache defaults.
const (
	DefaultCacheSize = 100
	DefaultCacheTTL  = 60 * time.Second
)

type cacheEntry struct {
	query     string
	results   []engine.Result
	expiresAt time.Time
}

// queryCache is a bounded map of query -> results with insertion-order
// eviction and TTL expiry. Keys are exact query strings; semantically
// equivalent queries are not unified. The cache never observes adds or
// deletes, so freshness is bounded only by the TTL and by clear.
type queryCache struct {
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	fifo    *list.List
}

// NewQueryCache creates a power that short-circuits repeated searches.
// Its beforeSearch hook returns the cached result list for a known,
// unexpired query without invoking the embedder or the core retrieval;
// afterSearch inserts a fresh entry; clear wipes the cache. Non-positive
// maxSize and ttl fall back to 100 entries and 60 seconds.
func NewQueryCache(maxSize int, ttl time.Duration) *engine.Power {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &queryCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element, maxSize),
		fifo:    list.New(),
	}

	return &engine.Power{
		Name: QueryCacheName,
		BeforeSearch: func(_ context.Context, sc *engine.SearchContext) error {
			elem, ok := c.items[sc.Query]
			if !ok {
				return nil
			}
			entry := elem.Value.(*cacheEntry)
			if time.Now().After(entry.expiresAt) {
				c.remove(elem)
				return nil
			}
			sc.ShortCircuit = true
			sc.Results = append([]engine.Result(nil), entry.results...)
			return nil
		},
		AfterSearch: func(_ context.Context, sc *engine.SearchContext, results []engine.Result) ([]engine.Result, error) {
			c.put(sc.Query, results)
			return results, nil
		},
		OnClear: func() {
			c.items = make(map[string]*list.Element, c.maxSize)
			c.fifo.Init()
		},
	}
}

func (c *queryCache) put(query string, results []engine.Result) {
	if elem, ok := c.items[query]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.results = append([]engine.Result(nil), results...)
		entry.expiresAt = time.Now().Add(c.ttl)
		return
	}

	for c.fifo.Len() >= c.maxSize {
		oldest := c.fifo.Front()
		if oldest == nil {
			break
		}
		c.remove(oldest)
	}

	elem := c.fifo.PushBack(&cacheEntry{
		query:     query,
		results:   append([]engine.Result(nil), results...),
		expiresAt: time.Now().Add(c.ttl),
	})
	c.items[query] = elem
}

func (c *queryCache) remove(elem *list.Element) {
	c.fifo.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).query)
}
