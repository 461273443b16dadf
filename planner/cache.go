package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corvusdb/graphplan/ast"
)

// Cache caches render plans to avoid re-planning identical queries,
// adapted from the teacher's query plan cache.
type Cache struct {
	entries map[string]*cachedEntry
	mu      sync.RWMutex

	hits   int64
	misses int64

	maxSize int
	ttl     time.Duration
}

type cachedEntry struct {
	result    *Result
	timestamp time.Time
}

// NewCache returns a Cache bounded to maxSize entries, each valid for ttl.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{entries: make(map[string]*cachedEntry), maxSize: maxSize, ttl: ttl}
}

// Get retrieves a cached result for q under opts, if present and unexpired.
func (c *Cache) Get(q *ast.Query, opts Options) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	key := c.computeKey(q, opts)

	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.entries[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	if time.Since(cached.timestamp) > c.ttl {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return cached.result, true
}

// Set stores result in the cache under q/opts.
func (c *Cache) Set(q *ast.Query, opts Options, result *Result) {
	if c == nil || result == nil {
		return
	}
	key := c.computeKey(q, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictExpired()
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
	}
	c.entries[key] = &cachedEntry{result: result, timestamp: time.Now()}
}

// Clear empties the cache and resets its statistics.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cachedEntry)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Stats reports cache hit/miss counters and current size.
func (c *Cache) Stats() (hits, misses int64, size int) {
	if c == nil {
		return 0, 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), len(c.entries)
}

// computeKey hashes the query's clause structure together with whichever
// options affect the resulting plan, so identical queries planned under
// different options don't collide. Every field is written out explicitly
// (via Expression.String(), never a bare %v on a pointer) so the key stays
// deterministic across separately-parsed but identical queries.
func (c *Cache) computeKey(q *ast.Query, opts Options) string {
	h := sha256.New()

	fmt.Fprintf(h, "MATCH:%s;", matchKey(q.Match))
	fmt.Fprintf(h, "WHERE:%s;", whereKey(q.Where))
	fmt.Fprintf(h, "RETURN:%s;", returnKey(q.Return))
	fmt.Fprintf(h, "ORDERBY:%s;", orderByKey(q.OrderBy))
	if q.Skip != nil {
		fmt.Fprintf(h, "SKIP:%d;", *q.Skip)
	}
	if q.Limit != nil {
		fmt.Fprintf(h, "LIMIT:%d;", *q.Limit)
	}

	fmt.Fprintf(h, "OPTIONS:PredicatePush:%v;AnchorRotation:%v;DupScanRemoval:%v;",
		opts.EnablePredicatePushdown, opts.EnableAnchorRotation, opts.EnableDuplicateScanRemoval)

	return hex.EncodeToString(h.Sum(nil))
}

func matchKey(m *ast.MatchClause) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	for _, path := range m.Paths {
		for _, el := range path.Elements {
			if el.Node != nil {
				fmt.Fprintf(&b, "(%s:%s%s)", el.Node.Name, el.Node.Label, propsKey(el.Node.Properties))
			}
			if el.Rel != nil {
				fmt.Fprintf(&b, "[%s:%s:%s%s]", el.Rel.Name, el.Rel.Label, el.Rel.Direction, propsKey(el.Rel.Properties))
			}
		}
		b.WriteByte(',')
	}
	return b.String()
}

func propsKey(p ast.Properties) string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s,", k, p[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

func whereKey(w *ast.WhereClause) string {
	if w == nil || w.Predicate == nil {
		return ""
	}
	return w.Predicate.String()
}

func returnKey(r *ast.ReturnClause) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	if r.Star {
		b.WriteString("*,")
	}
	for _, item := range r.Items {
		fmt.Fprintf(&b, "%s AS %s,", item.Expression.String(), item.Alias)
	}
	return b.String()
}

func orderByKey(o *ast.OrderByClause) string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	for _, item := range o.Items {
		fmt.Fprintf(&b, "%s:%d,", item.Expression.String(), item.Direction)
	}
	return b.String()
}

func (c *Cache) evictExpired() {
	now := time.Now()
	for key, cached := range c.entries {
		if now.Sub(cached.timestamp) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, cached := range c.entries {
		if oldestKey == "" || cached.timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = cached.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
