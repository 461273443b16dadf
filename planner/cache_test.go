package planner

import (
	"testing"
	"time"

	"github.com/corvusdb/graphplan/ast"
)

func aliceFriendQuery() *ast.Query {
	return &ast.Query{
		Match: &ast.MatchClause{
			Paths: []ast.Path{{
				Elements: []ast.PatternElement{
					{Node: &ast.NodePattern{Name: "a", Label: "Person",
						Properties: ast.Properties{"name": ast.StringLiteral{Value: "Alice"}}}},
					{Rel: &ast.RelPattern{Name: "r", Label: "FRIEND", Direction: ast.Outgoing}},
					{Node: &ast.NodePattern{Name: "f", Label: "Person"}},
				},
			}},
		},
		Return: &ast.ReturnClause{
			Items: []ast.ReturnItem{{Expression: ast.PropertyAccess{Alias: "f", Column: "name"}}},
		},
	}
}

func TestCacheKeyDeterministicAcrossIdenticalQueries(t *testing.T) {
	c := NewCache(10, time.Minute)
	k1 := c.computeKey(aliceFriendQuery(), DefaultOptions())
	k2 := c.computeKey(aliceFriendQuery(), DefaultOptions())
	if k1 != k2 {
		t.Errorf("expected identical queries to hash identically, got %s vs %s", k1, k2)
	}
}

func TestCacheKeyDiffersByOptions(t *testing.T) {
	c := NewCache(10, time.Minute)
	optsA := DefaultOptions()
	optsB := DefaultOptions()
	optsB.EnableAnchorRotation = false

	k1 := c.computeKey(aliceFriendQuery(), optsA)
	k2 := c.computeKey(aliceFriendQuery(), optsB)
	if k1 == k2 {
		t.Error("expected different options to produce different cache keys")
	}
}

func TestCacheGetSetRoundTrip(t *testing.T) {
	c := NewCache(10, time.Minute)
	q := aliceFriendQuery()
	opts := DefaultOptions()

	if _, ok := c.Get(q, opts); ok {
		t.Fatal("expected a miss before any Set")
	}

	result := &Result{}
	c.Set(q, opts, result)

	got, ok := c.Get(q, opts)
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if got != result {
		t.Error("expected the exact cached *Result back")
	}

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("expected hits=1 misses=1 size=1, got hits=%d misses=%d size=%d", hits, misses, size)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewCache(10, time.Nanosecond)
	q := aliceFriendQuery()
	opts := DefaultOptions()

	c.Set(q, opts, &Result{})
	time.Sleep(time.Millisecond)

	if _, ok := c.Get(q, opts); ok {
		t.Error("expected the entry to have expired")
	}
}

func TestCacheNilIsSafe(t *testing.T) {
	var c *Cache
	if _, ok := c.Get(aliceFriendQuery(), DefaultOptions()); ok {
		t.Error("expected a nil cache to always miss")
	}
	c.Set(aliceFriendQuery(), DefaultOptions(), &Result{})
	c.Clear()
}
