package catalog

import "testing"

func TestSnapshotCachePutGet(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenSnapshotCache(dir)
	if err != nil {
		t.Fatalf("OpenSnapshotCache: %v", err)
	}
	defer cache.Close()

	schema := demoTestSchema()
	schema.Version = 3

	if err := cache.Put(schema); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := cache.Get(3)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}
	if got.Version != 3 {
		t.Errorf("expected version 3, got %d", got.Version)
	}
	if _, ok := got.Nodes["Person"]; !ok {
		t.Error("expected Person node schema to round-trip")
	}
}

func TestSnapshotCacheGetMissing(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenSnapshotCache(dir)
	if err != nil {
		t.Fatalf("OpenSnapshotCache: %v", err)
	}
	defer cache.Close()

	_, ok, err := cache.Get(99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected miss for unseeded version")
	}
}

func TestSnapshotCacheLatest(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenSnapshotCache(dir)
	if err != nil {
		t.Fatalf("OpenSnapshotCache: %v", err)
	}
	defer cache.Close()

	for _, v := range []uint64{1, 5, 3} {
		s := demoTestSchema()
		s.Version = v
		if err := cache.Put(s); err != nil {
			t.Fatalf("Put(%d): %v", v, err)
		}
	}

	latest, ok, err := cache.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !ok {
		t.Fatal("expected a latest snapshot")
	}
	if latest.Version != 5 {
		t.Errorf("expected latest version 5, got %d", latest.Version)
	}
}

func TestSnapshotCacheLatestEmpty(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenSnapshotCache(dir)
	if err != nil {
		t.Fatalf("OpenSnapshotCache: %v", err)
	}
	defer cache.Close()

	_, ok, err := cache.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no latest snapshot in an empty cache")
	}
}
