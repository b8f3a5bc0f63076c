package aiwrap

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenSQLiteCache(path)
	if err != nil {
		t.Fatalf("OpenSQLiteCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("miss = %v, %v", ok, err)
	}
	if err := c.Put(ctx, "k", []byte("value")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "value" {
		t.Fatalf("get = %q, %v, %v", got, ok, err)
	}

	// Replacement overwrites
	if err := c.Put(ctx, "k", []byte("newer")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _, _ = c.Get(ctx, "k")
	if string(got) != "newer" {
		t.Errorf("after replace = %q", got)
	}
}

func TestSQLiteCachePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	c, err := OpenSQLiteCache(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "k", []byte("durable")); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c2, err := OpenSQLiteCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	got, ok, err := c2.Get(ctx, "k")
	if err != nil || !ok || string(got) != "durable" {
		t.Fatalf("get after reopen = %q, %v, %v", got, ok, err)
	}
}

func TestClientWithSQLiteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	cache, err := OpenSQLiteCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	inv := &scriptedInvoker{responses: []response{{value: "persisted"}}}
	c, _ := instantClient(inv, WithCache(cache))
	op := textOp("op-sqlite")

	if _, err := c.Do(context.Background(), op, "payload"); err != nil {
		t.Fatal(err)
	}
	res, err := c.Do(context.Background(), op, "payload")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text() != "persisted" {
		t.Errorf("result = %q", res.Text())
	}
	if inv.callCount() != 1 {
		t.Errorf("invoker called %d times, want 1", inv.callCount())
	}
}
