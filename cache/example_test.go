package cache_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/offlinekit/cache"
	"github.com/jonwraymond/offlinekit/storage"
)

func ExampleNewManager() {
	store := storage.NewMemoryStore()
	m, _ := cache.NewManager(store, cache.ManagerConfig{DefaultTTL: "5m"})
	ctx := context.Background()

	_ = m.Set(ctx, "user:1", map[string]string{"name": "A"}, cache.Options{TTL: "1h"})

	entry, _ := m.Get(ctx, "user:1", cache.Options{})
	fmt.Println("hit:", entry != nil)
	fmt.Println("stale:", entry.Stale)
	// Output:
	// hit: true
	// stale: false
}

func ExampleManager_Invalidate() {
	store := storage.NewMemoryStore()
	m, _ := cache.NewManager(store, cache.ManagerConfig{})
	ctx := context.Background()

	_ = m.Set(ctx, "user:1", "a", cache.Options{Tags: []string{"profile"}})
	_ = m.Set(ctx, "user:2", "b", cache.Options{Tags: []string{"profile"}})
	_ = m.Set(ctx, "post:1", "c", cache.Options{Tags: []string{"content"}})

	n, _ := m.Invalidate(ctx, "profile")
	fmt.Println("removed:", n)
	// Output:
	// removed: 2
}

func ExampleFetch() {
	store := storage.NewMemoryStore()
	m, _ := cache.NewManager(store, cache.ManagerConfig{})
	ctx := context.Background()

	type user struct {
		Name string `json:"name"`
	}

	fetcher := func(ctx context.Context) (user, error) {
		return user{Name: "A"}, nil
	}

	u, info, _ := cache.Fetch(ctx, m, "user:1", fetcher, cache.Options{TTL: "1h"})
	fmt.Println("name:", u.Name, "fromCache:", info.FromCache)

	u, info, _ = cache.Fetch(ctx, m, "user:1", fetcher, cache.Options{TTL: "1h"})
	fmt.Println("name:", u.Name, "fromCache:", info.FromCache)
	// Output:
	// name: A fromCache: false
	// name: A fromCache: true
}
