package offline

import (
	"github.com/jonwraymond/offlinekit/cache"
	"github.com/jonwraymond/offlinekit/queue"
	"github.com/jonwraymond/offlinekit/storage"
)

// Config configures a Client. Zero values fall back to the component
// defaults.
type Config struct {
	Cache cache.ManagerConfig
	Queue queue.Options
}

// Client bundles a cache manager and a sync queue over one storage adapter.
// The two components share the store but never each other's keys: the cache
// and queue write under distinct prefixes.
type Client struct {
	Store storage.Store
	Cache *cache.Manager
	Queue *queue.Queue
}

// New builds a Client over the given store.
func New(store storage.Store, cfg Config) (*Client, error) {
	mgr, err := cache.NewManager(store, cfg.Cache)
	if err != nil {
		return nil, err
	}
	q, err := queue.New(store, cfg.Queue)
	if err != nil {
		return nil, err
	}
	return &Client{Store: store, Cache: mgr, Queue: q}, nil
}

// Open builds a Client over the storage backend selected by the environment
// (OFFLINEKIT_STORAGE, OFFLINEKIT_STORAGE_PATH).
func Open(cfg Config) (*Client, error) {
	scfg, err := storage.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(scfg)
	if err != nil {
		return nil, err
	}
	c, err := New(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return c.Store.Close()
}
