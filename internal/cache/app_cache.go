package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/jon4hz/taskbox/internal/config"
	"github.com/jon4hz/taskbox/internal/database"
)

// Cache key prefixes.
const (
	PreferencesCachePrefix = "preferences-"
)

// AppCache bundles the caches used by the web application.
type AppCache struct {
	Preferences *PrefixedCache[database.Preferences]
}

// NewAppCache creates the application caches for the configured backend.
func NewAppCache(cfg *config.CacheConfig) (*AppCache, error) {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}

	c, err := newCacheInstanceByType(cfg)
	if err != nil {
		return nil, err
	}

	return &AppCache{
		Preferences: NewPrefixedCache[database.Preferences](
			c,
			cfg.Type,
			PreferencesCachePrefix,
			cfg.TTL,
		),
	}, nil
}

// ClearAll drops every cached entry. Failures are logged, not returned.
func (a *AppCache) ClearAll(ctx context.Context) {
	if err := a.Preferences.Clear(ctx); err != nil {
		log.Errorf("failed to clear cache: %v", err)
	}
}

type Stats struct {
	*codec.Stats
	CacheName string           `json:"cacheName"`
	CacheType config.CacheType `json:"cacheType"`
}

func (a *AppCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     a.Preferences.GetStats(),
			CacheName: "preferences",
			CacheType: a.Preferences.GetType(),
		},
	}
}
