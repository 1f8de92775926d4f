package cityindex

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"city-coords/internal/model"
)

// searchCache memoizes search results per language and normalized query.
type searchCache struct {
	cache *ttlcache.Cache[string, []model.City]
}

func newSearchCache(ttl time.Duration, capacity uint64) *searchCache {
	opts := []ttlcache.Option[string, []model.City]{
		ttlcache.WithTTL[string, []model.City](ttl),
		ttlcache.WithDisableTouchOnHit[string, []model.City](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []model.City](capacity))
	}
	c := ttlcache.New[string, []model.City](opts...)
	go c.Start()
	return &searchCache{cache: c}
}

func cacheKey(lang model.Lang, q string) string {
	return string(lang) + "\x00" + q
}

func (c *searchCache) get(lang model.Lang, q string) ([]model.City, bool) {
	item := c.cache.Get(cacheKey(lang, q))
	if item == nil {
		return nil, false
	}
	return cloneCities(item.Value()), true
}

func (c *searchCache) set(lang model.Lang, q string, res []model.City) {
	c.cache.Set(cacheKey(lang, q), cloneCities(res), ttlcache.DefaultTTL)
}

func (c *searchCache) len() int {
	return c.cache.Len()
}

func (c *searchCache) stop() {
	c.cache.Stop()
}

func cloneCities(in []model.City) []model.City {
	out := make([]model.City, len(in))
	copy(out, in)
	return out
}
