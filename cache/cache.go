package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache holds generated SQL and schema descriptions between requests.
type Cache struct {
	cache *cache.Cache
}

func New() *Cache {
	return NewWithExpiration(5*time.Minute, 10*time.Minute)
}

func NewWithExpiration(defaultExpiration, cleanupInterval time.Duration) *Cache {
	return &Cache{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

// GetString returns the cached value for key when it exists and is a string.
func (c *Cache) GetString(key string) (string, bool) {
	v, found := c.cache.Get(key)
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Cache) Set(key string, value interface{}, expiration time.Duration) {
	c.cache.Set(key, value, expiration)
}

func (c *Cache) SetDefault(key string, value interface{}) {
	c.cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Delete(key string) {
	c.cache.Delete(key)
}
