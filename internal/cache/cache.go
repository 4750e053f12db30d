package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL cache sitting in front of the database for hot reads
// (tenants, tenant settings, published courses).
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
}

type memoryCache struct {
	c *gocache.Cache
}

// New creates an in-memory cache with the given default TTL and sweep interval.
func New(defaultTTL, sweepInterval time.Duration) Cache {
	return &memoryCache{c: gocache.New(defaultTTL, sweepInterval)}
}

func (m *memoryCache) Get(key string) (interface{}, bool) {
	return m.c.Get(key)
}

func (m *memoryCache) Set(key string, value interface{}) {
	m.c.SetDefault(key, value)
}

func (m *memoryCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	m.c.Set(key, value, ttl)
}

func (m *memoryCache) Delete(key string) {
	m.c.Delete(key)
}

// Key builders keep the namespaces in one place.

func TenantKey(slug string) string {
	return "tenant:" + slug
}

func SettingsKey(tenantID string) string {
	return "settings:" + tenantID
}

func CourseKey(tenantID, courseID string) string {
	return fmt.Sprintf("course:%s:%s", tenantID, courseID)
}
