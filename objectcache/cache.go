// Package objectcache provides a registry holding one shared instance per
// type. Create a Cache at application start and pass it to whatever needs
// shared stateless helpers, such as hash strategies.
package objectcache

import (
	"reflect"
	"sync"
)

// Initializer is called once, right after construction, for cached types
// that need more than their zero value.
type Initializer interface {
	Init()
}

// Cache maps a type to its single instance. Instances live as long as the
// Cache; there is no eviction.
type Cache struct {
	mu        sync.Mutex
	instances map[reflect.Type]any
}

func New() *Cache {
	return &Cache{instances: make(map[reflect.Type]any)}
}

// GetOrCreate returns the cached *T, constructing it on first use.
//
//	strategy := objectcache.GetOrCreate[hashing.SHA256Strategy](cache)
func GetOrCreate[T any](c *Cache) *T {
	key := reflect.TypeOf((*T)(nil)).Elem()

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.instances[key]; ok {
		return v.(*T)
	}
	if c.instances == nil {
		c.instances = make(map[reflect.Type]any)
	}
	v := new(T)
	if i, ok := any(v).(Initializer); ok {
		i.Init()
	}
	c.instances[key] = v
	return v
}

// Len returns the number of cached types.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.instances)
}
