package forecast

import (
	"context"
	"slices"
	"sync"

	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

// MemoryCache is an in-process Cache. The zero value is ready to use.
type MemoryCache struct {
	m sync.Map // Key -> []hijri.Mapping
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) LoadCalendar(_ context.Context, key Key) ([]hijri.Mapping, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.([]hijri.Mapping)), true
}

func (c *MemoryCache) SaveCalendar(_ context.Context, key Key, days []hijri.Mapping) error {
	c.m.Store(key, slices.Clone(days))
	return nil
}

// Len returns the number of cached months.
func (c *MemoryCache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
