// Package cache provides a small generic LRU cache for compiled artifacts
// (SPIR-V modules) that are expensive to rebuild and cheap to keep.
//
//	c := cache.New[string, []uint32](4)
//	c.Set(source, code)
//	code, ok := c.Get(source)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
