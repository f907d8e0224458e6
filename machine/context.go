package machine

import (
	"maps"
	"sync"

	"github.com/flowstate-dev/flowstate/clone"
)

// Context is the mutable data value owned by exactly one Instance. It is
// created by deep-cloning the caller's seed, so no two instances ever share
// nested structure even when started from the same seed.
//
// Reads and writes through the accessors are safe between dispatches.
// Mutating the context while a dispatch is in flight races with that
// dispatch's own mutations and is unsupported.
type Context struct {
	mu   sync.RWMutex
	data map[string]any
}

// newContext wraps an already-cloned data map. Callers own the clone step.
func newContext(data map[string]any) *Context {
	if data == nil {
		data = make(map[string]any)
	}

	return &Context{data: data}
}

// Get retrieves a value. Missing keys return (nil, false).
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.data[key]

	return val, ok
}

// Set stores a value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = value
}

// Delete removes a key.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// GetString retrieves a string value. Missing or non-string values return
// ("", false).
func (c *Context) GetString(key string) (string, bool) {
	val, ok := c.Get(key)
	if !ok {
		return "", false
	}

	str, ok := val.(string)

	return str, ok
}

// GetBool retrieves a boolean value.
func (c *Context) GetBool(key string) (bool, bool) {
	val, ok := c.Get(key)
	if !ok {
		return false, false
	}

	b, ok := val.(bool)

	return b, ok
}

// GetInt retrieves an integer value.
func (c *Context) GetInt(key string) (int, bool) {
	val, ok := c.Get(key)
	if !ok {
		return 0, false
	}

	i, ok := val.(int)

	return i, ok
}

// GetMap retrieves a nested map value. The returned map is the live nested
// structure, not a copy; mutating it mutates the context.
func (c *Context) GetMap(key string) (map[string]any, bool) {
	val, ok := c.Get(key)
	if !ok {
		return nil, false
	}

	m, ok := val.(map[string]any)

	return m, ok
}

// Merge shallow-merges the given fields into the context, replacing existing
// top-level keys. This is the mechanism behind the Assign helper.
func (c *Context) Merge(fields map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	maps.Copy(c.data, fields)
}

// Len returns the number of top-level keys.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Snapshot returns a deep copy of the context data. The snapshot shares no
// structure with the live context.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return clone.Map(c.data)
}
