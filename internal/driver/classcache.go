package driver

import (
	"sync"

	"pascalc/internal/codegen"
)

// minimal per-process cache by unit path + cache key
type cached struct {
	key     Digest
	lowered *codegen.Lowered
}

// ClassCache keeps lowered classes for the lifetime of one command, so a
// unit named twice on the command line lowers once.
type ClassCache struct {
	mu     sync.RWMutex
	byUnit map[string]cached
}

// NewClassCache creates a ClassCache with the given capacity hint.
func NewClassCache(capHint int) *ClassCache {
	return &ClassCache{byUnit: make(map[string]cached, capHint)}
}

// Get returns the class lowered for path under key. An entry for the same
// path under another key is a miss.
func (c *ClassCache) Get(path string, key Digest) (*codegen.Lowered, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	rec, ok := c.byUnit[path]
	c.mu.RUnlock()
	if !ok || rec.key != key {
		return nil, false
	}
	return rec.lowered, true
}

// Put records the class lowered for path under key.
func (c *ClassCache) Put(path string, key Digest, l *codegen.Lowered) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byUnit[path] = cached{key: key, lowered: l}
	c.mu.Unlock()
}
