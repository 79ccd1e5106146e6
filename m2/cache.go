package m2

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes parsed models by content hash. Concurrent requests for the
// same content share one decode. Cached models must not be modified.
type Cache struct {
	parser *Parser

	mu     sync.Mutex
	models map[string]*Model
	group  singleflight.Group
}

func NewCache(parser *Parser) *Cache {
	if parser == nil {
		parser = NewParser(nil)
	}
	return &Cache{parser: parser, models: map[string]*Model{}}
}

func cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *Cache) lookup(key string) (*Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.models[key]
	return m, ok
}

// Parse returns the cached model for data, decoding it on first use.
// Failed parses are not cached.
func (c *Cache) Parse(data []byte) (*Model, error) {
	key := cacheKey(data)
	if m, ok := c.lookup(key); ok {
		return m, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if m, ok := c.lookup(key); ok {
			return m, nil
		}
		m, err := c.parser.Parse(data)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.models[key] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.models)
}
