package pipeline

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"reforge/internal/parser"
)

// validity is a cached parse outcome for one exact file content.
type validity struct {
	ok  bool
	err *parser.ParseError
}

// ParseCache remembers whether a given (path, content) pair parsed
// cleanly. Trees themselves are never cached; each apply pass owns its
// tree lifetime. The win is failing fast on content already known to be
// malformed, which is the common shape of a retry loop upstream.
type ParseCache struct {
	lru *lru.Cache[string, validity]
}

func NewParseCache(size int) (*ParseCache, error) {
	c, err := lru.New[string, validity](size)
	if err != nil {
		return nil, err
	}
	return &ParseCache{lru: c}, nil
}

func cacheKey(path, content string) string {
	sum := sha256.Sum256([]byte(content))
	return path + ":" + hex.EncodeToString(sum[:])
}

// Lookup returns the cached parse outcome, if any.
func (c *ParseCache) Lookup(path, content string) (valid bool, perr *parser.ParseError, hit bool) {
	v, ok := c.lru.Get(cacheKey(path, content))
	if !ok {
		return false, nil, false
	}
	return v.ok, v.err, true
}

// Record stores a parse outcome.
func (c *ParseCache) Record(path, content string, perr *parser.ParseError) {
	c.lru.Add(cacheKey(path, content), validity{ok: perr == nil, err: perr})
}
