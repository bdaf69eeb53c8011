package score

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
)

// Cache memoizes scoring results. The caller owns its lifecycle.
type Cache interface {
	Get(key string) ([]TermScore, bool)
	Put(key string, scores []TermScore)
}

// Scorer runs ScoreTerms, consulting an optional cache first.
type Scorer struct {
	cache Cache
}

// NewScorer creates a scorer. A nil cache disables memoization.
func NewScorer(cache Cache) *Scorer {
	return &Scorer{cache: cache}
}

// Score returns ScoreTerms(docs, minDF, topN), served from the cache when
// the same corpus and parameters were scored before.
func (s *Scorer) Score(docs [][]string, minDF, topN int) ([]TermScore, error) {
	if s == nil || s.cache == nil {
		return ScoreTerms(docs, minDF, topN)
	}

	key := CacheKey(docs, minDF, topN)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	scores, err := ScoreTerms(docs, minDF, topN)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, scores)
	return scores, nil
}

// CacheKey hashes a corpus and scoring parameters.
func CacheKey(docs [][]string, minDF, topN int) string {
	h := sha256.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.BigEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	writeInt(minDF)
	writeInt(topN)
	writeInt(len(docs))
	for _, doc := range docs {
		writeInt(len(doc))
		for _, term := range doc {
			writeInt(len(term))
			h.Write([]byte(term))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MemoryCache is an in-process Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]TermScore
	maxSize int
}

// NewMemoryCache creates a cache holding at most maxSize entries; when
// full, it is cleared before the next insert. maxSize <= 0 means unbounded.
func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{entries: make(map[string][]TermScore), maxSize: maxSize}
}

// Get returns a copy of the cached scores for key.
func (c *MemoryCache) Get(key string) ([]TermScore, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	scores, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return append([]TermScore(nil), scores...), true
}

// Put stores a copy of scores under key.
func (c *MemoryCache) Put(key string, scores []TermScore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.entries = make(map[string][]TermScore)
	}
	c.entries[key] = append([]TermScore(nil), scores...)
}

// Invalidate drops every entry.
func (c *MemoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]TermScore)
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
