package translation

import (
	"context"
	"sync"
)

type cacheKey struct {
	text      string
	target    string
	inputType InputType
}

// Cache stores translations in memory, keyed by text, target language and input type
type Cache struct {
	mu           sync.RWMutex
	translations map[cacheKey]string
}

// NewCache creates a new translation cache
func NewCache() *Cache {
	return &Cache{
		translations: make(map[cacheKey]string),
	}
}

// Add adds a translation to the cache
func (c *Cache) Add(req Request, translation string) {
	c.mu.Lock()
	c.translations[keyFor(req)] = translation
	c.mu.Unlock()
}

// Get retrieves a translation from the cache
func (c *Cache) Get(req Request) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	translation, ok := c.translations[keyFor(req)]
	return translation, ok
}

// Len returns the number of cached translations
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.translations)
}

func keyFor(req Request) cacheKey {
	inputType := req.InputType
	if inputType == "" {
		inputType = InputText
	}
	return cacheKey{text: req.Text, target: req.TargetLanguage, inputType: inputType}
}

// CachedTranslator serves repeated requests from a Cache
type CachedTranslator struct {
	next  Translator
	cache *Cache
}

// NewCachedTranslator wraps next with cache
func NewCachedTranslator(next Translator, cache *Cache) *CachedTranslator {
	return &CachedTranslator{next: next, cache: cache}
}

// Name returns the wrapped provider name
func (t *CachedTranslator) Name() string {
	return t.next.Name() + " (cached)"
}

// Translate returns a cached translation or asks the wrapped translator
func (t *CachedTranslator) Translate(ctx context.Context, req Request) (string, error) {
	if translation, ok := t.cache.Get(req); ok {
		return translation, nil
	}

	translation, err := t.next.Translate(ctx, req)
	if err != nil {
		return "", err
	}
	t.cache.Add(req, translation)
	return translation, nil
}
