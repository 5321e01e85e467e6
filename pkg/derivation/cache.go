package derivation

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// stemCache memoizes resolved roots by normalized word. An empty value means
// the word resolved to no root. A nil *stemCache is a valid, disabled cache.
type stemCache struct {
	c *ristretto.Cache[string, string]
}

func newStemCache(size int64) (*stemCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
		// Cost is counted in entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create stem cache: %w", err)
	}
	return &stemCache{c: c}, nil
}

func (sc *stemCache) get(word string) (string, bool) {
	if sc == nil {
		return "", false
	}
	return sc.c.Get(word)
}

func (sc *stemCache) set(word, root string) {
	if sc == nil {
		return
	}
	sc.c.Set(word, root, 1)
}

// wait blocks until buffered writes are visible to get.
func (sc *stemCache) wait() {
	if sc != nil {
		sc.c.Wait()
	}
}

func (sc *stemCache) close() {
	if sc != nil {
		sc.c.Close()
	}
}
