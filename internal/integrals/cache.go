// cache.go --  This file is part of goHF project.
// Mirzaeva Irina, 2023
//
//	goHF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package integrals

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheCapacity bounds the number of cached values.
const DefaultCacheCapacity = 10000

// Source is a Provider whose results depend only on content it can
// fingerprint, which makes them shareable between calculations.
type Source interface {
	Provider
	Fingerprint() uint64
}

type cacheKey struct {
	src uint64
	key Key
}

// Cache is a bounded LRU of integral values shared by any number of
// calculations. Concurrent requests for the same missing value run the
// underlying computation once. Errors are not cached.
type Cache struct {
	mu    sync.Mutex
	lru   *lru.Cache
	group singleflight.Group

	hits, misses, evictions atomic.Int64
}

type CacheStats struct {
	Hits, Misses, Evictions int64
	Entries                 int
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &Cache{lru: lru.New(capacity)}
	c.lru.OnEvicted = func(lru.Key, interface{}) { c.evictions.Add(1) }
	return c
}

// Wrap returns a Provider that answers from the cache and falls back to src.
func (c *Cache) Wrap(src Source) Provider {
	return &cachedProvider{cache: c, src: src, fp: src.Fingerprint()}
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	n := c.lru.Len()
	c.mu.Unlock()
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   n,
	}
}

func (c *Cache) lookup(k cacheKey) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(k)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

func (c *Cache) store(k cacheKey, v float64) {
	c.mu.Lock()
	c.lru.Add(k, v)
	c.mu.Unlock()
}

type cachedProvider struct {
	cache *Cache
	src   Source
	fp    uint64
}

func (p *cachedProvider) Integral(k Key) (float64, error) {
	ck := cacheKey{src: p.fp, key: k.Canonical()}
	if v, ok := p.cache.lookup(ck); ok {
		p.cache.hits.Add(1)
		return v, nil
	}
	flight := fmt.Sprintf("%016x/%v", ck.src, ck.key)
	v, err, _ := p.cache.group.Do(flight, func() (interface{}, error) {
		// another flight may have finished between lookup and Do
		if v, ok := p.cache.lookup(ck); ok {
			return v, nil
		}
		p.cache.misses.Add(1)
		v, err := p.src.Integral(ck.key)
		if err != nil {
			return 0.0, err
		}
		p.cache.store(ck, v)
		return v, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}
