package routing

import (
	"encoding/binary"
	"errors"

	"github.com/coocood/freecache"
)

// resultCache memoizes distance results keyed by (s, t, method). Results are
// deterministic for a static graph, so entries never expire.
type resultCache struct {
	c *freecache.Cache
}

func newResultCache(numBytes int) *resultCache {
	return &resultCache{c: freecache.NewCache(numBytes)}
}

func cacheKey(s, t uint32, m Method) []byte {
	var k [9]byte
	binary.LittleEndian.PutUint32(k[0:], s)
	binary.LittleEndian.PutUint32(k[4:], t)
	k[8] = byte(m)
	return k[:]
}

func (rc *resultCache) get(s, t uint32, m Method) (Result, bool) {
	v, err := rc.c.Get(cacheKey(s, t, m))
	if errors.Is(err, freecache.ErrNotFound) || len(v) != 16 {
		return Result{}, false
	}
	dist := int64(binary.LittleEndian.Uint64(v[0:]))
	return Result{
		Distance:  dist,
		Reachable: dist != Unreachable,
		Touched:   int(binary.LittleEndian.Uint64(v[8:])),
	}, true
}

func (rc *resultCache) put(s, t uint32, m Method, res Result) {
	var v [16]byte
	binary.LittleEndian.PutUint64(v[0:], uint64(res.Distance))
	binary.LittleEndian.PutUint64(v[8:], uint64(res.Touched))
	// Set only fails for oversized entries, which 16 bytes never is.
	_ = rc.c.Set(cacheKey(s, t, m), v[:], 0)
}

// CacheStats reports cumulative hits and misses of the result cache.
type CacheStats struct {
	Entries int64
	Hits    int64
	Misses  int64
}

func (rc *resultCache) stats() CacheStats {
	return CacheStats{
		Entries: rc.c.EntryCount(),
		Hits:    rc.c.HitCount(),
		Misses:  rc.c.MissCount(),
	}
}
