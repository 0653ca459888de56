package replica

import (
	"fmt"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/opchan/core/message"
)

// dedupCacheBytes bounds the fast-path duplicate filter so a long-lived
// replica does not grow an ever-larger Go map of every message it has
// ever seen. The durable store and in-memory collection indexes remain
// the full record; this is purely a bounded accelerator (see
// DESIGN.md, C5).
const dedupCacheBytes = 32 * 1024 * 1024

var presentMarker = []byte{1}

// seenSet is the (kind,id,timestamp) dedup filter, backed by
// fastcache the way the teacher/geth family uses it as a bounded
// byte-addressed cache for trie nodes.
type seenSet struct {
	cache *fastcache.Cache
}

func newSeenSet() *seenSet {
	return &seenSet{cache: fastcache.New(dedupCacheBytes)}
}

func dedupKey(kind message.Kind, id string, timestampMs int64) []byte {
	return []byte(fmt.Sprintf("%s|%s|%d", kind, id, timestampMs))
}

func (s *seenSet) Has(kind message.Kind, id string, timestampMs int64) bool {
	return s.cache.Has(dedupKey(kind, id, timestampMs))
}

func (s *seenSet) Add(kind message.Kind, id string, timestampMs int64) {
	s.cache.Set(dedupKey(kind, id, timestampMs), presentMarker)
}
