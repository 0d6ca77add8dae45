// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"time"

	"github.com/vechain/stakebridge/metrics"
	"github.com/vechain/stakebridge/state"
)

const cacheStatsInterval = 20 * time.Second

var metricStateCacheHitMiss = metrics.LazyLoadGaugeVec("state_cache_hit_miss_count", []string{"type", "event"})

type namedState struct {
	name string
	st   *state.State
}

// reportCacheStats publishes hit/miss counters of every state cache
// and logs the ones whose hit rate moved since the last report.
func (n *Node) reportCacheStats() {
	for _, s := range n.states {
		changed, hit, miss := s.st.CacheStats().Stats()
		if changed {
			rate := float64(0)
			if lookups := hit + miss; lookups > 0 {
				rate = float64(hit) / float64(lookups)
			}
			logger.Debug("state cache stats", "type", s.name, "hit", hit, "miss", miss, "rate", rate)
		}
		metricStateCacheHitMiss().SetWithLabel(hit, map[string]string{"type": s.name, "event": "hit"})
		metricStateCacheHitMiss().SetWithLabel(miss, map[string]string{"type": s.name, "event": "miss"})
	}
}

func (n *Node) runCacheStats(ctx context.Context) {
	ticker := n.clock.NewTicker(cacheStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			n.reportCacheStats()
		}
	}
}
