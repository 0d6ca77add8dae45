// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"time"

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/metrics"
)

var (
	metricOps         = metrics.LazyLoadCounterVec("staker_ops_count", []string{"op", "outcome"})
	metricOpDuration  = metrics.LazyLoadHistogramVec("staker_op_duration_ms", []string{"op"}, metrics.BucketOps)
	metricTotalSupply = metrics.LazyLoadGauge("staker_total_supply")
	metricTotalLocked = metrics.LazyLoadGauge("staker_total_locked")
	metricSyncSends   = metrics.LazyLoadCounterVec("staker_sync_sends_count", []string{"kind", "outcome"})
)

// observe records the outcome of op started at start.
func observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		if code := reverts.CodeOf(err); code != 0 {
			outcome = code.String()
		} else {
			outcome = "error"
		}
	}
	metricOps().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome})
	metricOpDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
}

// gaugeOf truncates v for a gauge.
func gaugeOf(v *big.Int) int64 {
	if v.IsInt64() {
		return v.Int64()
	}
	return int64(^uint64(0) >> 1)
}
