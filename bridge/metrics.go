// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bridge

import "github.com/vechain/stakebridge/metrics"

var (
	metricRelayMessages = metrics.LazyLoadCounterVec("relay_messages_count", []string{"outcome"})
	metricRelayPending  = metrics.LazyLoadGauge("relay_pending_count")
)
