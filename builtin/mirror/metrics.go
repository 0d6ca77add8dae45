// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mirror

import "github.com/vechain/stakebridge/metrics"

var metricApplied = metrics.LazyLoadCounterVec("mirror_messages_count", []string{"kind", "outcome"})
