// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"strings"

	"github.com/vechain/stakebridge/metrics"
)

var (
	metricCriteriaLength = metrics.LazyLoadHistogram("logdb_criteria_length", []int64{0, 1, 2, 5, 10, 25})
	metricQueryParams    = metrics.LazyLoadCounterVec("logdb_query_parameters", []string{"parameters"})
	metricQueryOrder     = metrics.LazyLoadCounterVec("logdb_query_order", []string{"order"})
	metricLimit          = metrics.LazyLoadHistogram("logdb_query_limit", []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000})
	metricWrites         = metrics.LazyLoadCounter("logdb_events_written_count")
)

func metricsHandleEventsFilter(filter *EventFilter) {
	if metrics.NoOp() {
		return
	}

	metricCriteriaLength().Observe(int64(len(filter.CriteriaSet)))
	for _, c := range filter.CriteriaSet {
		var used []string
		if c.Domain != "" {
			used = append(used, "domain")
		}
		if c.Name != "" {
			used = append(used, "name")
		}
		if c.Account != nil {
			used = append(used, "account")
		}
		metricQueryParams().AddWithLabel(1, map[string]string{"parameters": strings.Join(used, ",")})
	}

	order := "asc"
	if filter.Order == DESC {
		order = "desc"
	}
	metricQueryOrder().AddWithLabel(1, map[string]string{"order": order})

	if filter.Options != nil {
		limit := filter.Options.Limit
		if limit > 1000 {
			limit = 1001
		}
		metricLimit().Observe(int64(limit))
	}
}
