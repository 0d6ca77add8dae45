// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakebridge/api/events"
	"github.com/vechain/stakebridge/api/foreign"
	"github.com/vechain/stakebridge/api/home"
	"github.com/vechain/stakebridge/api/relay"
	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/mirror"
	"github.com/vechain/stakebridge/builtin/staker"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/logdb"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	SkipLogs        bool
	EnableReqLogger bool
	EnableMetrics   bool
	LogsLimit       uint64
}

// New return api router
func New(
	staker *staker.Staker,
	mirror *mirror.Mirror,
	amb *bridge.AMB,
	logDB *logdb.LogDB,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	foreign.New(staker).
		Mount(router, "/foreign")
	home.New(mirror).
		Mount(router, "/home")
	relay.New(amb).
		Mount(router, "/relay")
	if !opts.SkipLogs {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}
	return handler.ServeHTTP
}
