// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/mirror"
	"github.com/vechain/stakebridge/health"
	"github.com/vechain/stakebridge/log"
)

type relayStub struct{ failures []bridge.Failure }

func (r *relayStub) Pending() int               { return 0 }
func (r *relayStub) Failures() []bridge.Failure { return r.failures }

type syncedStub struct{}

func (syncedStub) LastAppliedGlobal() (mirror.SyncState, error) { return mirror.SyncState{}, nil }

func newHandler(level *slog.LevelVar, relay *relayStub) http.Handler {
	return HTTPHandler(level, health.New(relay, syncedStub{}, clockwork.NewFakeClock(), time.Minute))
}

func serve(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, bytes.NewReader(body)))
	return rr
}

func TestLogLevel(t *testing.T) {
	var level slog.LevelVar
	level.Set(slog.LevelInfo)
	h := newHandler(&level, &relayStub{})

	rr := serve(h, http.MethodGet, "/admin/loglevel", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var res logLevelResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "info", res.CurrentLevel)

	rr = serve(h, http.MethodPost, "/admin/loglevel", []byte(`{"level":"trace"}`))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "trace", res.CurrentLevel)
	assert.Equal(t, log.LevelTrace, level.Level())
}

func TestLogLevelInvalid(t *testing.T) {
	var level slog.LevelVar
	h := newHandler(&level, &relayStub{})

	tests := []struct {
		method string
		body   string
		code   int
		msg    string
	}{
		{http.MethodPost, `{"level":"loud"}`, http.StatusBadRequest, "Invalid verbosity level"},
		{http.MethodPost, `{`, http.StatusBadRequest, "Invalid request body"},
		{http.MethodPut, `{}`, http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tt := range tests {
		rr := serve(h, tt.method, "/admin/loglevel", []byte(tt.body))
		assert.Equal(t, tt.code, rr.Code)
		var res errorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, tt.msg, res.ErrorMessage)
	}
	assert.Equal(t, slog.LevelInfo, level.Level())
}

func TestHealth(t *testing.T) {
	var level slog.LevelVar
	relay := &relayStub{}
	h := newHandler(&level, relay)

	rr := serve(h, http.MethodGet, "/admin/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var status health.Status
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
	assert.True(t, status.Healthy)

	relay.failures = []bridge.Failure{{Reason: "rejected"}}
	rr = serve(h, http.MethodGet, "/admin/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
	assert.False(t, status.Healthy)
	assert.Equal(t, 1, status.Relay.Failures)
}
