// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakebridge/api"
	"github.com/vechain/stakebridge/api/foreign"
	"github.com/vechain/stakebridge/api/home"
	"github.com/vechain/stakebridge/api/relay"
	"github.com/vechain/stakebridge/genesis"
	"github.com/vechain/stakebridge/logdb"
	"github.com/vechain/stakebridge/lvldb"
	"github.com/vechain/stakebridge/node"
	"github.com/vechain/stakebridge/thor"
)

var genesisTime = time.Unix(1_700_000_000, 0)

type testServer struct {
	*httptest.Server
	node  *node.Node
	clock clockwork.FakeClock
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	clock := clockwork.NewFakeClockAt(genesisTime)
	n, err := node.New(genesis.NewDevnet(), db, logDB, node.Options{SyncRelay: true, Clock: clock})
	require.NoError(t, err)
	t.Cleanup(n.Close)

	handler := api.New(n.Staker(), n.Mirror(), n.Relay(), n.LogDB(), api.Options{
		AllowedOrigins:  "*",
		EnableMetrics:   true,
		EnableReqLogger: true,
		LogsLimit:       100,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return &testServer{ts, n, clock}
}

func (ts *testServer) stake(t *testing.T, acc thor.Address, amount int64) {
	require.NoError(t, ts.node.Token().Approve(acc, ts.node.Genesis().Foreign.Staker, big.NewInt(amount)))
	require.NoError(t, ts.node.Staker().Stake(acc, big.NewInt(amount)))
}

func (ts *testServer) get(t *testing.T, path string, v any) int {
	res, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	return decode(t, res, v)
}

func (ts *testServer) post(t *testing.T, path string, body any, v any) int {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return decode(t, res, v)
}

func decode(t *testing.T, res *http.Response, v any) int {
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.Unmarshal(data, v), string(data))
	}
	return res.StatusCode
}

func TestForeign(t *testing.T) {
	ts := newTestServer(t)
	acc := genesis.DevAccounts()[2].Address

	ts.stake(t, acc, 100)
	staked := uint64(ts.clock.Now().Unix())
	ts.clock.Advance(time.Minute)
	require.NoError(t, ts.node.Staker().Unstake(acc, big.NewInt(40)))

	var account foreign.Account
	require.Equal(t, http.StatusOK, ts.get(t, "/foreign/accounts/"+acc.String(), &account))
	assert.Equal(t, int64(60), (*big.Int)(account.Balance).Int64())
	assert.Equal(t, int64(0), (*big.Int)(account.Locked).Int64())
	assert.Equal(t, int64(60), (*big.Int)(account.Unlocked).Int64())

	account = foreign.Account{}
	require.Equal(t, http.StatusOK, ts.get(t, fmt.Sprintf("/foreign/accounts/%v?at=%d", acc, staked), &account))
	assert.Equal(t, int64(100), (*big.Int)(account.Balance).Int64())
	assert.Nil(t, account.Locked)

	var supply foreign.Supply
	require.Equal(t, http.StatusOK, ts.get(t, "/foreign/supply", &supply))
	assert.Equal(t, int64(60), (*big.Int)(supply.TotalSupply).Int64())

	var cp foreign.Checkpoint
	require.Equal(t, http.StatusOK, ts.get(t, "/foreign/supply/checkpoints/0", &cp))
	assert.Equal(t, staked, cp.Timestamp)
	assert.Equal(t, int64(100), (*big.Int)(cp.Value).Int64())
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/foreign/accounts/"+acc.String()+"/checkpoints/9", nil))

	var box foreign.Box
	require.Equal(t, http.StatusOK, ts.get(t, "/foreign/boxes/1", &box))
	assert.Equal(t, acc, box.Holder)
	assert.Equal(t, int64(40), (*big.Int)(box.Amount).Int64())
	assert.False(t, box.Released)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/foreign/boxes/2", nil))

	var cfg foreign.Config
	require.Equal(t, http.StatusOK, ts.get(t, "/foreign/config", &cfg))
	assert.Equal(t, genesis.DevAccounts()[0].Address, cfg.Owner)
	assert.Equal(t, uint64(2), cfg.Nonce)
	assert.Equal(t, uint64(1), cfg.BoxCount)
	assert.True(t, cfg.EnableLocking)

	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/foreign/accounts/nope", nil))
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/foreign/supply?at=x", nil))
}

func TestForeignPush(t *testing.T) {
	ts := newTestServer(t)
	acc := genesis.DevAccounts()[2].Address
	ts.stake(t, acc, 100)
	now := uint64(ts.clock.Now().Unix())

	var res foreign.PushResult
	require.Equal(t, http.StatusOK, ts.post(t, "/foreign/push", pushBody(acc, now), &res))
	assert.False(t, res.MessageID.IsZero())

	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/foreign/push", pushBody(acc, now+10), nil))
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/foreign/push", map[string]any{"account": acc}, nil))
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/foreign/push", map[string]any{"bogus": 1}, nil))
}

func pushBody(acc thor.Address, ts uint64) map[string]any {
	return map[string]any{"account": acc, "timestamp": ts}
}

func TestHome(t *testing.T) {
	ts := newTestServer(t)
	acc := genesis.DevAccounts()[2].Address
	ts.stake(t, acc, 100)
	staked := uint64(ts.clock.Now().Unix())

	var account home.Account
	require.Equal(t, http.StatusOK, ts.get(t, "/home/accounts/"+acc.String(), &account))
	assert.Equal(t, int64(100), (*big.Int)(account.Balance).Int64())

	account = home.Account{}
	require.Equal(t, http.StatusOK, ts.get(t, fmt.Sprintf("/home/accounts/%v?at=%d", acc, staked-1), &account))
	assert.Equal(t, int64(0), (*big.Int)(account.Balance).Int64())

	var supply home.Supply
	require.Equal(t, http.StatusOK, ts.get(t, "/home/supply", &supply))
	assert.Equal(t, int64(100), (*big.Int)(supply.TotalSupply).Int64())

	var sync home.SyncState
	require.Equal(t, http.StatusOK, ts.get(t, "/home/accounts/"+acc.String()+"/sync", &sync))
	assert.Equal(t, home.SyncState{Timestamp: staked, Nonce: 1}, sync)
	require.Equal(t, http.StatusOK, ts.get(t, "/home/sync", &sync))
	assert.Equal(t, home.SyncState{Timestamp: staked, Nonce: 1}, sync)

	var cfg home.Config
	require.Equal(t, http.StatusOK, ts.get(t, "/home/config", &cfg))
	assert.Equal(t, ts.node.Genesis().Foreign.Staker, cfg.ForeignMediator)
}

func TestRelay(t *testing.T) {
	ts := newTestServer(t)
	acc := genesis.DevAccounts()[2].Address
	owner := genesis.DevAccounts()[0].Address

	// too little gas to carry any message
	require.NoError(t, ts.node.Staker().SetRequestGasLimit(owner, 1))
	ts.stake(t, acc, 100)

	var status relay.Status
	require.Equal(t, http.StatusOK, ts.get(t, "/relay", &status))
	assert.Equal(t, relay.Status{Pending: 0, Failures: 1, MaxGasPerTx: thor.DefaultMaxGasPerTx}, status)

	var failures []relay.Failure
	require.Equal(t, http.StatusOK, ts.get(t, "/relay/failures", &failures))
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Attempts)
	assert.Contains(t, failures[0].Reason, "out of gas")

	assert.Equal(t, http.StatusConflict, ts.post(t, "/relay/failures/"+failures[0].ID.String()+"/redeliver", nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.post(t, "/relay/failures/"+thor.Bytes32{1}.String()+"/redeliver", nil, nil))
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/relay/failures/zz/redeliver", nil, nil))

	require.Equal(t, http.StatusOK, ts.get(t, "/relay/failures", &failures))
	assert.Equal(t, 2, failures[0].Attempts)
}
