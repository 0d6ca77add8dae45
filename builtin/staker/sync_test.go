// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/test/datagen"
	"github.com/vechain/stakebridge/thor"
)

func TestSnapshotsFollowOps(t *testing.T) {
	f := newFixture(t, true)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)

	NewSequence(f).
		Stake(acc, 30).
		Advance(time.Second).
		Lock(acc, 10).
		Unstake(acc, 10).
		Run(t)

	got := f.delivered()
	require.Len(t, got, 2, "lock does not sync")

	first := got[0].(*bridge.BalanceSnapshot)
	assert.Equal(t, acc, first.Account)
	assert.Equal(t, int64(30), first.Balance.Int64())
	assert.Equal(t, int64(30), first.TotalSupply.Int64())
	assert.Equal(t, uint64(1), first.Nonce)

	second := got[1].(*bridge.BalanceSnapshot)
	assert.Equal(t, int64(20), second.Balance.Int64())
	assert.Equal(t, int64(20), second.TotalSupply.Int64())
	assert.Equal(t, uint64(2), second.Nonce)
	assert.Greater(t, second.Timestamp, first.Timestamp)

	nonce, err := f.staker.Nonce()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)
	assert.Empty(t, f.amb.Failures())
}

func TestSnapshotCarriesMessageID(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 10)

	ch := make(chan *Event, 8)
	sub := f.staker.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	NewSequence(f).Stake(acc, 10).Run(t)
	envs := f.amb.Drain()
	require.Len(t, envs, 1)

	<-ch
	sent := <-ch
	assert.Equal(t, EventSnapshotSent, sent.Name)
	assert.Equal(t, envs[0].ID, sent.MessageID)
	assert.Equal(t, uint64(1), sent.Nonce)
	assert.Equal(t, f.cfg.Address, envs[0].Sender)
	assert.Equal(t, f.mediator, envs[0].Receiver)
	assert.Equal(t, homeDomain, envs[0].Dest)
}

func TestSendFailureKeepsState(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 20)

	require.NoError(t, f.staker.SetMediatorContractOnOtherSide(f.owner, thor.Address{}))
	NewSequence(f).Stake(acc, 10).Run(t)
	assert.Equal(t, int64(10), f.balance(t, acc))
	assert.Zero(t, f.amb.Pending())

	// relay max gas lowered below the configured request gas
	require.NoError(t, f.staker.SetMediatorContractOnOtherSide(f.owner, f.mediator))
	f.amb.SetMaxGasPerTx(thor.DefaultRequestGasLimit - 1)
	NewSequence(f).Stake(acc, 10).Run(t)
	assert.Equal(t, int64(20), f.balance(t, acc))
	assert.Zero(t, f.amb.Pending())

	// the nonce still advanced, so the home side sees a gap rather than a reuse
	nonce, err := f.staker.Nonce()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)
}

func TestNoRelay(t *testing.T) {
	f := newFixture(t, false)
	cfg := f.cfg
	cfg.Address = thor.BytesToAddress([]byte("standalone"))
	s, err := New(cfg, f.state, f.asset, nil, f.clock)
	require.NoError(t, err)
	defer s.Close()

	acc := datagen.RandAddress()
	require.NoError(t, f.token.Mint(acc, big.NewInt(5)))
	require.NoError(t, f.token.Approve(acc, cfg.Address, big.NewInt(5)))
	require.NoError(t, s.Stake(acc, big.NewInt(5)))

	_, err = s.PushCachedBalance(acc, f.now())
	assert.Error(t, err)
}

func TestPushCachedBalance(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)

	t1 := f.now()
	NewSequence(f).Stake(acc, 30).Advance(time.Minute).Unstake(acc, 10).Run(t)
	f.amb.Drain()

	id, err := f.staker.PushCachedBalance(acc, t1)
	require.NoError(t, err)
	assert.False(t, id.IsZero())

	_, err = f.staker.PushCachedBalance(acc, t1-1)
	require.NoError(t, err)

	got := f.delivered()
	require.Len(t, got, 2)
	cached := got[0].(*bridge.CachedBalance)
	assert.Equal(t, acc, cached.Account)
	assert.Equal(t, t1, cached.Timestamp)
	assert.Equal(t, int64(30), cached.Balance.Int64())
	assert.Equal(t, int64(0), got[1].(*bridge.CachedBalance).Balance.Int64())

	_, err = f.staker.PushCachedBalance(acc, f.now()+1)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	nonce, err := f.staker.Nonce()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce, "cached pushes do not consume nonces")
}
