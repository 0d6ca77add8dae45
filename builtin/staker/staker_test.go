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

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/test/datagen"
	"github.com/vechain/stakebridge/thor"
)

func TestBalanceHistory(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 50)

	t1 := f.now()
	NewSequence(f).
		Stake(acc, 50).
		Advance(10*time.Second).
		Unstake(acc, 20).
		Run(t)
	t2 := f.now()

	tests := []struct {
		ts      uint64
		balance int64
	}{
		{t1 - 1, 0},
		{t1, 50},
		{t2 - 1, 50},
		{t2, 30},
		{t2 + 1000, 30},
	}
	for _, tt := range tests {
		bal, err := f.staker.BalanceOfAt(acc, tt.ts)
		require.NoError(t, err)
		assert.Equal(t, tt.balance, bal.Int64(), "balance at %d", tt.ts)

		supply, err := f.staker.TotalSupplyAt(tt.ts)
		require.NoError(t, err)
		assert.Equal(t, tt.balance, supply.Int64(), "supply at %d", tt.ts)
	}

	assert.Equal(t, int64(30), f.balance(t, acc))
	assert.Equal(t, int64(30), f.supply(t))
	// unstaked assets stay in custody until the box is released
	assert.Equal(t, int64(0), f.tokenBalance(t, acc))
	assert.Equal(t, int64(50), f.tokenBalance(t, f.cfg.Address))

	cp, err := f.staker.Checkpoint(&acc, 1)
	require.NoError(t, err)
	assert.Equal(t, t2, cp.Timestamp)
	assert.Equal(t, int64(30), cp.Value.Int64())
}

func TestCoolDownRelease(t *testing.T) {
	f := newFixture(t, false)
	acc, other := datagen.RandAddress(), datagen.RandAddress()
	f.fund(t, acc, 30)

	NewSequence(f).Stake(acc, 30).Unstake(acc, 20).Run(t)
	created := f.now()

	count, err := f.staker.CoolDownBoxCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	box, err := f.staker.CoolDownBox(1)
	require.NoError(t, err)
	require.NotNil(t, box)
	assert.Equal(t, acc, box.Holder)
	assert.Equal(t, int64(20), box.Amount.Int64())
	assert.Equal(t, created, box.CreatedAt)
	assert.Equal(t, created+uint64(period/time.Second), box.ReleasedSince)
	assert.False(t, box.Released)

	_, err = f.staker.ReleaseCoolDownBox(acc, 1)
	assert.True(t, reverts.Is(err, reverts.NotYetMatured))

	f.clock.Advance(period - time.Second)
	_, err = f.staker.ReleaseCoolDownBox(acc, 1)
	assert.True(t, reverts.Is(err, reverts.NotYetMatured))

	f.clock.Advance(time.Second)
	_, err = f.staker.ReleaseCoolDownBox(other, 1)
	assert.True(t, reverts.Is(err, reverts.NotBoxHolder))

	released, err := f.staker.ReleaseCoolDownBox(acc, 1)
	require.NoError(t, err)
	assert.True(t, released.Released)
	assert.Equal(t, int64(20), f.tokenBalance(t, acc))
	assert.Equal(t, int64(10), f.tokenBalance(t, f.cfg.Address))

	_, err = f.staker.ReleaseCoolDownBox(acc, 1)
	assert.True(t, reverts.Is(err, reverts.AlreadyReleased))
	assert.Equal(t, int64(20), f.tokenBalance(t, acc))

	_, err = f.staker.ReleaseCoolDownBox(acc, 2)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))
}

func TestBoxIDsAreSequential(t *testing.T) {
	f := newFixture(t, false)
	a, b := datagen.RandAddress(), datagen.RandAddress()
	f.fund(t, a, 10)
	f.fund(t, b, 10)

	NewSequence(f).
		Stake(a, 10).Stake(b, 10).
		Unstake(a, 1).Unstake(b, 2).Unstake(a, 3).
		Run(t)

	for id, want := range map[uint64]thor.Address{1: a, 2: b, 3: a} {
		box, err := f.staker.CoolDownBox(id)
		require.NoError(t, err)
		require.NotNil(t, box)
		assert.Equal(t, want, box.Holder)
		assert.Equal(t, int64(id), box.Amount.Int64())
	}
	box, err := f.staker.CoolDownBox(4)
	require.NoError(t, err)
	assert.Nil(t, box)
}

func TestReleasePayoutFailureRestoresBox(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 10)
	NewSequence(f).Stake(acc, 10).Unstake(acc, 10).Advance(period).Run(t)

	f.asset.setFail(true)
	_, err := f.staker.ReleaseCoolDownBox(acc, 1)
	assert.EqualError(t, err, "payout failed")

	box, err := f.staker.CoolDownBox(1)
	require.NoError(t, err)
	assert.False(t, box.Released)

	f.asset.setFail(false)
	_, err = f.staker.ReleaseCoolDownBox(acc, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.tokenBalance(t, acc))
}

func TestUnstakeExceedsBalance(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)
	NewSequence(f).Stake(acc, 30).Run(t)

	err := f.staker.Unstake(acc, big.NewInt(31))
	assert.True(t, reverts.Is(err, reverts.InsufficientUnlockedBalance))
	assert.EqualError(t, err, "exceeds the balance")
	assert.Equal(t, int64(30), f.balance(t, acc))

	count, err := f.staker.CoolDownBoxCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLocking(t *testing.T) {
	f := newFixture(t, true)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)
	NewSequence(f).Stake(acc, 30).Lock(acc, 20).Run(t)

	locked, err := f.staker.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.Equal(t, int64(20), locked.Int64())
	unlocked, err := f.staker.UnlockedBalanceOf(acc)
	require.NoError(t, err)
	assert.Equal(t, int64(10), unlocked.Int64())

	totalLocked, err := f.staker.TotalLocked()
	require.NoError(t, err)
	assert.Equal(t, int64(20), totalLocked.Int64())
	totalUnlocked, err := f.staker.TotalUnlocked()
	require.NoError(t, err)
	assert.Equal(t, int64(10), totalUnlocked.Int64())

	err = f.staker.Lock(acc, big.NewInt(11))
	assert.True(t, reverts.Is(err, reverts.InsufficientUnlockedBalance))

	err = f.staker.Unstake(acc, big.NewInt(11))
	assert.True(t, reverts.Is(err, reverts.InsufficientUnlockedBalance))
	assert.EqualError(t, err, "exceeds the unlocked balance")

	err = f.staker.Unlock(acc, big.NewInt(21))
	assert.True(t, reverts.Is(err, reverts.InsufficientLockedBalance))

	require.NoError(t, f.staker.Unlock(acc, big.NewInt(20)))
	require.NoError(t, f.staker.Unstake(acc, big.NewInt(30)))
	assert.Equal(t, int64(0), f.balance(t, acc))
}

func TestLockingDisabled(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)
	NewSequence(f).Stake(acc, 30).Run(t)

	assert.True(t, reverts.Is(f.staker.Lock(acc, big.NewInt(1)), reverts.Unauthorized))
	assert.True(t, reverts.Is(f.staker.Unlock(acc, big.NewInt(1)), reverts.Unauthorized))
}

func TestSlashLocked(t *testing.T) {
	f := newFixture(t, true)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)
	NewSequence(f).Stake(acc, 30).Lock(acc, 30).Run(t)

	err := f.staker.SlashLocked(acc, acc, big.NewInt(30))
	assert.True(t, reverts.Is(err, reverts.Unauthorized))

	err = f.staker.SlashLocked(f.slasher, acc, big.NewInt(31))
	assert.True(t, reverts.Is(err, reverts.InsufficientLockedBalance))

	require.NoError(t, f.staker.SlashLocked(f.slasher, acc, big.NewInt(30)))
	assert.Equal(t, int64(0), f.balance(t, acc))
	assert.Equal(t, int64(0), f.supply(t))
	locked, err := f.staker.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.Zero(t, locked.Sign())

	box, err := f.staker.CoolDownBox(1)
	require.NoError(t, err)
	assert.Equal(t, f.slasher, box.Holder)
	assert.Equal(t, int64(30), box.Amount.Int64())

	f.clock.Advance(period)
	_, err = f.staker.ReleaseCoolDownBox(acc, 1)
	assert.True(t, reverts.Is(err, reverts.NotBoxHolder))
	_, err = f.staker.ReleaseCoolDownBox(f.slasher, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), f.tokenBalance(t, f.slasher))
}

func TestSlashWithoutSlasher(t *testing.T) {
	f := newFixture(t, true)
	acc := datagen.RandAddress()
	f.fund(t, acc, 10)
	NewSequence(f).Stake(acc, 10).Lock(acc, 10).Run(t)

	require.NoError(t, f.staker.SetLockedStakeSlasher(f.owner, thor.Address{}))
	err := f.staker.SlashLocked(thor.Address{}, acc, big.NewInt(10))
	assert.True(t, reverts.Is(err, reverts.Unauthorized))
}

func TestStakeInsufficientAsset(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 10)

	err := f.staker.Stake(acc, big.NewInt(20))
	assert.True(t, reverts.Is(err, reverts.InsufficientAssetBalance))
	assert.Equal(t, int64(0), f.balance(t, acc))
	assert.Equal(t, int64(0), f.supply(t))
	assert.Equal(t, int64(10), f.tokenBalance(t, acc))

	nonce, err := f.staker.Nonce()
	require.NoError(t, err)
	assert.Zero(t, nonce)
}

func TestStakeRefundedOnOrderingViolation(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 20)
	NewSequence(f).Stake(acc, 10).Advance(-10 * time.Second).Run(t)

	err := f.staker.Stake(acc, big.NewInt(10))
	assert.True(t, reverts.Is(err, reverts.OrderingViolation))
	assert.Equal(t, int64(10), f.balance(t, acc))
	assert.Equal(t, int64(10), f.tokenBalance(t, acc))
	assert.Equal(t, int64(10), f.tokenBalance(t, f.cfg.Address))
}

func TestZeroAmounts(t *testing.T) {
	f := newFixture(t, true)
	acc := datagen.RandAddress()

	for name, err := range map[string]error{
		"stake":   f.staker.Stake(acc, big.NewInt(0)),
		"unstake": f.staker.Unstake(acc, big.NewInt(0)),
		"lock":    f.staker.Lock(acc, big.NewInt(0)),
		"unlock":  f.staker.Unlock(acc, nil),
		"slash":   f.staker.SlashLocked(f.slasher, acc, big.NewInt(-1)),
	} {
		assert.True(t, reverts.Is(err, reverts.InvalidArgument), name)
	}
}

func TestAmountsBeyondUint256(t *testing.T) {
	f := newFixture(t, true)
	acc := datagen.RandAddress()
	huge := new(big.Int).Lsh(big.NewInt(1), 256)

	for name, err := range map[string]error{
		"stake":   f.staker.Stake(acc, huge),
		"unstake": f.staker.Unstake(acc, huge),
		"lock":    f.staker.Lock(acc, huge),
		"unlock":  f.staker.Unlock(acc, huge),
		"slash":   f.staker.SlashLocked(f.slasher, acc, huge),
	} {
		assert.True(t, reverts.Is(err, reverts.InvalidArgument), name)
	}

	total, err := f.staker.TotalLocked()
	require.NoError(t, err)
	assert.Zero(t, total.Sign())
}

func TestSameTimestampOverwrites(t *testing.T) {
	f := newFixture(t, false)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)

	ch := make(chan *Event, 16)
	sub := f.staker.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	NewSequence(f).Stake(acc, 10).Stake(acc, 20).Run(t)

	var stakes []*Event
	for len(ch) > 0 {
		if ev := <-ch; ev.Name == EventStake {
			stakes = append(stakes, ev)
		}
	}
	require.Len(t, stakes, 2)
	assert.Equal(t, stakes[0].AccountCheckpoint, stakes[1].AccountCheckpoint)
	assert.Equal(t, stakes[0].SupplyCheckpoint, stakes[1].SupplyCheckpoint)

	cp, err := f.staker.Checkpoint(&acc, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(30), cp.Value.Int64())
	cp, err = f.staker.Checkpoint(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(30), cp.Value.Int64())
}

func TestEvents(t *testing.T) {
	f := newFixture(t, true)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)

	ch := make(chan *Event, 32)
	sub := f.staker.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	NewSequence(f).
		Stake(acc, 30).
		Lock(acc, 10).
		Unstake(acc, 5).
		Advance(period).
		AddFunc(func(t *testing.T) {
			_, err := f.staker.ReleaseCoolDownBox(acc, 1)
			require.NoError(t, err)
		}).
		Run(t)

	var names []string
	for len(ch) > 0 {
		names = append(names, (<-ch).Name)
	}
	assert.Equal(t, []string{
		EventStake, EventSnapshotSent,
		EventLock,
		EventUnstake, EventNewCoolDownBox, EventSnapshotSent,
		EventCoolDownBoxReleased,
	}, names)

	// failed ops emit nothing
	assert.Error(t, f.staker.Unstake(acc, big.NewInt(100)))
	assert.Zero(t, len(ch))
}

func TestRestart(t *testing.T) {
	f := newFixture(t, true)
	acc := datagen.RandAddress()
	f.fund(t, acc, 30)
	NewSequence(f).Stake(acc, 30).Lock(acc, 10).Unstake(acc, 5).Run(t)

	cfg := f.cfg
	cfg.Owner = datagen.RandAddress()
	cfg.CoolDownPeriod = 2 * period

	st, err := newStateFor(f)
	require.NoError(t, err)
	restarted, err := New(cfg, st, f.asset, f.amb.Endpoint(foreignDomain, cfg.Address), f.clock)
	require.NoError(t, err)
	defer restarted.Close()

	owner, err := restarted.Owner()
	require.NoError(t, err)
	assert.Equal(t, f.owner, owner)
	assert.Equal(t, uint64(period/time.Second), restarted.CoolDownPeriod())

	bal, err := restarted.BalanceOf(acc)
	require.NoError(t, err)
	assert.Equal(t, int64(25), bal.Int64())
	locked, err := restarted.LockedBalanceOf(acc)
	require.NoError(t, err)
	assert.Equal(t, int64(10), locked.Int64())
	box, err := restarted.CoolDownBox(1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), box.Amount.Int64())
	nonce, err := restarted.Nonce()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)
}

func TestNewValidation(t *testing.T) {
	f := newFixture(t, false)

	cfg := f.cfg
	cfg.Address = thor.BytesToAddress([]byte("fresh"))
	cfg.Owner = thor.Address{}
	_, err := New(cfg, f.state, f.asset, nil, f.clock)
	assert.Error(t, err)

	cfg.Owner = f.owner
	cfg.RequestGasLimit = thor.DefaultMaxGasPerTx + 1
	_, err = New(cfg, f.state, f.asset, f.amb.Endpoint(foreignDomain, cfg.Address), f.clock)
	assert.Error(t, err)
}

func TestLedgerInvariants(t *testing.T) {
	f := newFixture(t, true)
	accounts := datagen.RandAddresses(5)
	for _, acc := range accounts {
		f.fund(t, acc, 1_000_000)
	}

	for i := 0; i < 200; i++ {
		acc := accounts[datagen.RandIntN(len(accounts))]
		amount := big.NewInt(int64(datagen.RandIntN(1000) + 1))
		switch datagen.RandIntN(5) {
		case 0, 1:
			require.NoError(t, f.staker.Stake(acc, amount))
		case 2:
			if err := f.staker.Unstake(acc, amount); err != nil {
				require.True(t, reverts.Is(err, reverts.InsufficientUnlockedBalance))
			}
		case 3:
			if err := f.staker.Lock(acc, amount); err != nil {
				require.True(t, reverts.Is(err, reverts.InsufficientUnlockedBalance))
			}
		case 4:
			if err := f.staker.Unlock(acc, amount); err != nil {
				require.True(t, reverts.Is(err, reverts.InsufficientLockedBalance))
			}
		}
		f.clock.Advance(time.Duration(datagen.RandIntN(3)) * time.Second)

		sum := new(big.Int)
		for _, a := range accounts {
			bal, err := f.staker.BalanceOf(a)
			require.NoError(t, err)
			locked, err := f.staker.LockedBalanceOf(a)
			require.NoError(t, err)
			require.True(t, locked.Cmp(bal) <= 0, "locked exceeds balance")
			sum.Add(sum, bal)
		}
		supply, err := f.staker.TotalSupply()
		require.NoError(t, err)
		require.Zero(t, sum.Cmp(supply), "sum of balances differs from supply")

		locked, err := f.staker.TotalLocked()
		require.NoError(t, err)
		unlocked, err := f.staker.TotalUnlocked()
		require.NoError(t, err)
		require.Zero(t, new(big.Int).Add(locked, unlocked).Cmp(supply))
	}
}
