// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/token"
	"github.com/vechain/stakebridge/lvldb"
	"github.com/vechain/stakebridge/state"
	"github.com/vechain/stakebridge/test/datagen"
	"github.com/vechain/stakebridge/thor"
)

const (
	foreignDomain thor.DomainID = 1
	homeDomain    thor.DomainID = 2
	period                      = time.Hour
)

var genesisTime = time.Unix(1_700_000_000, 0)

// flakyAsset fails custody payouts on demand.
type flakyAsset struct {
	token.Asset
	mu          sync.Mutex
	failPayouts bool
}

func (f *flakyAsset) Transfer(from, to thor.Address, amount *big.Int) error {
	f.mu.Lock()
	fail := f.failPayouts
	f.mu.Unlock()
	if fail {
		return errors.New("payout failed")
	}
	return f.Asset.Transfer(from, to, amount)
}

func (f *flakyAsset) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPayouts = fail
}

type fixture struct {
	staker   *Staker
	token    *token.Token
	asset    *flakyAsset
	amb      *bridge.AMB
	clock    clockwork.FakeClock
	state    *state.State
	db       *lvldb.LevelDB
	cfg      Config
	owner    thor.Address
	slasher  thor.Address
	mediator thor.Address

	mu       sync.Mutex
	received []any
}

func newFixture(t *testing.T, locking bool) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokenState, err := state.New(db, 256)
	require.NoError(t, err)
	stakerState, err := state.New(db, 256)
	require.NoError(t, err)

	f := &fixture{
		token:    token.New(thor.BytesToAddress([]byte("token")), tokenState),
		amb:      bridge.NewAMB(thor.DefaultMaxGasPerTx, nil),
		clock:    clockwork.NewFakeClockAt(genesisTime),
		state:    stakerState,
		db:       db,
		owner:    datagen.RandAddress(),
		slasher:  datagen.RandAddress(),
		mediator: datagen.RandAddress(),
	}
	f.asset = &flakyAsset{Asset: f.token}
	f.cfg = Config{
		Address:        thor.BytesToAddress([]byte("staker")),
		Domain:         foreignDomain,
		HomeDomain:     homeDomain,
		Owner:          f.owner,
		Slasher:        f.slasher,
		Mediator:       f.mediator,
		CoolDownPeriod: period,
		EnableLocking:  locking,
	}
	f.amb.Register(homeDomain, f.mediator, bridge.ReceiverFunc(func(env *bridge.Envelope) error {
		body, err := bridge.Decode(env.Data)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.received = append(f.received, body)
		f.mu.Unlock()
		return nil
	}))

	f.staker, err = New(f.cfg, stakerState, f.asset, f.amb.Endpoint(foreignDomain, f.cfg.Address), f.clock)
	require.NoError(t, err)
	t.Cleanup(f.staker.Close)
	t.Cleanup(f.token.Close)
	return f
}

// fund mints amount to account and approves the staker to pull it.
func (f *fixture) fund(t *testing.T, account thor.Address, amount int64) {
	require.NoError(t, f.token.Mint(account, big.NewInt(amount)))
	require.NoError(t, f.token.Approve(account, f.cfg.Address, big.NewInt(amount)))
}

func (f *fixture) now() uint64 {
	return uint64(f.clock.Now().Unix())
}

// delivered delivers pending relay messages and returns everything received so far.
func (f *fixture) delivered() []any {
	f.amb.DeliverPending()
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.received...)
}

func (f *fixture) tokenBalance(t *testing.T, addr thor.Address) int64 {
	bal, err := f.token.BalanceOf(addr)
	require.NoError(t, err)
	return bal.Int64()
}

func (f *fixture) balance(t *testing.T, addr thor.Address) int64 {
	bal, err := f.staker.BalanceOf(addr)
	require.NoError(t, err)
	return bal.Int64()
}

func (f *fixture) supply(t *testing.T) int64 {
	supply, err := f.staker.TotalSupply()
	require.NoError(t, err)
	return supply.Int64()
}

type TestFunc func(t *testing.T)

// TestSequence runs staker calls in order, advancing the fake clock between them.
type TestSequence struct {
	f     *fixture
	funcs []TestFunc
}

func NewSequence(f *fixture) *TestSequence {
	return &TestSequence{f: f}
}

func (st *TestSequence) AddFunc(fn TestFunc) *TestSequence {
	st.funcs = append(st.funcs, fn)
	return st
}

func (st *TestSequence) Stake(addr thor.Address, amount int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.f.staker.Stake(addr, big.NewInt(amount)); err != nil {
			t.Fatalf("failed to stake %d for %s: %v", amount, addr, err)
		}
	})
}

func (st *TestSequence) Unstake(addr thor.Address, amount int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.f.staker.Unstake(addr, big.NewInt(amount)); err != nil {
			t.Fatalf("failed to unstake %d for %s: %v", amount, addr, err)
		}
	})
}

func (st *TestSequence) Lock(addr thor.Address, amount int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.f.staker.Lock(addr, big.NewInt(amount)); err != nil {
			t.Fatalf("failed to lock %d for %s: %v", amount, addr, err)
		}
	})
}

func (st *TestSequence) Advance(d time.Duration) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.f.clock.Advance(d)
	})
}

func (st *TestSequence) Run(t *testing.T) {
	for _, fn := range st.funcs {
		fn(t)
	}
	st.funcs = nil
}

// newStateFor opens a fresh state over the fixture's database, as a restart would.
func newStateFor(f *fixture) (*state.State, error) {
	return state.New(f.db, 256)
}
