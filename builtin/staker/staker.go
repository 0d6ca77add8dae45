// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker is the foreign side mediator. It takes the asset into custody,
// keeps checkpointed staked balances, locks, cooldown boxes, and relays balance
// snapshots to the home domain.
package staker

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/checkpoints"
	"github.com/vechain/stakebridge/builtin/cooldown"
	"github.com/vechain/stakebridge/builtin/locks"
	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/builtin/solidity"
	"github.com/vechain/stakebridge/builtin/token"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/state"
	"github.com/vechain/stakebridge/thor"
)

var logger = log.WithContext("pkg", "staker")

var (
	slotOwner           = thor.BytesToBytes32([]byte("owner"))
	slotSlasher         = thor.BytesToBytes32([]byte("locked-stake-slasher"))
	slotMediator        = thor.BytesToBytes32([]byte("mediator-on-other-side"))
	slotRequestGasLimit = thor.BytesToBytes32([]byte("request-gas-limit"))
	slotNonce           = thor.BytesToBytes32([]byte("snapshot-nonce"))
)

// Config is the deployment of a staker.
type Config struct {
	// Address is the mediator address, which also holds staked assets in custody.
	Address    thor.Address
	Domain     thor.DomainID
	HomeDomain thor.DomainID

	// The following are stored on first start. Later starts keep stored values.
	Owner           thor.Address
	Slasher         thor.Address
	Mediator        thor.Address
	RequestGasLimit uint64
	CoolDownPeriod  time.Duration

	EnableLocking bool
}

// Staker implements the staking mediator.
// State-changing calls are serialized and each one commits fully or not at all.
type Staker struct {
	mu    sync.Mutex
	cfg   Config
	state *state.State
	asset token.Asset
	relay bridge.Relay
	clock clockwork.Clock

	ledger *checkpoints.Service
	locks  *locks.Service
	boxes  *cooldown.Service

	owner    *solidity.Address
	slasher  *solidity.Address
	mediator *solidity.Address
	gasLimit *solidity.Uint256
	nonce    *solidity.Uint256

	feed  event.Feed
	scope event.SubscriptionScope
}

// New creates the staker over st. The first start stores the administrative part of cfg.
func New(cfg Config, st *state.State, asset token.Asset, relay bridge.Relay, clock clockwork.Clock) (*Staker, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sctx := solidity.NewContext(cfg.Address, st)

	period := cfg.CoolDownPeriod
	if period == 0 {
		period = thor.DefaultCoolDownPeriod
	}
	coolDown := solidity.NewConfigVariable("cooldown-period", uint64(period/time.Second))
	coolDown.Override(sctx)

	s := &Staker{
		cfg:      cfg,
		state:    st,
		asset:    asset,
		relay:    relay,
		clock:    clock,
		ledger:   checkpoints.New(sctx),
		locks:    locks.New(sctx),
		boxes:    cooldown.New(sctx, coolDown.Get()),
		owner:    solidity.NewAddress(sctx, slotOwner),
		slasher:  solidity.NewAddress(sctx, slotSlasher),
		mediator: solidity.NewAddress(sctx, slotMediator),
		gasLimit: solidity.NewUint256(sctx, slotRequestGasLimit),
		nonce:    solidity.NewUint256(sctx, slotNonce),
	}

	owner, err := s.owner.Get()
	if err != nil {
		return nil, err
	}
	if owner.IsZero() {
		if err := s.initialize(coolDown, sctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Staker) initialize(coolDown *solidity.ConfigVariable, sctx *solidity.Context) error {
	if s.cfg.Owner.IsZero() {
		return errors.New("staker: owner required")
	}
	gasLimit := s.cfg.RequestGasLimit
	if gasLimit == 0 {
		gasLimit = thor.DefaultRequestGasLimit
	}
	if s.relay != nil && gasLimit > s.relay.MaxGasPerTx() {
		return errors.Errorf("staker: request gas limit %d exceeds relay max %d", gasLimit, s.relay.MaxGasPerTx())
	}
	return s.atomic(func() error {
		s.owner.Set(&s.cfg.Owner)
		s.slasher.Set(&s.cfg.Slasher)
		s.mediator.Set(&s.cfg.Mediator)
		s.gasLimit.SetUint64(gasLimit)
		coolDown.Persist(sctx)
		logger.Info("staker initialized", "owner", s.cfg.Owner, "cooldown", coolDown.Get(), "locking", s.cfg.EnableLocking)
		return nil
	})
}

// SubscribeEvents subscribes committed events. Events arrive in commit order.
func (s *Staker) SubscribeEvents(ch chan *Event) event.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}

// Close unsubscribes all event subscribers.
func (s *Staker) Close() {
	s.scope.Close()
}

// atomic runs fn in a state revision and commits on success.
func (s *Staker) atomic(fn func() error) error {
	rev := s.state.NewCheckpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(rev)
		return err
	}
	if err := s.state.Commit(); err != nil {
		s.state.RevertTo(rev)
		return errors.Wrap(err, "commit")
	}
	return nil
}

func (s *Staker) now() uint64 {
	return uint64(s.clock.Now().Unix())
}

func (s *Staker) emit(events ...*Event) {
	for _, ev := range events {
		s.feed.Send(ev)
	}
}

func requirePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "amount must be positive")
	}
	if amount.BitLen() > 256 {
		return reverts.New(reverts.InvalidArgument, "amount exceeds uint256")
	}
	return nil
}

//
// Getters - no state change
//

// Config returns the static deployment config.
func (s *Staker) Config() Config {
	return s.cfg
}

// BalanceOf returns the current staked balance of account.
func (s *Staker) BalanceOf(account thor.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Current(checkpoints.AccountKey(account))
}

// BalanceOfAt returns the staked balance of account in effect at ts.
func (s *Staker) BalanceOfAt(account thor.Address, ts uint64) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ValueAt(checkpoints.AccountKey(account), ts)
}

// TotalSupply returns the current sum of staked balances.
func (s *Staker) TotalSupply() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Current(checkpoints.SupplyKey)
}

// TotalSupplyAt returns the total supply in effect at ts.
func (s *Staker) TotalSupplyAt(ts uint64) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ValueAt(checkpoints.SupplyKey, ts)
}

// LockedBalanceOf returns the locked part of account's balance.
func (s *Staker) LockedBalanceOf(account thor.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks.Locked(account)
}

// UnlockedBalanceOf returns the part of account's balance that can be unstaked.
func (s *Staker) UnlockedBalanceOf(account thor.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bal, err := s.ledger.Current(checkpoints.AccountKey(account))
	if err != nil {
		return nil, err
	}
	return s.locks.Unlocked(account, bal)
}

// TotalLocked returns the sum of locked balances.
func (s *Staker) TotalLocked() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks.TotalLocked()
}

// TotalUnlocked returns total supply minus total locked.
func (s *Staker) TotalUnlocked() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supply, err := s.ledger.Current(checkpoints.SupplyKey)
	if err != nil {
		return nil, err
	}
	locked, err := s.locks.TotalLocked()
	if err != nil {
		return nil, err
	}
	return supply.Sub(supply, locked), nil
}

// CoolDownBox returns the box with id, nil if none.
func (s *Staker) CoolDownBox(id uint64) (*cooldown.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boxes.Get(id)
}

// CoolDownBoxCount returns the number of boxes ever opened.
func (s *Staker) CoolDownBoxCount() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boxes.Count()
}

// CoolDownPeriod returns the cooldown period in seconds.
func (s *Staker) CoolDownPeriod() uint64 {
	return s.boxes.Period()
}

// Checkpoint returns checkpoint i of account, or of the total supply when account is nil.
func (s *Staker) Checkpoint(account *thor.Address, i uint64) (checkpoints.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject := checkpoints.SupplyKey
	if account != nil {
		subject = checkpoints.AccountKey(*account)
	}
	return s.ledger.At(subject, i)
}
