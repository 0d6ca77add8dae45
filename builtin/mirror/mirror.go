// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mirror keeps the home domain's read-only copy of foreign staked
// balances, applying relayed snapshots in order and dropping stale ones.
package mirror

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/checkpoints"
	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/builtin/solidity"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/state"
	"github.com/vechain/stakebridge/thor"
)

var logger = log.WithContext("pkg", "mirror")

var slotSynced = thor.BytesToBytes32([]byte("synced"))

// Config describes where accepted messages come from.
type Config struct {
	Address         thor.Address
	ForeignDomain   thor.DomainID
	ForeignMediator thor.Address
	// Validator, when set, must have signed every envelope.
	Validator *thor.Address
}

// SyncState is the (timestamp, nonce) of the last applied snapshot.
type SyncState struct {
	Timestamp uint64
	Nonce     uint64
}

// Before reports whether s orders strictly before o.
func (s SyncState) Before(o SyncState) bool {
	if s.Timestamp != o.Timestamp {
		return s.Timestamp < o.Timestamp
	}
	return s.Nonce < o.Nonce
}

type Mirror struct {
	mu     sync.Mutex
	cfg    Config
	state  *state.State
	ledger *checkpoints.Service
	synced *solidity.Mapping[thor.Bytes32, SyncState]

	feed  event.Feed
	scope event.SubscriptionScope
}

func New(cfg Config, st *state.State) *Mirror {
	sctx := solidity.NewContext(cfg.Address, st)
	return &Mirror{
		cfg:    cfg,
		state:  st,
		ledger: checkpoints.New(sctx),
		synced: solidity.NewMapping[thor.Bytes32, SyncState](sctx, slotSynced),
	}
}

func (m *Mirror) SubscribeEvents(ch chan *Event) event.Subscription {
	return m.scope.Track(m.feed.Subscribe(ch))
}

func (m *Mirror) Close() {
	m.scope.Close()
}

func (m *Mirror) Config() Config {
	return m.cfg
}

func (m *Mirror) atomic(fn func() error) error {
	rev := m.state.NewCheckpoint()
	if err := fn(); err != nil {
		m.state.RevertTo(rev)
		return err
	}
	if err := m.state.Commit(); err != nil {
		m.state.RevertTo(rev)
		return errors.Wrap(err, "commit")
	}
	return nil
}

// OnMessage authenticates, decodes and applies a relayed envelope.
func (m *Mirror) OnMessage(env *bridge.Envelope) error {
	if err := m.authenticate(env); err != nil {
		metricApplied().AddWithLabel(1, map[string]string{"kind": "unknown", "outcome": "unauthorized"})
		logger.Warn("rejected envelope", "id", env.ID, "sender", env.Sender, "err", err)
		return err
	}
	body, err := bridge.Decode(env.Data)
	if err != nil {
		metricApplied().AddWithLabel(1, map[string]string{"kind": "unknown", "outcome": "malformed"})
		return reverts.Newf(reverts.InvalidArgument, "bad message: %v", err)
	}
	switch msg := body.(type) {
	case *bridge.BalanceSnapshot:
		return m.ApplySnapshot(msg)
	case *bridge.CachedBalance:
		return m.ApplyCachedBalance(msg)
	default:
		return reverts.Newf(reverts.InvalidArgument, "unexpected message %T", body)
	}
}

func (m *Mirror) authenticate(env *bridge.Envelope) error {
	if env.Source != m.cfg.ForeignDomain || env.Sender != m.cfg.ForeignMediator {
		return reverts.New(reverts.Unauthorized, "sender is not the foreign mediator")
	}
	if m.cfg.Validator != nil {
		signer, err := env.Signer()
		if err != nil {
			return reverts.Newf(reverts.Unauthorized, "bad signature: %v", err)
		}
		if signer != *m.cfg.Validator {
			return reverts.New(reverts.Unauthorized, "envelope not signed by the validator")
		}
	}
	return nil
}

// ApplySnapshot records a balance snapshot unless an equal or later one,
// for the account or globally, was applied already.
func (m *Mirror) ApplySnapshot(snap *bridge.BalanceSnapshot) error {
	if snap.Balance == nil || snap.TotalSupply == nil {
		return reverts.New(reverts.InvalidArgument, "incomplete snapshot")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := SyncState{Timestamp: snap.Timestamp, Nonce: snap.Nonce}
	accountKey := checkpoints.AccountKey(snap.Account)
	var ev *Event
	err := m.atomic(func() error {
		last, err := m.synced.Get(accountKey)
		if err != nil {
			return err
		}
		global, err := m.synced.Get(checkpoints.SupplyKey)
		if err != nil {
			return err
		}
		if !last.Before(next) || !global.Before(next) {
			return reverts.Newf(reverts.StaleTimestamp,
				"snapshot (%d, %d) is not after account (%d, %d) and global (%d, %d)",
				next.Timestamp, next.Nonce, last.Timestamp, last.Nonce, global.Timestamp, global.Nonce)
		}
		if _, err := m.ledger.Record(accountKey, snap.Timestamp, snap.Balance); err != nil {
			return err
		}
		if _, err := m.ledger.Record(checkpoints.SupplyKey, snap.Timestamp, snap.TotalSupply); err != nil {
			return err
		}
		if err := m.synced.Set(accountKey, next); err != nil {
			return err
		}
		if err := m.synced.Set(checkpoints.SupplyKey, next); err != nil {
			return err
		}
		ev = &Event{
			Name:        EventBalanceSynced,
			Kind:        bridge.KindBalanceSnapshot,
			Account:     snap.Account,
			Balance:     new(big.Int).Set(snap.Balance),
			TotalSupply: new(big.Int).Set(snap.TotalSupply),
			Timestamp:   snap.Timestamp,
			Nonce:       snap.Nonce,
		}
		return nil
	})
	return m.finish(bridge.KindBalanceSnapshot, snap.Account, snap.Timestamp, snap.Nonce, ev, err)
}

// ApplyCachedBalance records a historical balance pushed on demand. Only
// the account's last applied timestamp gates it.
func (m *Mirror) ApplyCachedBalance(cached *bridge.CachedBalance) error {
	if cached.Balance == nil {
		return reverts.New(reverts.InvalidArgument, "incomplete cached balance")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	accountKey := checkpoints.AccountKey(cached.Account)
	var ev *Event
	err := m.atomic(func() error {
		last, err := m.synced.Get(accountKey)
		if err != nil {
			return err
		}
		if cached.Timestamp <= last.Timestamp {
			return reverts.Newf(reverts.StaleTimestamp,
				"cached balance at %d is not after account timestamp %d", cached.Timestamp, last.Timestamp)
		}
		if _, err := m.ledger.Record(accountKey, cached.Timestamp, cached.Balance); err != nil {
			return err
		}
		if err := m.synced.Set(accountKey, SyncState{Timestamp: cached.Timestamp, Nonce: last.Nonce}); err != nil {
			return err
		}
		ev = &Event{
			Name:      EventBalanceSynced,
			Kind:      bridge.KindCachedBalance,
			Account:   cached.Account,
			Balance:   new(big.Int).Set(cached.Balance),
			Timestamp: cached.Timestamp,
		}
		return nil
	})
	return m.finish(bridge.KindCachedBalance, cached.Account, cached.Timestamp, 0, ev, err)
}

func (m *Mirror) finish(kind bridge.Kind, account thor.Address, ts, nonce uint64, ev *Event, err error) error {
	if err != nil {
		outcome := "error"
		if code := reverts.CodeOf(err); code != 0 {
			outcome = code.String()
		}
		metricApplied().AddWithLabel(1, map[string]string{"kind": kind.String(), "outcome": outcome})
		if reverts.Is(err, reverts.StaleTimestamp) {
			logger.Debug("stale message dropped", "kind", kind, "account", account, "ts", ts, "nonce", nonce)
			m.feed.Send(&Event{Name: EventSyncRejected, Kind: kind, Account: account, Timestamp: ts, Nonce: nonce, Reason: err.Error()})
		}
		return err
	}
	metricApplied().AddWithLabel(1, map[string]string{"kind": kind.String(), "outcome": "ok"})
	logger.Debug("balance synced", "kind", kind, "account", account, "ts", ts, "nonce", nonce)
	m.feed.Send(ev)
	return nil
}

func (m *Mirror) BalanceOf(account thor.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Current(checkpoints.AccountKey(account))
}

func (m *Mirror) BalanceOfAt(account thor.Address, ts uint64) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.ValueAt(checkpoints.AccountKey(account), ts)
}

func (m *Mirror) TotalSupply() (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Current(checkpoints.SupplyKey)
}

func (m *Mirror) TotalSupplyAt(ts uint64) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.ValueAt(checkpoints.SupplyKey, ts)
}

// LastApplied returns the sync state of account.
func (m *Mirror) LastApplied(account thor.Address) (SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synced.Get(checkpoints.AccountKey(account))
}

// LastAppliedGlobal returns the sync state of the last applied snapshot of any account.
func (m *Mirror) LastAppliedGlobal() (SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synced.Get(checkpoints.SupplyKey)
}
