// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/checkpoints"
	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/thor"
)

// snapshot takes the next outbound nonce and captures account's balance and the total supply.
// It runs inside the revision of the operation, so the nonce commits with it.
func (s *Staker) snapshot(account thor.Address, now uint64) (*bridge.BalanceSnapshot, error) {
	if err := s.nonce.Add(big.NewInt(1)); err != nil {
		return nil, err
	}
	nonce, err := s.nonce.Get()
	if err != nil {
		return nil, err
	}
	bal, err := s.ledger.Current(checkpoints.AccountKey(account))
	if err != nil {
		return nil, err
	}
	supply, err := s.ledger.Current(checkpoints.SupplyKey)
	if err != nil {
		return nil, err
	}
	return &bridge.BalanceSnapshot{
		Account:     account,
		Balance:     bal,
		TotalSupply: supply,
		Timestamp:   now,
		Nonce:       nonce.Uint64(),
	}, nil
}

// send relays body to the mediator on the home domain.
func (s *Staker) send(body any) (thor.Bytes32, error) {
	if s.relay == nil {
		return thor.Bytes32{}, errors.New("no relay configured")
	}
	mediator, err := s.mediator.Get()
	if err != nil {
		return thor.Bytes32{}, err
	}
	if mediator.IsZero() {
		return thor.Bytes32{}, errors.New("mediator on other side not set")
	}
	gasLimit, err := s.gasLimit.Get()
	if err != nil {
		return thor.Bytes32{}, err
	}
	data, err := bridge.Encode(body)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return s.relay.Send(s.cfg.HomeDomain, mediator, data, gasLimit.Uint64())
}

// sendSnapshot relays a committed snapshot. Failures are logged and do not undo the operation.
func (s *Staker) sendSnapshot(snap *bridge.BalanceSnapshot) {
	id, err := s.send(snap)
	if err != nil {
		metricSyncSends().AddWithLabel(1, map[string]string{"kind": "snapshot", "outcome": "failed"})
		logger.Warn("balance snapshot not sent", "account", snap.Account, "nonce", snap.Nonce, "err", err)
		return
	}
	metricSyncSends().AddWithLabel(1, map[string]string{"kind": "snapshot", "outcome": "sent"})
	s.emit(&Event{
		Name:      EventSnapshotSent,
		Account:   snap.Account,
		Amount:    new(big.Int).Set(snap.Balance),
		Timestamp: snap.Timestamp,
		MessageID: id,
		Nonce:     snap.Nonce,
	})
}

// Nonce returns the nonce of the last snapshot taken.
func (s *Staker) Nonce() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.nonce.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// PushCachedBalance relays account's balance at ts to the home domain again.
// Anyone may call it. It lets the mirror catch up after lost or rejected snapshots.
func (s *Staker) PushCachedBalance(account thor.Address, ts uint64) (thor.Bytes32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if ts > now {
		return thor.Bytes32{}, reverts.Newf(reverts.InvalidArgument, "timestamp %d is in the future", ts)
	}
	bal, err := s.ledger.ValueAt(checkpoints.AccountKey(account), ts)
	if err != nil {
		return thor.Bytes32{}, err
	}
	id, err := s.send(&bridge.CachedBalance{Account: account, Timestamp: ts, Balance: bal})
	if err != nil {
		metricSyncSends().AddWithLabel(1, map[string]string{"kind": "cached", "outcome": "failed"})
		return thor.Bytes32{}, err
	}
	metricSyncSends().AddWithLabel(1, map[string]string{"kind": "cached", "outcome": "sent"})
	logger.Debug("cached balance pushed", "account", account, "ts", ts, "balance", bal)
	s.emit(&Event{
		Name:      EventCachedBalancePushed,
		Account:   account,
		Amount:    new(big.Int).Set(bal),
		Timestamp: ts,
		MessageID: id,
	})
	return id, nil
}
