// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"time"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/checkpoints"
	"github.com/vechain/stakebridge/builtin/cooldown"
	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/thor"
)

func (s *Staker) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// adjust adds delta to the balance of account and to the total supply at now.
// It returns the indexes of the written checkpoints.
func (s *Staker) adjust(account thor.Address, delta *big.Int, now uint64) (uint64, uint64, error) {
	accountKey := checkpoints.AccountKey(account)
	bal, err := s.ledger.Current(accountKey)
	if err != nil {
		return 0, 0, err
	}
	supply, err := s.ledger.Current(checkpoints.SupplyKey)
	if err != nil {
		return 0, 0, err
	}
	accIdx, err := s.ledger.Record(accountKey, now, bal.Add(bal, delta))
	if err != nil {
		return 0, 0, err
	}
	supIdx, err := s.ledger.Record(checkpoints.SupplyKey, now, supply.Add(supply, delta))
	if err != nil {
		return 0, 0, err
	}
	return accIdx, supIdx, nil
}

func (s *Staker) refreshGauges() {
	if supply, err := s.ledger.Current(checkpoints.SupplyKey); err == nil {
		metricTotalSupply().Set(gaugeOf(supply))
	}
	if locked, err := s.locks.TotalLocked(); err == nil {
		metricTotalLocked().Set(gaugeOf(locked))
	}
}

func boxEvent(box *cooldown.Box) *Event {
	return &Event{
		Name:          EventNewCoolDownBox,
		Account:       box.Holder,
		Amount:        new(big.Int).Set(box.Amount),
		Timestamp:     box.CreatedAt,
		BoxID:         box.ID,
		ReleasedSince: box.ReleasedSince,
	}
}

// Stake pulls amount of the asset from account into custody and credits account's staked balance.
// The asset call happens first; if recording fails afterwards the asset is refunded.
func (s *Staker) Stake(account thor.Address, amount *big.Int) (err error) {
	defer func(start time.Time) { observe("stake", start, err) }(time.Now())

	if err := requirePositive(amount); err != nil {
		return err
	}
	if err := s.asset.TransferFrom(account, s.cfg.Address, amount); err != nil {
		return err
	}

	err = s.withLock(func() error {
		now := s.now()
		ev := &Event{Name: EventStake, Account: account, Amount: new(big.Int).Set(amount), Timestamp: now}
		var snap *bridge.BalanceSnapshot
		if err := s.atomic(func() error {
			var err error
			if ev.AccountCheckpoint, ev.SupplyCheckpoint, err = s.adjust(account, amount, now); err != nil {
				return err
			}
			snap, err = s.snapshot(account, now)
			return err
		}); err != nil {
			return err
		}
		logger.Debug("staked", "account", account, "amount", amount, "ts", now)
		s.refreshGauges()
		s.emit(ev)
		s.sendSnapshot(snap)
		return nil
	})
	if err != nil {
		if rerr := s.asset.Transfer(s.cfg.Address, account, amount); rerr != nil {
			logger.Error("failed to refund stake", "account", account, "amount", amount, "err", rerr)
		}
		return err
	}
	return nil
}

// Unstake moves amount of account's unlocked balance into a cooldown box.
func (s *Staker) Unstake(account thor.Address, amount *big.Int) (err error) {
	defer func(start time.Time) { observe("unstake", start, err) }(time.Now())

	if err := requirePositive(amount); err != nil {
		return err
	}
	return s.withLock(func() error {
		now := s.now()
		ev := &Event{Name: EventUnstake, Account: account, Amount: new(big.Int).Set(amount), Timestamp: now}
		var (
			box  *cooldown.Box
			snap *bridge.BalanceSnapshot
		)
		if err := s.atomic(func() error {
			bal, err := s.ledger.Current(checkpoints.AccountKey(account))
			if err != nil {
				return err
			}
			available, reason := bal, "exceeds the balance"
			if s.cfg.EnableLocking {
				if available, err = s.locks.Unlocked(account, bal); err != nil {
					return err
				}
				reason = "exceeds the unlocked balance"
			}
			if amount.Cmp(available) > 0 {
				return reverts.New(reverts.InsufficientUnlockedBalance, reason)
			}
			if ev.AccountCheckpoint, ev.SupplyCheckpoint, err = s.adjust(account, new(big.Int).Neg(amount), now); err != nil {
				return err
			}
			if box, err = s.boxes.Open(account, amount, now); err != nil {
				return err
			}
			snap, err = s.snapshot(account, now)
			return err
		}); err != nil {
			return err
		}
		logger.Debug("unstaked", "account", account, "amount", amount, "box", box.ID)
		s.refreshGauges()
		s.emit(ev, boxEvent(box))
		s.sendSnapshot(snap)
		return nil
	})
}

func (s *Staker) requireLocking() error {
	if !s.cfg.EnableLocking {
		return reverts.New(reverts.Unauthorized, "locking disabled")
	}
	return nil
}

// Lock locks amount of account's unlocked balance.
func (s *Staker) Lock(account thor.Address, amount *big.Int) (err error) {
	defer func(start time.Time) { observe("lock", start, err) }(time.Now())

	if err := s.requireLocking(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	return s.withLock(func() error {
		if err := s.atomic(func() error {
			bal, err := s.ledger.Current(checkpoints.AccountKey(account))
			if err != nil {
				return err
			}
			return s.locks.Lock(account, amount, bal)
		}); err != nil {
			return err
		}
		s.refreshGauges()
		s.emit(&Event{Name: EventLock, Account: account, Amount: new(big.Int).Set(amount), Timestamp: s.now()})
		return nil
	})
}

// Unlock unlocks amount of account's locked balance.
func (s *Staker) Unlock(account thor.Address, amount *big.Int) (err error) {
	defer func(start time.Time) { observe("unlock", start, err) }(time.Now())

	if err := s.requireLocking(); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	return s.withLock(func() error {
		if err := s.atomic(func() error {
			return s.locks.Unlock(account, amount)
		}); err != nil {
			return err
		}
		s.refreshGauges()
		s.emit(&Event{Name: EventUnlock, Account: account, Amount: new(big.Int).Set(amount), Timestamp: s.now()})
		return nil
	})
}

// SlashLocked removes amount of account's locked balance into a cooldown box held by the slasher.
// Only the configured slasher may call it.
func (s *Staker) SlashLocked(caller, account thor.Address, amount *big.Int) (err error) {
	defer func(start time.Time) { observe("slash", start, err) }(time.Now())

	if err := requirePositive(amount); err != nil {
		return err
	}
	return s.withLock(func() error {
		slasher, err := s.slasher.Get()
		if err != nil {
			return err
		}
		if slasher.IsZero() || caller != slasher {
			return reverts.New(reverts.Unauthorized, "caller is not the locked stake slasher")
		}

		now := s.now()
		ev := &Event{Name: EventSlash, Account: account, Amount: new(big.Int).Set(amount), Timestamp: now}
		var (
			box  *cooldown.Box
			snap *bridge.BalanceSnapshot
		)
		if err := s.atomic(func() error {
			var err error
			if err = s.locks.Slash(account, amount); err != nil {
				return err
			}
			if ev.AccountCheckpoint, ev.SupplyCheckpoint, err = s.adjust(account, new(big.Int).Neg(amount), now); err != nil {
				return err
			}
			if box, err = s.boxes.Open(slasher, amount, now); err != nil {
				return err
			}
			snap, err = s.snapshot(account, now)
			return err
		}); err != nil {
			return err
		}
		logger.Info("slashed locked stake", "account", account, "amount", amount, "box", box.ID)
		s.refreshGauges()
		s.emit(ev, boxEvent(box))
		s.sendSnapshot(snap)
		return nil
	})
}

// ReleaseCoolDownBox pays out a matured box to its holder.
// The box is marked released before the payout. A failed payout restores it.
func (s *Staker) ReleaseCoolDownBox(caller thor.Address, id uint64) (box *cooldown.Box, err error) {
	defer func(start time.Time) { observe("release", start, err) }(time.Now())

	if err := s.withLock(func() error {
		return s.atomic(func() error {
			var err error
			box, err = s.boxes.Release(id, caller, s.now())
			return err
		})
	}); err != nil {
		return nil, err
	}

	if err := s.asset.Transfer(s.cfg.Address, box.Holder, box.Amount); err != nil {
		logger.Warn("box payout failed, restoring", "id", id, "err", err)
		if rerr := s.withLock(func() error {
			return s.atomic(func() error { return s.boxes.Restore(id) })
		}); rerr != nil {
			logger.Error("failed to restore box", "id", id, "err", rerr)
		}
		return nil, err
	}

	s.withLock(func() error {
		logger.Debug("box released", "id", id, "holder", box.Holder, "amount", box.Amount)
		s.emit(&Event{
			Name:          EventCoolDownBoxReleased,
			Account:       box.Holder,
			Amount:        new(big.Int).Set(box.Amount),
			Timestamp:     s.now(),
			BoxID:         box.ID,
			ReleasedSince: box.ReleasedSince,
		})
		return nil
	})
	return box, nil
}
