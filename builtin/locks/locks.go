// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package locks

import (
	"math/big"

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/builtin/solidity"
	"github.com/vechain/stakebridge/thor"
)

var (
	slotLocked      = thor.BytesToBytes32([]byte("locked"))
	slotTotalLocked = thor.BytesToBytes32([]byte("total-locked"))
)

// Service partitions staked balances into locked and unlocked parts.
// Balances themselves live elsewhere and are passed in where needed.
type Service struct {
	locked      *solidity.Mapping[thor.Address, *big.Int]
	totalLocked *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		locked:      solidity.NewMapping[thor.Address, *big.Int](sctx, slotLocked),
		totalLocked: solidity.NewUint256(sctx, slotTotalLocked),
	}
}

// Locked returns the locked amount of account.
func (s *Service) Locked(account thor.Address) (*big.Int, error) {
	return s.locked.Get(account)
}

// TotalLocked returns the sum of all locked amounts.
func (s *Service) TotalLocked() (*big.Int, error) {
	return s.totalLocked.Get()
}

// Unlocked returns balance minus the locked amount of account.
func (s *Service) Unlocked(account thor.Address, balance *big.Int) (*big.Int, error) {
	locked, err := s.Locked(account)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(balance, locked), nil
}

// Lock moves amount of account's unlocked balance into the locked part.
func (s *Service) Lock(account thor.Address, amount, balance *big.Int) error {
	unlocked, err := s.Unlocked(account, balance)
	if err != nil {
		return err
	}
	if amount.Cmp(unlocked) > 0 {
		return reverts.New(reverts.InsufficientUnlockedBalance, "exceeds the unlocked balance")
	}
	return s.adjust(account, amount)
}

// Unlock moves amount of account's locked balance back to the unlocked part.
func (s *Service) Unlock(account thor.Address, amount *big.Int) error {
	if err := s.requireLocked(account, amount); err != nil {
		return err
	}
	return s.adjust(account, new(big.Int).Neg(amount))
}

// Slash removes amount from account's locked part. The caller lowers the balance.
func (s *Service) Slash(account thor.Address, amount *big.Int) error {
	if err := s.requireLocked(account, amount); err != nil {
		return err
	}
	return s.adjust(account, new(big.Int).Neg(amount))
}

func (s *Service) requireLocked(account thor.Address, amount *big.Int) error {
	locked, err := s.Locked(account)
	if err != nil {
		return err
	}
	if amount.Cmp(locked) > 0 {
		return reverts.New(reverts.InsufficientLockedBalance, "exceeds the locked balance")
	}
	return nil
}

func (s *Service) adjust(account thor.Address, delta *big.Int) error {
	locked, err := s.Locked(account)
	if err != nil {
		return err
	}
	if err := s.locked.Set(account, locked.Add(locked, delta)); err != nil {
		return err
	}
	return s.totalLocked.Add(delta)
}
