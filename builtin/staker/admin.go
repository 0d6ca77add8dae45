// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/thor"
)

func (s *Staker) requireOwner(caller thor.Address) error {
	owner, err := s.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.New(reverts.Unauthorized, "caller is not the owner")
	}
	return nil
}

// admin runs an owner-gated setter atomically.
func (s *Staker) admin(caller thor.Address, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	return s.atomic(fn)
}

// Owner returns the administrator.
func (s *Staker) Owner() (thor.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner.Get()
}

// LockedStakeSlasher returns the slasher, zero if unset.
func (s *Staker) LockedStakeSlasher() (thor.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slasher.Get()
}

// MediatorContractOnOtherSide returns the receiver of snapshots on the home domain.
func (s *Staker) MediatorContractOnOtherSide() (thor.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediator.Get()
}

// RequestGasLimit returns the gas limit requested for each relayed message.
func (s *Staker) RequestGasLimit() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.gasLimit.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// SetLockedStakeSlasher sets the account allowed to slash locked stake. Zero disables slashing.
func (s *Staker) SetLockedStakeSlasher(caller, slasher thor.Address) error {
	return s.admin(caller, func() error {
		s.slasher.Set(&slasher)
		logger.Info("locked stake slasher changed", "slasher", slasher)
		return nil
	})
}

// SetMediatorContractOnOtherSide sets the receiver of snapshots on the home domain.
func (s *Staker) SetMediatorContractOnOtherSide(caller, mediator thor.Address) error {
	return s.admin(caller, func() error {
		s.mediator.Set(&mediator)
		logger.Info("mediator on other side changed", "mediator", mediator)
		return nil
	})
}

// SetRequestGasLimit sets the gas limit of relayed messages. It must not exceed the relay maximum.
func (s *Staker) SetRequestGasLimit(caller thor.Address, gasLimit uint64) error {
	return s.admin(caller, func() error {
		if s.relay != nil && gasLimit > s.relay.MaxGasPerTx() {
			return reverts.Newf(reverts.InvalidArgument, "gas limit %d exceeds relay max %d", gasLimit, s.relay.MaxGasPerTx())
		}
		if gasLimit == 0 {
			return reverts.New(reverts.InvalidArgument, "gas limit must be positive")
		}
		s.gasLimit.SetUint64(gasLimit)
		logger.Info("request gas limit changed", "gas", gasLimit)
		return nil
	})
}

// TransferOwnership hands administration to newOwner.
func (s *Staker) TransferOwnership(caller, newOwner thor.Address) error {
	return s.admin(caller, func() error {
		if newOwner.IsZero() {
			return reverts.New(reverts.InvalidArgument, "new owner is the zero address")
		}
		s.owner.Set(&newOwner)
		logger.Info("ownership transferred", "from", caller, "to", newOwner)
		return nil
	})
}
