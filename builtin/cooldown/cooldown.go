// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cooldown

import (
	"math/big"

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/builtin/solidity"
	"github.com/vechain/stakebridge/thor"
)

var slotBoxes = thor.BytesToBytes32([]byte("cooldown-boxes"))

// Box holds withdrawn stake until it matures.
type Box struct {
	ID            uint64
	Holder        thor.Address
	Amount        *big.Int
	CreatedAt     uint64
	ReleasedSince uint64
	Released      bool
}

// Matured reports whether the box can be released at now.
func (b *Box) Matured(now uint64) bool {
	return now >= b.ReleasedSince
}

// Service is a queue of cooldown boxes. Box ids start at 1 and boxes are never removed.
type Service struct {
	boxes  *solidity.Array[Box]
	period uint64
}

// New creates the queue with a cooldown period in seconds.
func New(sctx *solidity.Context, period uint64) *Service {
	return &Service{
		boxes:  solidity.NewArray[Box](sctx, slotBoxes),
		period: period,
	}
}

// Period returns the cooldown period in seconds.
func (s *Service) Period() uint64 {
	return s.period
}

// Count returns the number of boxes ever opened.
func (s *Service) Count() (uint64, error) {
	return s.boxes.Len()
}

// Open creates a box for holder maturing one period after now.
func (s *Service) Open(holder thor.Address, amount *big.Int, now uint64) (*Box, error) {
	n, err := s.boxes.Len()
	if err != nil {
		return nil, err
	}
	box := Box{
		ID:            n + 1,
		Holder:        holder,
		Amount:        new(big.Int).Set(amount),
		CreatedAt:     now,
		ReleasedSince: now + s.period,
	}
	if _, err := s.boxes.Push(box); err != nil {
		return nil, err
	}
	return &box, nil
}

// Get returns the box with id, or nil if there is none.
func (s *Service) Get(id uint64) (*Box, error) {
	n, err := s.boxes.Len()
	if err != nil {
		return nil, err
	}
	if id == 0 || id > n {
		return nil, nil
	}
	box, err := s.boxes.Get(id - 1)
	if err != nil {
		return nil, err
	}
	return &box, nil
}

// Release marks the box released for caller at now.
// Maturity is checked first, then the holder, then the released flag.
func (s *Service) Release(id uint64, caller thor.Address, now uint64) (*Box, error) {
	box, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, reverts.Newf(reverts.InvalidArgument, "box %d not found", id)
	}
	if !box.Matured(now) {
		return nil, reverts.New(reverts.NotYetMatured, "the box is not yet matured")
	}
	if box.Holder != caller {
		return nil, reverts.New(reverts.NotBoxHolder, "the caller is not the box holder")
	}
	if box.Released {
		return nil, reverts.New(reverts.AlreadyReleased, "the box is already released")
	}
	box.Released = true
	if err := s.boxes.Set(id-1, *box); err != nil {
		return nil, err
	}
	return box, nil
}

// Restore clears the released flag. It undoes a release whose payout failed.
func (s *Service) Restore(id uint64) error {
	box, err := s.Get(id)
	if err != nil {
		return err
	}
	if box == nil {
		return reverts.Newf(reverts.InvalidArgument, "box %d not found", id)
	}
	box.Released = false
	return s.boxes.Set(id-1, *box)
}
