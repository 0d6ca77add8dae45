// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package checkpoints keeps timestamped value histories, one per subject,
// and answers point-in-time queries over them.
package checkpoints

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/builtin/solidity"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/thor"
)

var logger = log.WithContext("pkg", "checkpoints")

var (
	slotHistory = thor.BytesToBytes32([]byte("checkpoints"))

	// SupplyKey is the subject of the aggregate total supply history.
	SupplyKey = thor.Blake2b([]byte("total-supply"))
)

// AccountKey returns the history subject of an account balance.
func AccountKey(addr thor.Address) thor.Bytes32 {
	return thor.Blake2b([]byte("account"), addr.Bytes())
}

// Checkpoint is the value of a subject from Timestamp on.
type Checkpoint struct {
	Timestamp uint64
	Value     *big.Int
}

// Service manages checkpoint histories.
// Timestamps of a history are strictly increasing; recording at the last
// timestamp overwrites the last value.
type Service struct {
	sctx *solidity.Context
}

func New(sctx *solidity.Context) *Service {
	return &Service{sctx: sctx}
}

func (s *Service) history(subject thor.Bytes32) *solidity.Array[Checkpoint] {
	return solidity.NewArray[Checkpoint](s.sctx, thor.Blake2b(slotHistory.Bytes(), subject.Bytes()))
}

// Record sets the value of subject at timestamp ts and returns the index of the written checkpoint.
// It fails with OrderingViolation if ts precedes the last checkpoint.
func (s *Service) Record(subject thor.Bytes32, ts uint64, value *big.Int) (uint64, error) {
	if value == nil || value.Sign() < 0 {
		return 0, reverts.New(reverts.InvalidArgument, "checkpoint value must not be negative")
	}
	h := s.history(subject)
	n, err := h.Len()
	if err != nil {
		return 0, err
	}
	cp := Checkpoint{Timestamp: ts, Value: new(big.Int).Set(value)}
	if n > 0 {
		last, err := h.Get(n - 1)
		if err != nil {
			return 0, err
		}
		switch {
		case ts < last.Timestamp:
			logger.Error("checkpoint timestamp regression", "subject", subject, "last", last.Timestamp, "ts", ts)
			return 0, reverts.Newf(reverts.OrderingViolation, "timestamp %d precedes last checkpoint %d", ts, last.Timestamp)
		case ts == last.Timestamp:
			if err := h.Set(n-1, cp); err != nil {
				return 0, err
			}
			return n - 1, nil
		}
	}
	return h.Push(cp)
}

// ValueAt returns the value of subject in effect at ts, zero before the first checkpoint.
func (s *Service) ValueAt(subject thor.Bytes32, ts uint64) (*big.Int, error) {
	h := s.history(subject)
	n, err := h.Len()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return new(big.Int), nil
	}

	last, err := h.Get(n - 1)
	if err != nil {
		return nil, err
	}
	if ts >= last.Timestamp {
		return last.Value, nil
	}

	// largest index whose timestamp <= ts
	lo, hi := uint64(0), n-1
	found := false
	var value *big.Int
	for lo < hi {
		mid := lo + (hi-lo)/2
		cp, err := h.Get(mid)
		if err != nil {
			return nil, err
		}
		if cp.Timestamp <= ts {
			found = true
			value = cp.Value
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if !found {
		return new(big.Int), nil
	}
	return value, nil
}

// Current returns the latest value of subject, zero for an empty history.
func (s *Service) Current(subject thor.Bytes32) (*big.Int, error) {
	cp, ok, err := s.Latest(subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(big.Int), nil
	}
	return cp.Value, nil
}

// Latest returns the last checkpoint of subject.
func (s *Service) Latest(subject thor.Bytes32) (Checkpoint, bool, error) {
	h := s.history(subject)
	n, err := h.Len()
	if err != nil || n == 0 {
		return Checkpoint{}, false, err
	}
	cp, err := h.Get(n - 1)
	if err != nil {
		return Checkpoint{}, false, err
	}
	return cp, true, nil
}

// Len returns the number of checkpoints of subject.
func (s *Service) Len(subject thor.Bytes32) (uint64, error) {
	return s.history(subject).Len()
}

// At returns checkpoint i of subject.
func (s *Service) At(subject thor.Bytes32, i uint64) (Checkpoint, error) {
	cp, err := s.history(subject).Get(i)
	if err != nil {
		return Checkpoint{}, errors.Wrap(err, "checkpoint")
	}
	return cp, nil
}
