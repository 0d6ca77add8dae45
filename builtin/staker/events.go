// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakebridge/thor"
)

// Event names.
const (
	EventStake               = "Stake"
	EventUnstake             = "Unstake"
	EventLock                = "Lock"
	EventUnlock              = "Unlock"
	EventSlash               = "Slash"
	EventNewCoolDownBox      = "NewCoolDownBox"
	EventCoolDownBoxReleased = "CoolDownBoxReleased"
	EventSnapshotSent        = "SnapshotSent"
	EventCachedBalancePushed = "CachedBalancePushed"
)

// Event describes a committed change. Fields not relevant to Name are zero.
type Event struct {
	Name      string
	Account   thor.Address
	Amount    *big.Int
	Timestamp uint64

	// Stake, Unstake, Slash: indexes of the written checkpoints.
	AccountCheckpoint uint64
	SupplyCheckpoint  uint64

	// NewCoolDownBox, CoolDownBoxReleased.
	BoxID         uint64
	ReleasedSince uint64

	// SnapshotSent, CachedBalancePushed.
	MessageID thor.Bytes32
	Nonce     uint64
}
