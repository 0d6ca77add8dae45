// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package foreign

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakebridge/builtin/cooldown"
	"github.com/vechain/stakebridge/thor"
)

// Account is the staked position of an account.
// Locked and Unlocked are only present for the current state.
type Account struct {
	Balance  *math.HexOrDecimal256 `json:"balance"`
	Locked   *math.HexOrDecimal256 `json:"locked,omitempty"`
	Unlocked *math.HexOrDecimal256 `json:"unlocked,omitempty"`
}

// Supply is the aggregate stake.
type Supply struct {
	TotalSupply   *math.HexOrDecimal256 `json:"totalSupply"`
	TotalLocked   *math.HexOrDecimal256 `json:"totalLocked,omitempty"`
	TotalUnlocked *math.HexOrDecimal256 `json:"totalUnlocked,omitempty"`
}

type Checkpoint struct {
	Timestamp uint64                `json:"timestamp"`
	Value     *math.HexOrDecimal256 `json:"value"`
}

type Box struct {
	ID            uint64                `json:"id"`
	Holder        thor.Address          `json:"holder"`
	Amount        *math.HexOrDecimal256 `json:"amount"`
	CreatedAt     uint64                `json:"createdAt"`
	ReleasedSince uint64                `json:"releasedSince"`
	Released      bool                  `json:"released"`
}

func convertBox(b *cooldown.Box) *Box {
	return &Box{
		ID:            b.ID,
		Holder:        b.Holder,
		Amount:        hex(b.Amount),
		CreatedAt:     b.CreatedAt,
		ReleasedSince: b.ReleasedSince,
		Released:      b.Released,
	}
}

// Config is the administrative state of the staker.
type Config struct {
	Address         thor.Address  `json:"address"`
	Domain          thor.DomainID `json:"domain"`
	HomeDomain      thor.DomainID `json:"homeDomain"`
	Owner           thor.Address  `json:"owner"`
	Slasher         thor.Address  `json:"slasher"`
	Mediator        thor.Address  `json:"mediator"`
	RequestGasLimit uint64        `json:"requestGasLimit"`
	CoolDownPeriod  uint64        `json:"coolDownPeriod"`
	EnableLocking   bool          `json:"enableLocking"`
	Nonce           uint64        `json:"nonce"`
	BoxCount        uint64        `json:"boxCount"`
}

// PushRequest asks for the balance of Account at Timestamp to be relayed again.
type PushRequest struct {
	Account   *thor.Address `json:"account"`
	Timestamp *uint64       `json:"timestamp"`
}

type PushResult struct {
	MessageID thor.Bytes32 `json:"messageID"`
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}
