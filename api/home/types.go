// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package home

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakebridge/thor"
)

type Account struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type Supply struct {
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

// SyncState is the ordering key of the last applied message.
type SyncState struct {
	Timestamp uint64 `json:"timestamp"`
	Nonce     uint64 `json:"nonce"`
}

type Config struct {
	Address         thor.Address  `json:"address"`
	ForeignDomain   thor.DomainID `json:"foreignDomain"`
	ForeignMediator thor.Address  `json:"foreignMediator"`
	Validator       *thor.Address `json:"validator"`
}
