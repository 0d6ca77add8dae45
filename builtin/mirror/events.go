// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mirror

import (
	"math/big"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/thor"
)

const (
	EventBalanceSynced = "BalanceSynced"
	EventSyncRejected  = "SyncRejected"
)

type Event struct {
	Name        string
	Kind        bridge.Kind
	Account     thor.Address
	Balance     *big.Int
	TotalSupply *big.Int
	Timestamp   uint64
	Nonce       uint64
	Reason      string
}
