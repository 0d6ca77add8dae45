// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import "time"

// DomainID identifies one side of the bridge.
type DomainID uint64

// Constants of the staking mediators.
const (
	DefaultCoolDownPeriod  = time.Hour
	DefaultRequestGasLimit = uint64(2_000_000)
	DefaultMaxGasPerTx     = uint64(2_000_000)

	// the relay charges a message base gas plus a per-byte cost of the encoded payload.
	MessageBaseGas    = uint64(21_000)
	MessageGasPerByte = uint64(68)
)

// MessageGas returns the gas a relay charges to carry a payload of the given size.
func MessageGas(size int) uint64 {
	return MessageBaseGas + uint64(size)*MessageGasPerByte
}
