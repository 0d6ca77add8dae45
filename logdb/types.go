// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/vechain/stakebridge/thor"
)

// Event is a recorded staker or mirror event.
type Event struct {
	Seq       int64
	Domain    string
	Name      string
	Account   thor.Address
	Amount    *big.Int
	Timestamp uint64
	BoxID     uint64
	Nonce     uint64
	MessageID thor.Bytes32
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds event timestamps, both ends inclusive.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events on every non-empty field.
type EventCriteria struct {
	Domain  string
	Name    string
	Account *thor.Address
}

// EventFilter selects events matching any of CriteriaSet within Range.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
