// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bridge

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/thor"
)

// Version is the schema version of cross-domain payloads.
const Version uint8 = 1

// Kind tags the body of a Message.
type Kind uint8

const (
	KindBalanceSnapshot Kind = iota + 1
	KindCachedBalance
)

func (k Kind) String() string {
	switch k {
	case KindBalanceSnapshot:
		return "balance-snapshot"
	case KindCachedBalance:
		return "cached-balance"
	}
	return "unknown"
}

var (
	ErrUnknownVersion = errors.New("unknown message version")
	ErrUnknownKind    = errors.New("unknown message kind")
)

// BalanceSnapshot carries an account balance and the total supply as of Timestamp.
// Nonce orders snapshots sharing a timestamp.
type BalanceSnapshot struct {
	Account     thor.Address
	Balance     *big.Int
	TotalSupply *big.Int
	Timestamp   uint64
	Nonce       uint64
}

// CachedBalance carries a historical account balance, re-pushed on demand.
type CachedBalance struct {
	Account   thor.Address
	Timestamp uint64
	Balance   *big.Int
}

// Message is the tagged wire form of a payload.
type Message struct {
	Version uint8
	Kind    Kind
	Body    rlp.RawValue
}

// Encode serializes a *BalanceSnapshot or *CachedBalance into a versioned message.
func Encode(body any) ([]byte, error) {
	var kind Kind
	switch body.(type) {
	case *BalanceSnapshot:
		kind = KindBalanceSnapshot
	case *CachedBalance:
		kind = KindCachedBalance
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "encode %T", body)
	}
	raw, err := rlp.EncodeToBytes(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode body")
	}
	return rlp.EncodeToBytes(&Message{Version: Version, Kind: kind, Body: raw})
}

// Decode parses a versioned message and returns its body.
func Decode(data []byte) (any, error) {
	var msg Message
	if err := rlp.DecodeBytes(data, &msg); err != nil {
		return nil, errors.Wrap(err, "decode message")
	}
	if msg.Version != Version {
		return nil, errors.Wrapf(ErrUnknownVersion, "version %d", msg.Version)
	}

	var body any
	switch msg.Kind {
	case KindBalanceSnapshot:
		body = new(BalanceSnapshot)
	case KindCachedBalance:
		body = new(CachedBalance)
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "kind %d", msg.Kind)
	}
	if err := rlp.DecodeBytes(msg.Body, body); err != nil {
		return nil, errors.Wrapf(err, "decode %v", msg.Kind)
	}
	return body, nil
}
