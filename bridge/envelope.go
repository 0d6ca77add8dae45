// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bridge

import (
	"crypto/ecdsa"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/thor"
)

// Envelope is a payload in transit between domains.
type Envelope struct {
	ID        thor.Bytes32
	Source    thor.DomainID
	Dest      thor.DomainID
	Sender    thor.Address
	Receiver  thor.Address
	Seq       uint64
	GasLimit  uint64
	Data      []byte
	Signature []byte
}

func (e *Envelope) encodeBody(w io.Writer) {
	rlp.Encode(w, []any{
		e.Source,
		e.Dest,
		e.Sender,
		e.Receiver,
		e.Seq,
		e.GasLimit,
		e.Data,
	})
}

// MessageID returns the id derived from the envelope content.
func (e *Envelope) MessageID() thor.Bytes32 {
	return thor.Keccak256Fn(e.encodeBody)
}

// SigningHash returns the hash a relay validator signs.
func (e *Envelope) SigningHash() thor.Bytes32 {
	return thor.Blake2bFn(e.encodeBody)
}

// Sign attaches the signature of the validator key.
func (e *Envelope) Sign(key *ecdsa.PrivateKey) error {
	hash := e.SigningHash()
	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return errors.Wrap(err, "sign envelope")
	}
	e.Signature = sig
	return nil
}

// Signer recovers the validator that signed the envelope.
func (e *Envelope) Signer() (thor.Address, error) {
	if len(e.Signature) == 0 {
		return thor.Address{}, errors.New("envelope not signed")
	}
	hash := e.SigningHash()
	pub, err := crypto.SigToPub(hash[:], e.Signature)
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "recover signer")
	}
	return thor.Address(crypto.PubkeyToAddress(*pub)), nil
}

// Gas returns the gas consumed delivering the envelope.
func (e *Envelope) Gas() uint64 {
	return thor.MessageGas(len(e.Data))
}
