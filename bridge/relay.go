// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bridge

import "github.com/vechain/stakebridge/thor"

// Relay carries payloads to another domain, at least once and in no particular order.
type Relay interface {
	// Send queues payload for receiver on dest and returns the message id.
	Send(dest thor.DomainID, receiver thor.Address, payload []byte, gasLimit uint64) (thor.Bytes32, error)
	// MaxGasPerTx returns the largest gas limit a message may request.
	MaxGasPerTx() uint64
}

// Receiver consumes delivered envelopes. A returned error marks the delivery failed.
type Receiver interface {
	OnMessage(env *Envelope) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(env *Envelope) error

func (f ReceiverFunc) OnMessage(env *Envelope) error {
	return f(env)
}
