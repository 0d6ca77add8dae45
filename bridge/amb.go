// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bridge

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/cache"
	"github.com/vechain/stakebridge/co"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/thor"
)

var logger = log.WithContext("pkg", "bridge")

// ErrUnknownMessage is returned when redelivering a message never sent.
var ErrUnknownMessage = errors.New("unknown message")

// sentCacheSize bounds the envelopes kept for redelivery after they left the queue.
const sentCacheSize = 8192

type route struct {
	domain thor.DomainID
	addr   thor.Address
}

// Failure is a delivery that did not succeed.
// Stale failures were rejected as already applied and never succeed on redelivery.
type Failure struct {
	Envelope *Envelope
	Reason   string
	Attempts int
	Stale    bool
}

// AMB is an in-process arbitrary message bridge.
// Sent envelopes are queued and delivered by a worker or by DeliverPending.
// Failed deliveries are kept and can be redelivered.
type AMB struct {
	mu        sync.Mutex
	maxGas    uint64
	key       *ecdsa.PrivateKey
	seq       uint64
	receivers map[route]Receiver
	pending   []*Envelope
	sent      *cache.LRU
	failures  map[thor.Bytes32]*Failure

	signal co.Signal
	goes   co.Goes
}

// NewAMB creates a relay. When key is not nil every envelope is signed with it.
func NewAMB(maxGasPerTx uint64, key *ecdsa.PrivateKey) *AMB {
	sent, _ := cache.NewLRU(sentCacheSize)
	return &AMB{
		maxGas:    maxGasPerTx,
		key:       key,
		receivers: make(map[route]Receiver),
		sent:      sent,
		failures:  make(map[thor.Bytes32]*Failure),
	}
}

func (a *AMB) MaxGasPerTx() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxGas
}

func (a *AMB) SetMaxGasPerTx(gas uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maxGas = gas
}

// Register routes envelopes addressed to addr on domain to r.
func (a *AMB) Register(domain thor.DomainID, addr thor.Address, r Receiver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.receivers[route{domain, addr}] = r
}

// Endpoint returns the Relay used by sender on the source domain.
func (a *AMB) Endpoint(source thor.DomainID, sender thor.Address) Relay {
	return &endpoint{amb: a, source: source, sender: sender}
}

type endpoint struct {
	amb    *AMB
	source thor.DomainID
	sender thor.Address
}

func (e *endpoint) Send(dest thor.DomainID, receiver thor.Address, payload []byte, gasLimit uint64) (thor.Bytes32, error) {
	return e.amb.send(e.source, dest, e.sender, receiver, payload, gasLimit)
}

func (e *endpoint) MaxGasPerTx() uint64 {
	return e.amb.MaxGasPerTx()
}

func (a *AMB) send(source, dest thor.DomainID, sender, receiver thor.Address, payload []byte, gasLimit uint64) (thor.Bytes32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gasLimit > a.maxGas {
		metricRelayMessages().AddWithLabel(1, map[string]string{"outcome": "rejected"})
		return thor.Bytes32{}, fmt.Errorf("gas limit %d exceeds max gas per tx %d", gasLimit, a.maxGas)
	}

	a.seq++
	env := &Envelope{
		Source:   source,
		Dest:     dest,
		Sender:   sender,
		Receiver: receiver,
		Seq:      a.seq,
		GasLimit: gasLimit,
		Data:     slices.Clone(payload),
	}
	env.ID = env.MessageID()
	if a.key != nil {
		if err := env.Sign(a.key); err != nil {
			return thor.Bytes32{}, err
		}
	}
	a.sent.Add(env.ID, env)
	a.pending = append(a.pending, env)
	metricRelayMessages().AddWithLabel(1, map[string]string{"outcome": "sent"})
	metricRelayPending().Set(int64(len(a.pending)))

	logger.Debug("message sent", "id", env.ID, "dest", dest, "receiver", receiver, "seq", env.Seq)
	a.signal.Signal()
	return env.ID, nil
}

// Pending returns the number of envelopes waiting for delivery.
func (a *AMB) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Drain removes and returns pending envelopes without delivering them.
func (a *AMB) Drain() []*Envelope {
	a.mu.Lock()
	defer a.mu.Unlock()

	envs := a.pending
	a.pending = nil
	metricRelayPending().Set(0)
	return envs
}

// DeliverPending delivers every queued envelope in send order and
// returns the number of successful deliveries.
func (a *AMB) DeliverPending() int {
	delivered := 0
	for _, env := range a.Drain() {
		if a.Deliver(env) == nil {
			delivered++
		}
	}
	return delivered
}

// Deliver hands env to its receiver. Failures are recorded.
func (a *AMB) Deliver(env *Envelope) error {
	a.mu.Lock()
	r, ok := a.receivers[route{env.Dest, env.Receiver}]
	a.mu.Unlock()

	var err error
	switch {
	case !ok:
		err = errors.Errorf("no receiver %v on domain %d", env.Receiver, env.Dest)
	case env.Gas() > env.GasLimit:
		err = errors.Errorf("out of gas: need %d, limit %d", env.Gas(), env.GasLimit)
	default:
		err = r.OnMessage(env)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		f, ok := a.failures[env.ID]
		if !ok {
			f = &Failure{Envelope: env}
			a.failures[env.ID] = f
		}
		f.Reason = err.Error()
		f.Attempts++
		f.Stale = reverts.Is(err, reverts.StaleTimestamp)
		outcome := "failed"
		if f.Stale {
			outcome = "stale"
		}
		metricRelayMessages().AddWithLabel(1, map[string]string{"outcome": outcome})
		logger.Debug("message delivery failed", "id", env.ID, "attempts", f.Attempts, "stale", f.Stale, "error", err)
		return err
	}
	delete(a.failures, env.ID)
	metricRelayMessages().AddWithLabel(1, map[string]string{"outcome": "delivered"})
	return nil
}

// Redeliver delivers a previously sent envelope again.
func (a *AMB) Redeliver(id thor.Bytes32) error {
	a.mu.Lock()
	var env *Envelope
	if f, ok := a.failures[id]; ok {
		env = f.Envelope
	} else if v, ok := a.sent.Get(id); ok {
		env = v.(*Envelope)
	}
	a.mu.Unlock()
	if env == nil {
		return errors.Wrapf(ErrUnknownMessage, "%v", id)
	}
	return a.Deliver(env)
}

// Failures returns current delivery failures ordered by send sequence.
// Stale rejections are included and tagged.
func (a *AMB) Failures() []Failure {
	a.mu.Lock()
	defer a.mu.Unlock()

	failures := make([]Failure, 0, len(a.failures))
	for _, f := range a.failures {
		failures = append(failures, *f)
	}
	slices.SortFunc(failures, func(x, y Failure) int {
		switch {
		case x.Envelope.Seq < y.Envelope.Seq:
			return -1
		case x.Envelope.Seq > y.Envelope.Seq:
			return 1
		}
		return 0
	})
	return failures
}

// Start runs the delivery worker until ctx is done.
func (a *AMB) Start(ctx context.Context) {
	logger.Debug("relay worker started")
	a.goes.Loop(ctx, &a.signal, func() { a.DeliverPending() })
}

// Wait blocks until the worker exits.
func (a *AMB) Wait() {
	a.goes.Wait()
}
