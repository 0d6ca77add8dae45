// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node assembles both sides of the bridge over one database and
// runs the background routines serving them.
package node

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/mirror"
	"github.com/vechain/stakebridge/builtin/staker"
	"github.com/vechain/stakebridge/builtin/token"
	"github.com/vechain/stakebridge/co"
	"github.com/vechain/stakebridge/genesis"
	"github.com/vechain/stakebridge/kv"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/logdb"
	"github.com/vechain/stakebridge/state"
	"github.com/vechain/stakebridge/thor"
)

var logger = log.WithContext("pkg", "node")

// storage buckets of each side
var (
	tokenBucket   = kv.Bucket("t")
	foreignBucket = kv.Bucket("f")
	homeBucket    = kv.Bucket("h")
)

type Options struct {
	CacheSize int
	// SyncRelay delivers every message as soon as it is sent.
	SyncRelay bool
	// SkipLogs disables event recording.
	SkipLogs bool
	Clock    clockwork.Clock
}

// Node is the abstraction of a local bridge deployment.
type Node struct {
	gen    *genesis.Genesis
	opts   Options
	clock  clockwork.Clock
	states []namedState
	logDB  *logdb.LogDB
	amb    *bridge.AMB
	token  *token.Token
	staker *staker.Staker
	mirror *mirror.Mirror
	goes   co.Goes
}

// New opens both sides of gen over db. logDB may be nil when opts.SkipLogs is set.
func New(gen *genesis.Genesis, db kv.Store, logDB *logdb.LogDB, opts Options) (*Node, error) {
	if logDB == nil && !opts.SkipLogs {
		return nil, errors.New("log db required")
	}
	var (
		key       *ecdsa.PrivateKey
		validator *thor.Address
	)
	if gen.Relay.ValidatorKey != "" {
		k, err := crypto.HexToECDSA(gen.Relay.ValidatorKey)
		if err != nil {
			return nil, errors.Wrap(err, "validator key")
		}
		addr := thor.Address(crypto.PubkeyToAddress(k.PublicKey))
		key, validator = k, &addr
	}

	n := &Node{
		gen:   gen,
		opts:  opts,
		clock: opts.Clock,
		logDB: logDB,
	}
	if n.clock == nil {
		n.clock = clockwork.NewRealClock()
	}
	newState := func(name string, b kv.Bucket) (*state.State, error) {
		st, err := state.New(b.NewStore(db), opts.CacheSize)
		if err != nil {
			return nil, err
		}
		n.states = append(n.states, namedState{name, st})
		return st, nil
	}
	tokenState, err := newState("token", tokenBucket)
	if err != nil {
		return nil, err
	}
	foreignState, err := newState("foreign", foreignBucket)
	if err != nil {
		return nil, err
	}
	homeState, err := newState("home", homeBucket)
	if err != nil {
		return nil, err
	}

	n.amb = bridge.NewAMB(gen.MaxGasPerTx(), key)
	n.token = token.New(gen.Token, tokenState)
	if err := gen.Allocate(n.token); err != nil {
		return nil, err
	}

	n.mirror = mirror.New(gen.MirrorConfig(validator), homeState)
	n.amb.Register(gen.Home.Domain, gen.Home.Mirror, n.mirror)

	var relay bridge.Relay = n.amb.Endpoint(gen.Foreign.Domain, gen.Foreign.Staker)
	if opts.SyncRelay {
		relay = &syncRelay{relay, n.amb}
	}
	if n.staker, err = staker.New(gen.StakerConfig(), foreignState, n.token, relay, n.clock); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) Genesis() *genesis.Genesis { return n.gen }
func (n *Node) Token() *token.Token       { return n.token }
func (n *Node) Staker() *staker.Staker    { return n.staker }
func (n *Node) Mirror() *mirror.Mirror    { return n.mirror }
func (n *Node) Relay() *bridge.AMB        { return n.amb }
func (n *Node) LogDB() *logdb.LogDB       { return n.logDB }

// Run serves the relay worker and the event recorder until ctx is canceled.
func (n *Node) Run(ctx context.Context) error {
	if !n.opts.SkipLogs {
		rec := newRecorder(n.logDB.NewWriter())
		stakerEvents := make(chan *staker.Event, 256)
		mirrorEvents := make(chan *mirror.Event, 256)
		stakerSub := n.staker.SubscribeEvents(stakerEvents)
		mirrorSub := n.mirror.SubscribeEvents(mirrorEvents)
		n.goes.Go(func() {
			defer stakerSub.Unsubscribe()
			defer mirrorSub.Unsubscribe()
			rec.run(ctx, stakerEvents, mirrorEvents)
		})
	}
	if !n.opts.SyncRelay {
		n.amb.Start(ctx)
	}
	n.goes.Go(func() { n.runCacheStats(ctx) })

	logger.Info("node started", "genesis", n.gen.Name, "sync-relay", n.opts.SyncRelay)
	<-ctx.Done()
	n.amb.Wait()
	n.goes.Wait()
	logger.Info("node stopped")
	return nil
}

// Close releases the subscriptions of both sides.
func (n *Node) Close() {
	n.staker.Close()
	n.mirror.Close()
	n.token.Close()
}

// syncRelay delivers right after each send.
type syncRelay struct {
	bridge.Relay
	amb *bridge.AMB
}

func (r *syncRelay) Send(dest thor.DomainID, receiver thor.Address, payload []byte, gasLimit uint64) (thor.Bytes32, error) {
	id, err := r.Relay.Send(dest, receiver, payload, gasLimit)
	if err != nil {
		return id, err
	}
	r.amb.DeliverPending()
	return id, nil
}
