// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/builtin/mirror"
)

// Relay is the part of the relay health looks at.
type Relay interface {
	Pending() int
	Failures() []bridge.Failure
}

// Synced reports the last message the mirror applied.
type Synced interface {
	LastAppliedGlobal() (mirror.SyncState, error)
}

type RelayStatus struct {
	Pending  int `json:"pending"`
	Failures int `json:"failures"`
	Stale    int `json:"stale"`
}

type MirrorStatus struct {
	Timestamp uint64     `json:"timestamp"`
	Nonce     uint64     `json:"nonce"`
	Progress  *time.Time `json:"progressedAt"`
}

type Status struct {
	Healthy bool          `json:"healthy"`
	Relay   *RelayStatus  `json:"relay"`
	Mirror  *MirrorStatus `json:"mirror"`
}

// Health judges the bridge healthy when no delivery has failed and the
// mirror keeps up with queued messages. Stale rejections are reported but
// do not count as failures.
type Health struct {
	lock     sync.Mutex
	relay    Relay
	synced   Synced
	clock    clockwork.Clock
	maxStall time.Duration

	last       mirror.SyncState
	progressAt time.Time
}

// New creates a health checker. A backlog that makes no progress for maxStall is unhealthy.
func New(relay Relay, synced Synced, clock clockwork.Clock, maxStall time.Duration) *Health {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Health{
		relay:      relay,
		synced:     synced,
		clock:      clock,
		maxStall:   maxStall,
		progressAt: clock.Now(),
	}
}

func (h *Health) Status() (*Status, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	state, err := h.synced.LastAppliedGlobal()
	if err != nil {
		return nil, err
	}
	now := h.clock.Now()
	if state != h.last {
		h.last = state
		h.progressAt = now
	}

	pending := h.relay.Pending()
	var failures, stale int
	for _, f := range h.relay.Failures() {
		if f.Stale {
			stale++
		} else {
			failures++
		}
	}
	stalled := pending > 0 && now.Sub(h.progressAt) > h.maxStall

	progressAt := h.progressAt
	return &Status{
		Healthy: failures == 0 && !stalled,
		Relay: &RelayStatus{
			Pending:  pending,
			Failures: failures,
			Stale:    stale,
		},
		Mirror: &MirrorStatus{
			Timestamp: state.Timestamp,
			Nonce:     state.Nonce,
			Progress:  &progressAt,
		},
	}, nil
}
