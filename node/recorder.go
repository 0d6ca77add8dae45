// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"

	"github.com/vechain/stakebridge/builtin/mirror"
	"github.com/vechain/stakebridge/builtin/staker"
	"github.com/vechain/stakebridge/logdb"
)

// recorder writes emitted events into the log db.
type recorder struct {
	w *logdb.Writer
}

func newRecorder(w *logdb.Writer) *recorder {
	return &recorder{w: w}
}

func fromStaker(ev *staker.Event) *logdb.Event {
	return &logdb.Event{
		Domain:    "foreign",
		Name:      ev.Name,
		Account:   ev.Account,
		Amount:    ev.Amount,
		Timestamp: ev.Timestamp,
		BoxID:     ev.BoxID,
		Nonce:     ev.Nonce,
		MessageID: ev.MessageID,
	}
}

func fromMirror(ev *mirror.Event) *logdb.Event {
	return &logdb.Event{
		Domain:    "home",
		Name:      ev.Name,
		Account:   ev.Account,
		Amount:    ev.Balance,
		Timestamp: ev.Timestamp,
		Nonce:     ev.Nonce,
	}
}

func (r *recorder) write(ev *logdb.Event) {
	if err := r.w.Write(ev); err != nil {
		logger.Warn("failed to record event", "name", ev.Name, "err", err)
	}
}

// flush commits once no more events are queued.
func (r *recorder) flush(queued int) {
	if queued > 0 || r.w.UncommittedCount() == 0 {
		return
	}
	if err := r.w.Commit(); err != nil {
		logger.Warn("failed to commit events", "err", err)
	}
}

func (r *recorder) run(ctx context.Context, stakerEvents <-chan *staker.Event, mirrorEvents <-chan *mirror.Event) {
	defer func() {
		if err := r.w.Commit(); err != nil {
			logger.Warn("failed to commit events", "err", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-stakerEvents:
			r.write(fromStaker(ev))
		case ev := <-mirrorEvents:
			r.write(fromMirror(ev))
		}
		r.flush(len(stakerEvents) + len(mirrorEvents))
	}
}
