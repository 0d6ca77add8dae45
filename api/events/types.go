// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"

	ethmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakebridge/logdb"
	"github.com/vechain/stakebridge/thor"
)

type Range struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventCriteria struct {
	Domain  string        `json:"domain,omitempty"`
	Name    string        `json:"name,omitempty"`
	Account *thor.Address `json:"account,omitempty"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

type FilteredEvent struct {
	Domain    string                   `json:"domain"`
	Name      string                   `json:"name"`
	Account   thor.Address             `json:"account"`
	Amount    *ethmath.HexOrDecimal256 `json:"amount,omitempty"`
	Timestamp uint64                   `json:"timestamp"`
	BoxID     uint64                   `json:"boxID,omitempty"`
	Nonce     uint64                   `json:"nonce,omitempty"`
	MessageID *thor.Bytes32            `json:"messageID,omitempty"`
}

func convertEventFilter(ef *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{Order: ef.Order}
	if ef.Range != nil {
		r := &logdb.Range{To: math.MaxInt64}
		if ef.Range.From != nil {
			r.From = *ef.Range.From
		}
		if ef.Range.To != nil && *ef.Range.To < math.MaxInt64 {
			r.To = *ef.Range.To
		}
		f.Range = r
	}
	for _, c := range ef.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Domain:  c.Domain,
			Name:    c.Name,
			Account: c.Account,
		})
	}
	if ef.Options != nil {
		f.Options = &logdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	return f
}

func convertEvent(e *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Domain:    e.Domain,
		Name:      e.Name,
		Account:   e.Account,
		Timestamp: e.Timestamp,
		BoxID:     e.BoxID,
		Nonce:     e.Nonce,
	}
	if e.Amount != nil {
		fe.Amount = (*ethmath.HexOrDecimal256)(e.Amount)
	}
	if !e.MessageID.IsZero() {
		id := e.MessageID
		fe.MessageID = &id
	}
	return fe
}
