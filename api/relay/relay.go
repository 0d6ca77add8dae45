// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package relay

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/api/utils"
	"github.com/vechain/stakebridge/bridge"
	"github.com/vechain/stakebridge/thor"
)

type Status struct {
	Pending     int    `json:"pending"`
	Failures    int    `json:"failures"`
	MaxGasPerTx uint64 `json:"maxGasPerTx"`
}

type Failure struct {
	ID       thor.Bytes32  `json:"id"`
	Seq      uint64        `json:"seq"`
	Source   thor.DomainID `json:"source"`
	Dest     thor.DomainID `json:"dest"`
	Sender   thor.Address  `json:"sender"`
	Receiver thor.Address  `json:"receiver"`
	GasLimit uint64        `json:"gasLimit"`
	Reason   string        `json:"reason"`
	Attempts int           `json:"attempts"`
	Stale    bool          `json:"stale"`
}

type Relay struct {
	amb *bridge.AMB
}

func New(amb *bridge.AMB) *Relay {
	return &Relay{amb}
}

func (r *Relay) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &Status{
		Pending:     r.amb.Pending(),
		Failures:    len(r.amb.Failures()),
		MaxGasPerTx: r.amb.MaxGasPerTx(),
	})
}

func (r *Relay) handleGetFailures(w http.ResponseWriter, _ *http.Request) error {
	failures := r.amb.Failures()
	result := make([]*Failure, 0, len(failures))
	for _, f := range failures {
		env := f.Envelope
		result = append(result, &Failure{
			ID:       env.ID,
			Seq:      env.Seq,
			Source:   env.Source,
			Dest:     env.Dest,
			Sender:   env.Sender,
			Receiver: env.Receiver,
			GasLimit: env.GasLimit,
			Reason:   f.Reason,
			Attempts: f.Attempts,
			Stale:    f.Stale,
		})
	}
	return utils.WriteJSON(w, result)
}

func (r *Relay) handleRedeliver(w http.ResponseWriter, req *http.Request) error {
	id, err := thor.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	if err := r.amb.Redeliver(id); err != nil {
		if errors.Is(err, bridge.ErrUnknownMessage) {
			return utils.NotFound(err)
		}
		return utils.HTTPError(err, http.StatusConflict)
	}
	return utils.WriteJSON(w, utils.M{"id": id.String(), "delivered": true})
}

func (r *Relay) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /relay").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetStatus))
	sub.Path("/failures").
		Methods(http.MethodGet).
		Name("GET /relay/failures").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetFailures))
	sub.Path("/failures/{id}/redeliver").
		Methods(http.MethodPost).
		Name("POST /relay/failures/{id}/redeliver").
		HandlerFunc(utils.WrapHandlerFunc(r.handleRedeliver))
}
