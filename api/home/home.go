// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package home

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/api/utils"
	"github.com/vechain/stakebridge/builtin/mirror"
	"github.com/vechain/stakebridge/thor"
)

type Home struct {
	mirror *mirror.Mirror
}

func New(mirror *mirror.Mirror) *Home {
	return &Home{mirror}
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

func (h *Home) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	at, err := utils.ParseTimestamp(req.URL.Query().Get("at"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "at"))
	}
	var bal *big.Int
	if at != nil {
		bal, err = h.mirror.BalanceOfAt(addr, *at)
	} else {
		bal, err = h.mirror.BalanceOf(addr)
	}
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &Account{Balance: hex(bal)})
}

func (h *Home) handleGetSupply(w http.ResponseWriter, req *http.Request) error {
	at, err := utils.ParseTimestamp(req.URL.Query().Get("at"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "at"))
	}
	var supply *big.Int
	if at != nil {
		supply, err = h.mirror.TotalSupplyAt(*at)
	} else {
		supply, err = h.mirror.TotalSupply()
	}
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &Supply{TotalSupply: hex(supply)})
}

func (h *Home) handleGetAccountSync(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	s, err := h.mirror.LastApplied(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &SyncState{Timestamp: s.Timestamp, Nonce: s.Nonce})
}

func (h *Home) handleGetSync(w http.ResponseWriter, _ *http.Request) error {
	s, err := h.mirror.LastAppliedGlobal()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &SyncState{Timestamp: s.Timestamp, Nonce: s.Nonce})
}

func (h *Home) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	cfg := h.mirror.Config()
	return utils.WriteJSON(w, &Config{
		Address:         cfg.Address,
		ForeignDomain:   cfg.ForeignDomain,
		ForeignMediator: cfg.ForeignMediator,
		Validator:       cfg.Validator,
	})
}

func (h *Home) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /home/accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetAccount))
	sub.Path("/accounts/{address}/sync").
		Methods(http.MethodGet).
		Name("GET /home/accounts/{address}/sync").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetAccountSync))
	sub.Path("/supply").
		Methods(http.MethodGet).
		Name("GET /home/supply").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetSupply))
	sub.Path("/sync").
		Methods(http.MethodGet).
		Name("GET /home/sync").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetSync))
	sub.Path("/config").
		Methods(http.MethodGet).
		Name("GET /home/config").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetConfig))
}
