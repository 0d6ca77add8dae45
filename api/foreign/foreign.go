// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package foreign

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/api/utils"
	"github.com/vechain/stakebridge/builtin/staker"
	"github.com/vechain/stakebridge/thor"
)

type Foreign struct {
	staker *staker.Staker
}

func New(staker *staker.Staker) *Foreign {
	return &Foreign{staker}
}

func (f *Foreign) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	at, err := utils.ParseTimestamp(req.URL.Query().Get("at"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "at"))
	}
	if at != nil {
		bal, err := f.staker.BalanceOfAt(addr, *at)
		if err != nil {
			return utils.FromRevert(err)
		}
		return utils.WriteJSON(w, &Account{Balance: hex(bal)})
	}

	bal, err := f.staker.BalanceOf(addr)
	if err != nil {
		return err
	}
	locked, err := f.staker.LockedBalanceOf(addr)
	if err != nil {
		return err
	}
	unlocked, err := f.staker.UnlockedBalanceOf(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{
		Balance:  hex(bal),
		Locked:   hex(locked),
		Unlocked: hex(unlocked),
	})
}

func (f *Foreign) handleGetSupply(w http.ResponseWriter, req *http.Request) error {
	at, err := utils.ParseTimestamp(req.URL.Query().Get("at"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "at"))
	}
	if at != nil {
		supply, err := f.staker.TotalSupplyAt(*at)
		if err != nil {
			return utils.FromRevert(err)
		}
		return utils.WriteJSON(w, &Supply{TotalSupply: hex(supply)})
	}

	supply, err := f.staker.TotalSupply()
	if err != nil {
		return err
	}
	locked, err := f.staker.TotalLocked()
	if err != nil {
		return err
	}
	unlocked, err := f.staker.TotalUnlocked()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Supply{
		TotalSupply:   hex(supply),
		TotalLocked:   hex(locked),
		TotalUnlocked: hex(unlocked),
	})
}

func (f *Foreign) handleGetCheckpoint(w http.ResponseWriter, req *http.Request) error {
	var account *thor.Address
	if s, ok := mux.Vars(req)["address"]; ok {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "address"))
		}
		account = &addr
	}
	index, err := strconv.ParseUint(mux.Vars(req)["index"], 0, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "index"))
	}
	cp, err := f.staker.Checkpoint(account, index)
	if err != nil {
		return utils.NotFound(err)
	}
	return utils.WriteJSON(w, &Checkpoint{Timestamp: cp.Timestamp, Value: hex(cp.Value)})
}

func (f *Foreign) handleGetBox(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 0, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	box, err := f.staker.CoolDownBox(id)
	if err != nil {
		return err
	}
	if box == nil {
		return utils.NotFound(errors.Errorf("box %d not found", id))
	}
	return utils.WriteJSON(w, convertBox(box))
}

func (f *Foreign) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	cfg := f.staker.Config()
	owner, err := f.staker.Owner()
	if err != nil {
		return err
	}
	slasher, err := f.staker.LockedStakeSlasher()
	if err != nil {
		return err
	}
	mediator, err := f.staker.MediatorContractOnOtherSide()
	if err != nil {
		return err
	}
	gasLimit, err := f.staker.RequestGasLimit()
	if err != nil {
		return err
	}
	nonce, err := f.staker.Nonce()
	if err != nil {
		return err
	}
	count, err := f.staker.CoolDownBoxCount()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Config{
		Address:         cfg.Address,
		Domain:          cfg.Domain,
		HomeDomain:      cfg.HomeDomain,
		Owner:           owner,
		Slasher:         slasher,
		Mediator:        mediator,
		RequestGasLimit: gasLimit,
		CoolDownPeriod:  f.staker.CoolDownPeriod(),
		EnableLocking:   cfg.EnableLocking,
		Nonce:           nonce,
		BoxCount:        count,
	})
}

func (f *Foreign) handlePush(w http.ResponseWriter, req *http.Request) error {
	var body PushRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Account == nil {
		return utils.BadRequest(errors.New("body: account required"))
	}
	if body.Timestamp == nil {
		return utils.BadRequest(errors.New("body: timestamp required"))
	}
	id, err := f.staker.PushCachedBalance(*body.Account, *body.Timestamp)
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &PushResult{MessageID: id})
}

func (f *Foreign) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /foreign/accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetAccount))
	sub.Path("/accounts/{address}/checkpoints/{index}").
		Methods(http.MethodGet).
		Name("GET /foreign/accounts/{address}/checkpoints/{index}").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetCheckpoint))
	sub.Path("/supply").
		Methods(http.MethodGet).
		Name("GET /foreign/supply").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetSupply))
	sub.Path("/supply/checkpoints/{index}").
		Methods(http.MethodGet).
		Name("GET /foreign/supply/checkpoints/{index}").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetCheckpoint))
	sub.Path("/boxes/{id}").
		Methods(http.MethodGet).
		Name("GET /foreign/boxes/{id}").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetBox))
	sub.Path("/config").
		Methods(http.MethodGet).
		Name("GET /foreign/config").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetConfig))
	sub.Path("/push").
		Methods(http.MethodPost).
		Name("POST /foreign/push").
		HandlerFunc(utils.WrapHandlerFunc(f.handlePush))
}
