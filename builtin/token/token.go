// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token is a fungible asset ledger with allowances, used as the staked asset.
package token

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/builtin/solidity"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/state"
	"github.com/vechain/stakebridge/thor"
)

var logger = log.WithContext("pkg", "token")

var (
	slotBalances    = thor.BytesToBytes32([]byte("balances"))
	slotAllowances  = thor.BytesToBytes32([]byte("allowances"))
	slotTotalSupply = thor.BytesToBytes32([]byte("total-supply"))
)

// Asset is the fungible asset the staker holds in custody.
type Asset interface {
	// TransferFrom moves amount from holder to custodian using custodian's allowance.
	TransferFrom(holder, custodian thor.Address, amount *big.Int) error
	// Transfer moves amount from custodian to recipient.
	Transfer(custodian, recipient thor.Address, amount *big.Int) error
	BalanceOf(addr thor.Address) (*big.Int, error)
}

// TransferEvent is emitted for every committed movement of tokens.
type TransferEvent struct {
	From   thor.Address
	To     thor.Address
	Amount *big.Int
}

type allowanceKey struct {
	owner, spender thor.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Token implements Asset over its own state. Every call is atomic.
type Token struct {
	mu          sync.Mutex
	state       *state.State
	balances    *solidity.Mapping[thor.Address, *big.Int]
	allowances  *solidity.Mapping[allowanceKey, *big.Int]
	totalSupply *solidity.Uint256

	feed  event.Feed
	scope event.SubscriptionScope
}

var _ Asset = (*Token)(nil)

func New(addr thor.Address, st *state.State) *Token {
	sctx := solidity.NewContext(addr, st)
	return &Token{
		state:       st,
		balances:    solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		allowances:  solidity.NewMapping[allowanceKey, *big.Int](sctx, slotAllowances),
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
	}
}

// SubscribeTransfer subscribes committed transfers.
func (t *Token) SubscribeTransfer(ch chan *TransferEvent) event.Subscription {
	return t.scope.Track(t.feed.Subscribe(ch))
}

// Close unsubscribes all subscribers.
func (t *Token) Close() {
	t.scope.Close()
}

// atomic runs fn in a state revision and commits on success.
func (t *Token) atomic(fn func() error) error {
	rev := t.state.NewCheckpoint()
	if err := fn(); err != nil {
		t.state.RevertTo(rev)
		return err
	}
	return t.state.Commit()
}

func requirePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "amount must be positive")
	}
	if amount.BitLen() > 256 {
		return reverts.New(reverts.InvalidArgument, "amount exceeds uint256")
	}
	return nil
}

// Mint credits amount to addr out of nothing. Used at genesis.
func (t *Token) Mint(addr thor.Address, amount *big.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.atomic(func() error {
		bal, err := t.balances.Get(addr)
		if err != nil {
			return err
		}
		if err := t.balances.Set(addr, bal.Add(bal, amount)); err != nil {
			return err
		}
		return t.totalSupply.Add(amount)
	})
	if err != nil {
		return err
	}
	t.feed.Send(&TransferEvent{To: addr, Amount: new(big.Int).Set(amount)})
	return nil
}

// Approve sets the amount spender may pull from owner.
func (t *Token) Approve(owner, spender thor.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.New(reverts.InvalidArgument, "allowance must not be negative")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.atomic(func() error {
		return t.allowances.Set(allowanceKey{owner, spender}, amount)
	})
}

// Allowance returns the amount spender may pull from owner.
func (t *Token) Allowance(owner, spender thor.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.allowances.Get(allowanceKey{owner, spender})
}

func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.balances.Get(addr)
}

// TotalSupply returns the amount minted so far.
func (t *Token) TotalSupply() (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.totalSupply.Get()
}

func (t *Token) Transfer(from, to thor.Address, amount *big.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.atomic(func() error { return t.move(from, to, amount) }); err != nil {
		return err
	}
	t.emit(from, to, amount)
	return nil
}

func (t *Token) TransferFrom(holder, spender thor.Address, amount *big.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.atomic(func() error {
		key := allowanceKey{holder, spender}
		allowance, err := t.allowances.Get(key)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return reverts.New(reverts.InsufficientAssetBalance, "transfer amount exceeds allowance")
		}
		if err := t.allowances.Set(key, allowance.Sub(allowance, amount)); err != nil {
			return err
		}
		return t.move(holder, spender, amount)
	})
	if err != nil {
		return err
	}
	t.emit(holder, spender, amount)
	return nil
}

func (t *Token) move(from, to thor.Address, amount *big.Int) error {
	fromBal, err := t.balances.Get(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.New(reverts.InsufficientAssetBalance, "transfer amount exceeds balance")
	}
	if err := t.balances.Set(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	return t.balances.Set(to, toBal.Add(toBal, amount))
}

func (t *Token) emit(from, to thor.Address, amount *big.Int) {
	logger.Trace("transfer", "from", from, "to", to, "amount", amount)
	t.feed.Send(&TransferEvent{From: from, To: to, Amount: new(big.Int).Set(amount)})
}
