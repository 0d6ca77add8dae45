// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakebridge/thor"
)

// Array is an append-mostly list in storage, like a dynamic array in Solidity.
// The length lives at the base slot and element i at blake2b(base, i).
type Array[V any] struct {
	context *Context
	basePos thor.Bytes32
	length  *Uint256
}

func NewArray[V any](context *Context, pos thor.Bytes32) *Array[V] {
	return &Array[V]{
		context: context,
		basePos: pos,
		length:  NewUint256(context, pos),
	}
}

func (a *Array[V]) position(i uint64) thor.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], i)
	return thor.Blake2b(a.basePos.Bytes(), b[:])
}

// Len returns the number of elements.
func (a *Array[V]) Len() (uint64, error) {
	n, err := a.length.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Get returns element i. It fails when i is out of range.
func (a *Array[V]) Get(i uint64) (value V, err error) {
	n, err := a.Len()
	if err != nil {
		return value, err
	}
	if i >= n {
		return value, fmt.Errorf("array index out of range [%d] with length %d", i, n)
	}
	err = a.context.state.DecodeStorage(a.context.address, a.position(i), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set overwrites element i. It fails when i is out of range.
func (a *Array[V]) Set(i uint64, value V) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	if i >= n {
		return fmt.Errorf("array index out of range [%d] with length %d", i, n)
	}
	return a.context.state.EncodeStorage(a.context.address, a.position(i), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Push appends value and returns its index.
func (a *Array[V]) Push(value V) (uint64, error) {
	n, err := a.Len()
	if err != nil {
		return 0, err
	}
	if err := a.context.state.EncodeStorage(a.context.address, a.position(n), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	}); err != nil {
		return 0, err
	}
	a.length.SetUint64(n + 1)
	return n, nil
}
