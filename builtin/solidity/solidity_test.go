// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakebridge/lvldb"
	"github.com/vechain/stakebridge/state"
	"github.com/vechain/stakebridge/test/datagen"
	"github.com/vechain/stakebridge/thor"
)

type TestStruct struct {
	Field1 uint64
	Addr1  thor.Address
	Amount *big.Int
}

// newTestContext returns a fresh Context over an in-memory store.
func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 64)
	require.NoError(t, err)
	return NewContext(thor.Address{1}, st)
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, *TestStruct](ctx, thor.Bytes32{1})

	addr := datagen.RandAddress()
	v, err := m.Get(addr)
	require.NoError(t, err)
	require.NotNil(t, v, "pointer values are allocated for missing keys")
	assert.Equal(t, uint64(0), v.Field1)

	want := &TestStruct{Field1: 7, Addr1: datagen.RandAddress(), Amount: big.NewInt(100)}
	require.NoError(t, m.Set(addr, want))

	got, err := m.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, want.Field1, got.Field1)
	assert.Equal(t, want.Addr1, got.Addr1)
	assert.Equal(t, 0, want.Amount.Cmp(got.Amount))

	m.Delete(addr)
	got, err = m.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Field1)
}

func TestMappingIsolatedByPosition(t *testing.T) {
	ctx := newTestContext(t)
	m1 := NewMapping[thor.Bytes32, uint64](ctx, thor.Bytes32{1})
	m2 := NewMapping[thor.Bytes32, uint64](ctx, thor.Bytes32{2})

	key := datagen.RandomHash()
	require.NoError(t, m1.Set(key, 11))

	v, err := m2.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestArray(t *testing.T) {
	ctx := newTestContext(t)
	arr := NewArray[TestStruct](ctx, thor.Bytes32{3})

	n, err := arr.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	_, err = arr.Get(0)
	assert.Error(t, err)
	assert.Error(t, arr.Set(0, TestStruct{}))

	for i := range uint64(5) {
		idx, err := arr.Push(TestStruct{Field1: i * 10, Amount: big.NewInt(int64(i))})
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}
	n, _ = arr.Len()
	assert.Equal(t, uint64(5), n)

	v, err := arr.Get(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), v.Field1)

	require.NoError(t, arr.Set(4, TestStruct{Field1: 99, Amount: big.NewInt(1)}))
	v, err = arr.Get(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), v.Field1)
	n, _ = arr.Len()
	assert.Equal(t, uint64(5), n)
}

func TestArrayRevert(t *testing.T) {
	ctx := newTestContext(t)
	arr := NewArray[uint64](ctx, thor.Bytes32{4})

	arr.Push(1)
	rev := ctx.State().NewCheckpoint()
	arr.Push(2)
	arr.Push(3)
	ctx.State().RevertTo(rev)

	n, err := arr.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, thor.Bytes32{5})

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	u.Set(big.NewInt(100))
	require.NoError(t, u.Add(big.NewInt(50)))
	require.NoError(t, u.Add(big.NewInt(-20)))
	v, _ = u.Get()
	assert.Equal(t, big.NewInt(130), v)

	// out of range results leave the slot untouched
	assert.Error(t, u.Add(big.NewInt(-131)))
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.Error(t, u.Add(maxUint256))
	v, _ = u.Get()
	assert.Equal(t, big.NewInt(130), v)

	u.SetUint64(7)
	v, _ = u.Get()
	assert.Equal(t, uint64(7), v.Uint64())
}

func TestAddress(t *testing.T) {
	ctx := newTestContext(t)
	a := NewAddress(ctx, thor.Bytes32{6})

	v, err := a.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	addr := datagen.RandAddress()
	a.Set(&addr)
	v, _ = a.Get()
	assert.Equal(t, addr, v)

	a.Set(nil)
	v, _ = a.Get()
	assert.True(t, v.IsZero())
}

func TestConfigVariable(t *testing.T) {
	ctx := newTestContext(t)

	cv := NewConfigVariable("cooldown-period", 3600)
	cv.Override(ctx)
	assert.Equal(t, uint64(3600), cv.Get())

	stored := NewConfigVariable("cooldown-period", 60)
	stored.Persist(ctx)

	reloaded := NewConfigVariable("cooldown-period", 3600)
	reloaded.Override(ctx)
	assert.Equal(t, uint64(60), reloaded.Get())
	assert.Equal(t, "cooldown-period", reloaded.Name())
	assert.Equal(t, thor.BytesToBytes32([]byte("cooldown-period")), reloaded.Slot())
}
