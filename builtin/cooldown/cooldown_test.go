// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cooldown

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/builtin/solidity"
	"github.com/vechain/stakebridge/lvldb"
	"github.com/vechain/stakebridge/state"
	"github.com/vechain/stakebridge/test/datagen"
	"github.com/vechain/stakebridge/thor"
)

const period = 3600

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 64)
	require.NoError(t, err)
	return New(solidity.NewContext(thor.Address{9}, st), period)
}

func TestOpenSequentialIDs(t *testing.T) {
	svc := newService(t)
	holder := datagen.RandAddress()

	for i := uint64(1); i <= 3; i++ {
		box, err := svc.Open(holder, big.NewInt(int64(i*10)), 1000)
		require.NoError(t, err)
		assert.Equal(t, i, box.ID)
		assert.Equal(t, uint64(1000+period), box.ReleasedSince)
	}
	n, err := svc.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	box, err := svc.Get(2)
	require.NoError(t, err)
	assert.Equal(t, int64(20), box.Amount.Int64())
	assert.False(t, box.Released)

	box, err = svc.Get(0)
	require.NoError(t, err)
	assert.Nil(t, box)
	box, err = svc.Get(4)
	require.NoError(t, err)
	assert.Nil(t, box)
}

func TestReleaseOrderOfChecks(t *testing.T) {
	svc := newService(t)
	holder := datagen.RandAddress()
	other := datagen.RandAddress()

	box, err := svc.Open(holder, big.NewInt(20), 1000)
	require.NoError(t, err)

	// not matured wins over wrong holder
	_, err = svc.Release(box.ID, other, 1000+period-1)
	assert.True(t, reverts.Is(err, reverts.NotYetMatured))

	_, err = svc.Release(box.ID, other, 1000+period)
	assert.True(t, reverts.Is(err, reverts.NotBoxHolder))

	released, err := svc.Release(box.ID, holder, 1000+period)
	require.NoError(t, err)
	assert.True(t, released.Released)

	_, err = svc.Release(box.ID, holder, 1000+period+1)
	assert.True(t, reverts.Is(err, reverts.AlreadyReleased))

	// wrong holder wins over already released
	_, err = svc.Release(box.ID, other, 1000+period+1)
	assert.True(t, reverts.Is(err, reverts.NotBoxHolder))

	_, err = svc.Release(99, holder, 1000+period)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))
}

func TestRestore(t *testing.T) {
	svc := newService(t)
	holder := datagen.RandAddress()

	box, _ := svc.Open(holder, big.NewInt(1), 0)
	_, err := svc.Release(box.ID, holder, period)
	require.NoError(t, err)

	require.NoError(t, svc.Restore(box.ID))
	got, _ := svc.Get(box.ID)
	assert.False(t, got.Released)

	_, err = svc.Release(box.ID, holder, period)
	assert.NoError(t, err)

	assert.True(t, reverts.Is(svc.Restore(5), reverts.InvalidArgument))
}
