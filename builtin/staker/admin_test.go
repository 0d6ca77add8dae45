// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakebridge/builtin/reverts"
	"github.com/vechain/stakebridge/test/datagen"
	"github.com/vechain/stakebridge/thor"
)

func TestAdminGating(t *testing.T) {
	f := newFixture(t, false)
	stranger := datagen.RandAddress()

	for name, err := range map[string]error{
		"slasher":   f.staker.SetLockedStakeSlasher(stranger, stranger),
		"mediator":  f.staker.SetMediatorContractOnOtherSide(stranger, stranger),
		"gas limit": f.staker.SetRequestGasLimit(stranger, 1),
		"ownership": f.staker.TransferOwnership(stranger, stranger),
	} {
		assert.True(t, reverts.Is(err, reverts.Unauthorized), name)
	}

	slasher, err := f.staker.LockedStakeSlasher()
	require.NoError(t, err)
	assert.Equal(t, f.slasher, slasher)
	mediator, err := f.staker.MediatorContractOnOtherSide()
	require.NoError(t, err)
	assert.Equal(t, f.mediator, mediator)
}

func TestAdminSetters(t *testing.T) {
	f := newFixture(t, false)
	next := datagen.RandAddress()

	require.NoError(t, f.staker.SetLockedStakeSlasher(f.owner, next))
	slasher, err := f.staker.LockedStakeSlasher()
	require.NoError(t, err)
	assert.Equal(t, next, slasher)

	require.NoError(t, f.staker.SetMediatorContractOnOtherSide(f.owner, next))
	mediator, err := f.staker.MediatorContractOnOtherSide()
	require.NoError(t, err)
	assert.Equal(t, next, mediator)
}

func TestSetRequestGasLimit(t *testing.T) {
	f := newFixture(t, false)

	gas, err := f.staker.RequestGasLimit()
	require.NoError(t, err)
	assert.Equal(t, thor.DefaultRequestGasLimit, gas)

	err = f.staker.SetRequestGasLimit(f.owner, f.amb.MaxGasPerTx()+1)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))
	err = f.staker.SetRequestGasLimit(f.owner, 0)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	require.NoError(t, f.staker.SetRequestGasLimit(f.owner, f.amb.MaxGasPerTx()))
	require.NoError(t, f.staker.SetRequestGasLimit(f.owner, 500_000))
	gas, err = f.staker.RequestGasLimit()
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), gas)
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t, false)
	next := datagen.RandAddress()

	err := f.staker.TransferOwnership(f.owner, thor.Address{})
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	require.NoError(t, f.staker.TransferOwnership(f.owner, next))
	owner, err := f.staker.Owner()
	require.NoError(t, err)
	assert.Equal(t, next, owner)

	assert.True(t, reverts.Is(f.staker.SetRequestGasLimit(f.owner, 1), reverts.Unauthorized))
	require.NoError(t, f.staker.SetRequestGasLimit(next, 1))
}
