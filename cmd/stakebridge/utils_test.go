// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakebridge/genesis"
	"github.com/vechain/stakebridge/log"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range []cli.Flag{configFlag, dataDirFlag, coolDownFlag, enableLockingFlag, verbosityFlag, jsonLogsFlag} {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(nil, set, nil)
}

func TestNormalizeCacheSize(t *testing.T) {
	assert.Equal(t, 128, normalizeCacheSize(0))
	assert.Equal(t, 512, normalizeCacheSize(512))
	assert.Equal(t, 16*1024, normalizeCacheSize(1<<20))
}

func TestSelectGenesis(t *testing.T) {
	gen, err := selectGenesis(newContext(t))
	require.NoError(t, err)
	assert.Equal(t, genesis.NewDevnet().Name, gen.Name)

	gen, err = selectGenesis(newContext(t, "--cooldown", "3h", "--enable-locking=false"))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, gen.Foreign.CoolDown)
	assert.False(t, gen.Foreign.EnableLocking)

	_, err = selectGenesis(newContext(t, "--cooldown", "-1s"))
	assert.ErrorContains(t, err, "invalid config")

	_, err = selectGenesis(newContext(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorContains(t, err, "load config")
}

func TestSelectGenesisFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	data := strings.Join([]string{
		"name: file",
		`token: "0x0000000000000000000000000000000000007eee"`,
		"foreign:",
		"  domain: 1",
		`  staker: "0x0000000000000000000000000000000000005555"`,
		`  owner: "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"`,
		"home:",
		"  domain: 2",
		`  mirror: "0x0000000000000000000000000000000000006666"`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	gen, err := selectGenesis(newContext(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "file", gen.Name)
}

func TestMakeInstanceDir(t *testing.T) {
	dir := t.TempDir()
	ctx := newContext(t, "--data-dir", dir)

	instance, err := makeInstanceDir(ctx, genesis.NewDevnet())
	require.NoError(t, err)
	assert.DirExists(t, instance)
	assert.True(t, strings.HasPrefix(filepath.Base(instance), "instance-"))

	again, err := makeInstanceDir(ctx, genesis.NewDevnet())
	require.NoError(t, err)
	assert.Equal(t, instance, again)
}

func TestInitLogger(t *testing.T) {
	level, err := initLogger(newContext(t, "--verbosity", "5", "--json-logs"))
	require.NoError(t, err)
	assert.Equal(t, log.LevelTrace, level.Level())

	_, err = initLogger(newContext(t, "--verbosity", "10"))
	assert.Error(t, err)
}
