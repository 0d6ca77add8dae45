// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// stakebridge runs a staking mediator and its mirror joined by an in-process relay.
package main

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakebridge/admin"
	"github.com/vechain/stakebridge/api"
	"github.com/vechain/stakebridge/cmd/stakebridge/httpserver"
	"github.com/vechain/stakebridge/health"
	"github.com/vechain/stakebridge/kv"
	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/logdb"
	"github.com/vechain/stakebridge/lvldb"
	"github.com/vechain/stakebridge/metrics"
	"github.com/vechain/stakebridge/node"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "StakeBridge",
		Usage:     "Cross-domain staking mediator and mirror",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			cacheFlag,
			inMemoryFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			coolDownFlag,
			enableLockingFlag,
			syncRelayFlag,
			skipLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			healthStallFlag,
			shutdownTimeoutFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}
	gen, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return fmt.Errorf("unable to start metrics server - %w", err)
		}
		log.Info("metrics server started", "url", url)
		defer closeFunc()
	}

	var (
		mainDB      kv.Store
		logDB       *logdb.LogDB
		instanceDir string
	)
	skipLogs := ctx.Bool(skipLogsFlag.Name)
	if ctx.Bool(inMemoryFlag.Name) {
		instanceDir = "Memory"
		db, err := lvldb.NewMem()
		if err != nil {
			return err
		}
		defer func() { log.Info("closing main database..."); db.Close() }()
		mainDB = db
		if !skipLogs {
			if logDB, err = logdb.NewMem(); err != nil {
				return err
			}
		}
	} else {
		if instanceDir, err = makeInstanceDir(ctx, gen); err != nil {
			return err
		}
		db, err := openMainDB(ctx, instanceDir)
		if err != nil {
			return err
		}
		defer func() { log.Info("closing main database..."); db.Close() }()
		mainDB = db
		if !skipLogs {
			if logDB, err = openLogDB(instanceDir); err != nil {
				return err
			}
		}
	}
	if logDB != nil {
		defer func() { log.Info("closing log database..."); logDB.Close() }()
	}

	n, err := node.New(gen, mainDB, logDB, node.Options{
		CacheSize: normalizeCacheSize(ctx.Int(cacheFlag.Name)),
		SyncRelay: ctx.Bool(syncRelayFlag.Name),
		SkipLogs:  skipLogs,
	})
	if err != nil {
		return err
	}
	defer func() { log.Info("closing node..."); n.Close() }()

	if ctx.Bool(enableAdminFlag.Name) {
		h := health.New(n.Relay(), n.Mirror(), nil, ctx.Duration(healthStallFlag.Name))
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, h)
		if err != nil {
			return fmt.Errorf("unable to start admin server - %w", err)
		}
		log.Info("admin server started", "url", url)
		defer closeFunc()
	}

	handler := api.New(n.Staker(), n.Mirror(), n.Relay(), n.LogDB(), api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		SkipLogs:        skipLogs,
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
	})
	apiSrv, err := httpserver.NewAPIServer(ctx.String(apiAddrFlag.Name), handler, ctx.Duration(shutdownTimeoutFlag.Name))
	if err != nil {
		return err
	}

	printStartupMessage(n, instanceDir, apiSrv.URL())

	g, runCtx := errgroup.WithContext(handleExitSignal())
	g.Go(func() error { return n.Run(runCtx) })
	g.Go(func() error { return apiSrv.Run(runCtx) })
	return g.Wait()
}

func printStartupMessage(n *node.Node, dataDir, apiURL string) {
	gen := n.Genesis()
	id, _ := gen.ID()
	fmt.Printf(`Starting %v
    Deployment  [ %v %v ]
    Foreign     [ domain %d staker %v ]
    Home        [ domain %d mirror %v ]
    Instance dir[ %v ]
    API portal  [ %v ]
`,
		fullVersion(),
		gen.Name, id,
		gen.Foreign.Domain, gen.Foreign.Staker,
		gen.Home.Domain, gen.Home.Mirror,
		dataDir,
		apiURL)
}
