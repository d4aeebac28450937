package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/assetkit/assetkit/cli/cmdargs"
	"github.com/assetkit/assetkit/cli/options"
	"github.com/assetkit/assetkit/pkg/config"
	"github.com/assetkit/assetkit/pkg/regulation"
	"github.com/assetkit/assetkit/pkg/services/evaluator"
	"github.com/assetkit/assetkit/pkg/services/metrics"
	"github.com/assetkit/assetkit/pkg/services/rpcsrv"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// NewCommands returns 'node' command.
func NewCommands() []cli.Command {
	var cfgFlags = []cli.Flag{options.ConfigFile, options.Debug, options.Snapshot}
	return []cli.Command{
		{
			Name:      "node",
			Usage:     "Start an asset evaluation node",
			UsageText: "assetkit node [--config-file file] [--snapshot file] [-d]",
			Action:    startServer,
			Flags:     cfgFlags,
		},
	}
}

func newGraceContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()
	return ctx
}

// node holds everything started by the 'node' command.
type node struct {
	eval       *evaluator.Evaluator
	rpc        *rpcsrv.Server
	prometheus *metrics.Service
	pprof      *metrics.Service
	closeReg   func() error
}

// initNode opens the registry and the snapshot and creates all services
// (without starting them).
func initNode(ctx *cli.Context, cfg config.Config, log *zap.Logger, errCh chan error) (*node, error) {
	appCfg := cfg.ApplicationConfiguration
	snap, err := options.GetSnapshotFromContext(ctx, appCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	var (
		reg      regulation.Backend
		closeReg = func() error { return nil }
	)
	if appCfg.Features.MiCA {
		reg, closeReg, err = options.OpenRegistry(appCfg.Regulation)
		if err != nil {
			return nil, err
		}
	}
	eval := evaluator.New(evaluator.Config{MiCA: appCfg.Features.MiCA}, snap, reg, log)
	return &node{
		eval:       eval,
		rpc:        rpcsrv.New(eval, appCfg.RPC, appCfg.Features, log, errCh),
		prometheus: metrics.NewPrometheusService(appCfg.Prometheus, log),
		pprof:      metrics.NewPprofService(appCfg.Pprof, log),
		closeReg:   closeReg,
	}, nil
}

func (n *node) start() error {
	if err := n.prometheus.Start(); err != nil {
		return err
	}
	if err := n.pprof.Start(); err != nil {
		return err
	}
	n.rpc.Start()
	return nil
}

func (n *node) shutdown() error {
	n.rpc.Shutdown()
	n.pprof.ShutDown()
	n.prometheus.ShutDown()
	return n.closeReg()
}

func startServer(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}

	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, logLevel, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	grace := newGraceContext()
	errCh := make(chan error, 1)

	n, err := initNode(ctx, cfg, log, errCh)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := n.start(); err != nil {
		_ = n.shutdown()
		return cli.NewExitError(err, 1)
	}
	log.Info("node started", zap.Bool("mica", cfg.ApplicationConfiguration.Features.MiCA))

	sighupCh := make(chan os.Signal, 1)
	signal.Notify(sighupCh, sighup)

	var shutdownErr error
Main:
	for {
		select {
		case err := <-errCh:
			shutdownErr = fmt.Errorf("server error: %w", err)
			break Main
		case sig := <-sighupCh:
			log.Info("signal received", zap.Stringer("name", sig))
			newCfg, err := options.GetConfigFromContext(ctx)
			if err != nil {
				log.Warn("can't reread the config file, signal ignored", zap.Error(err))
				break
			}
			if !cfg.ApplicationConfiguration.EqualsButServices(&newCfg.ApplicationConfiguration) {
				log.Warn("application configuration changed in some non-reloadable way, signal ignored")
				break
			}
			// Services can't be restarted in place, new instances are made.
			n.rpc.Shutdown()
			n.pprof.ShutDown()
			n.prometheus.ShutDown()
			n.rpc = rpcsrv.New(n.eval, newCfg.ApplicationConfiguration.RPC, newCfg.ApplicationConfiguration.Features, log, errCh)
			n.prometheus = metrics.NewPrometheusService(newCfg.ApplicationConfiguration.Prometheus, log)
			n.pprof = metrics.NewPprofService(newCfg.ApplicationConfiguration.Pprof, log)
			if err := n.start(); err != nil {
				shutdownErr = err
				break Main
			}
			if newLevel := newCfg.ApplicationConfiguration.LogLevel; newLevel != "" && !ctx.Bool("debug") {
				if err := logLevel.UnmarshalText([]byte(newLevel)); err != nil {
					log.Warn("wrong LogLevel in the configuration", zap.Error(err))
				}
			}
			cfg = newCfg
		case <-grace.Done():
			signal.Stop(sighupCh)
			break Main
		}
	}
	if err := n.shutdown(); err != nil && shutdownErr == nil {
		shutdownErr = fmt.Errorf("failed to close registry: %w", err)
	}
	if shutdownErr != nil {
		return cli.NewExitError(shutdownErr, 1)
	}
	return nil
}
