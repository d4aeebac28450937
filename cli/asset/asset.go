package asset

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/assetkit/assetkit/cli/cmdargs"
	"github.com/assetkit/assetkit/cli/flags"
	"github.com/assetkit/assetkit/cli/options"
	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/lifecycle"
	"github.com/assetkit/assetkit/pkg/services/evaluator"
	"github.com/assetkit/assetkit/pkg/snapshot"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	assetFlag  = flags.AddressFlag{Name: "asset, a", Usage: "Asset contract address"}
	actorFlag  = flags.AddressFlag{Name: "actor", Usage: "Account performing actions"}
	holderFlag = flags.AddressFlag{Name: "holder", Usage: "Holder (counterparty) account, page-level evaluation is done if omitted"}
)

// NewCommands returns 'asset' command.
func NewCommands() []cli.Command {
	base := []cli.Flag{options.ConfigFile, options.Debug, options.Snapshot, options.Timeout}
	evalFlags := append(flags.MarkRequired([]cli.Flag{assetFlag, actorFlag, holderFlag}, "asset", "actor"), base...)
	prepareFlags := append(flags.MarkRequired([]cli.Flag{cli.StringFlag{
		Name:  "action",
		Usage: "Action to prepare (" + actionList() + ")",
	}}, "action"), evalFlags...)
	return []cli.Command{{
		Name:  "asset",
		Usage: "Evaluate asset state and actions",
		Subcommands: []cli.Command{
			{
				Name:      "list",
				Usage:     "List snapshot assets with their state",
				UsageText: "assetkit asset list [--config-file file] [--snapshot file]",
				Action:    listAssets,
				Flags:     base,
			},
			{
				Name:      "capabilities",
				Usage:     "Show capabilities of an asset type",
				UsageText: "assetkit asset capabilities --type type [--asset address]",
				Action:    showCapabilities,
				Flags: append([]cli.Flag{
					cli.StringFlag{Name: "type, t", Usage: "Asset type (" + typeList() + ")", Required: true},
					assetFlag,
				}, base...),
			},
			{
				Name:      "state",
				Usage:     "Show derived asset state",
				UsageText: "assetkit asset state --asset address",
				Action:    showState,
				Flags:     append(flags.MarkRequired([]cli.Flag{assetFlag}, "asset"), base...),
			},
			{
				Name:      "actions",
				Usage:     "Show eligibility of all actions and their routes",
				UsageText: "assetkit asset actions --asset address --actor address [--holder address]",
				Action:    showActions,
				Flags:     evalFlags,
			},
			{
				Name:      "prepare",
				Usage:     "Validate action parameters and prepare contract call",
				UsageText: "assetkit asset prepare --asset address --actor address [--holder address] --action action [param=value ...]",
				Description: `Checks that the action is eligible, validates parameters against the
   action schema and prints the contract call to be signed. Parameters are
   given as name=value pairs, e.g.:

     assetkit asset prepare -a 0xb0...02 --actor 0x20...02 --action mint \
        to=0x30...03 amount=100.5
`,
				Action: prepareAction,
				Flags:  prepareFlags,
			},
		},
	}}
}

func actionList() string {
	var names []string
	for _, a := range lifecycle.Actions() {
		names = append(names, a.String())
	}
	return strings.Join(names, ", ")
}

func typeList() string {
	var names []string
	for _, t := range asset.Types() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// env is an evaluator with everything it was created from.
type env struct {
	eval  *evaluator.Evaluator
	snap  *snapshot.Snapshot
	log   *zap.Logger
	close func()
}

func newEnv(ctx *cli.Context) (*env, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	appCfg := cfg.ApplicationConfiguration
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), appCfg)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	snap, err := options.GetSnapshotFromContext(ctx, appCfg)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	e := &env{snap: snap, log: log, close: func() { _ = log.Sync() }}
	if !appCfg.Features.MiCA {
		e.eval = evaluator.New(evaluator.Config{}, snap, nil, log)
		return e, nil
	}
	reg, closeReg, err := options.OpenRegistry(appCfg.Regulation)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	e.eval = evaluator.New(evaluator.Config{MiCA: true}, snap, reg, log)
	e.close = func() {
		if err := closeReg(); err != nil {
			log.Warn("failed to close regulation registry", zap.Error(err))
		}
		_ = log.Sync()
	}
	return e, nil
}

func requireAddress(ctx *cli.Context, name string) (common.Address, error) {
	a, ok := flags.GetAddress(ctx, name)
	if !ok {
		return common.Address{}, cli.NewExitError(fmt.Errorf("--%s is required", name), 1)
	}
	return a, nil
}

func evaluationRequest(ctx *cli.Context) (evaluator.Request, error) {
	var (
		req evaluator.Request
		err error
	)
	req.Asset, err = requireAddress(ctx, "asset")
	if err != nil {
		return req, err
	}
	req.Actor, err = requireAddress(ctx, "actor")
	if err != nil {
		return req, err
	}
	if h, ok := flags.GetAddress(ctx, "holder"); ok {
		req.Holder = &h
	}
	return req, nil
}

func printJSON(ctx *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(data))
	return err
}

func listAssets(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	var res []*evaluator.AssetState
	for _, id := range e.snap.Assets() {
		st, err := e.eval.State(gctx, id)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("asset %s: %w", id, err), 1)
		}
		res = append(res, st)
	}
	return printJSON(ctx, res)
}

func showCapabilities(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	t, err := asset.ParseType(ctx.String("type"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	var id *common.Address
	if a, ok := flags.GetAddress(ctx, "asset"); ok {
		id = &a
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	caps, err := e.eval.Capabilities(gctx, t, id)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printJSON(ctx, caps)
}

func showState(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	id, err := requireAddress(ctx, "asset")
	if err != nil {
		return err
	}
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	st, err := e.eval.State(gctx, id)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printJSON(ctx, st)
}

func showActions(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	req, err := evaluationRequest(ctx)
	if err != nil {
		return err
	}
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	r, err := e.eval.Evaluate(gctx, req)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printJSON(ctx, r)
}

func prepareAction(ctx *cli.Context) error {
	a, err := lifecycle.ParseAction(ctx.String("action"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	ps, exitErr := cmdargs.GetParamsFromContext(ctx, 0)
	if exitErr != nil {
		return exitErr
	}
	req, err := evaluationRequest(ctx)
	if err != nil {
		return err
	}
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	prepared, err := e.eval.Prepare(gctx, req, a, ps)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return printJSON(ctx, prepared)
}
