package regulation

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/assetkit/assetkit/cli/flags"
	"github.com/assetkit/assetkit/cli/options"
	"github.com/assetkit/assetkit/pkg/regulation"
	"github.com/assetkit/assetkit/pkg/storage"
	"github.com/urfave/cli"
)

var assetFlag = flags.AddressFlag{Name: "asset, a", Usage: "Asset contract address"}

// NewCommands returns 'regulation' command.
func NewCommands() []cli.Command {
	base := []cli.Flag{options.ConfigFile, options.Timeout}
	withAsset := append([]cli.Flag{assetFlag}, base...)
	return []cli.Command{{
		Name:  "regulation",
		Usage: "Manage MiCA regulation registry",
		Subcommands: []cli.Command{
			{
				Name:      "list",
				Usage:     "List registry entries",
				UsageText: "assetkit regulation list [--config-file file]",
				Action:    listEntries,
				Flags:     base,
			},
			{
				Name:      "get",
				Usage:     "Check whether MiCA is enabled for an asset",
				UsageText: "assetkit regulation get --asset address",
				Action:    getEntry,
				Flags:     withAsset,
			},
			{
				Name:      "set",
				Usage:     "Enable or disable MiCA for an asset",
				UsageText: "assetkit regulation set --asset address true|false",
				Action:    setEntry,
				Flags:     withAsset,
			},
			{
				Name:      "remove",
				Usage:     "Remove registry entry of an asset",
				UsageText: "assetkit regulation remove --asset address",
				Action:    removeEntry,
				Flags:     withAsset,
			},
		},
	}}
}

func openRegistry(ctx *cli.Context) (*regulation.Registry, func(), error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	store, err := storage.NewStore(cfg.ApplicationConfiguration.Regulation.DBConfiguration)
	if err != nil {
		return nil, nil, cli.NewExitError(fmt.Errorf("failed to open regulation registry: %w", err), 1)
	}
	return regulation.NewRegistry(store), func() { _ = store.Close() }, nil
}

func listEntries(ctx *cli.Context) error {
	reg, closer, err := openRegistry(ctx)
	if err != nil {
		return err
	}
	defer closer()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	entries, err := reg.List(gctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, e := range entries {
		fmt.Fprintf(ctx.App.Writer, "%s\t%t\n", e.Asset.Hex(), e.MiCA)
	}
	return nil
}

func getEntry(ctx *cli.Context) error {
	id, ok := flags.GetAddress(ctx, "asset")
	if !ok {
		return cli.NewExitError(errors.New("--asset is required"), 1)
	}
	reg, closer, err := openRegistry(ctx)
	if err != nil {
		return err
	}
	defer closer()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	enabled, err := reg.MiCAEnabled(gctx, id)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, enabled)
	return nil
}

func setEntry(ctx *cli.Context) error {
	id, ok := flags.GetAddress(ctx, "asset")
	if !ok {
		return cli.NewExitError(errors.New("--asset is required"), 1)
	}
	if ctx.NArg() != 1 {
		return cli.NewExitError(errors.New("exactly one true|false argument expected"), 1)
	}
	enabled, err := strconv.ParseBool(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid flag value: %w", err), 1)
	}
	reg, closer, err := openRegistry(ctx)
	if err != nil {
		return err
	}
	defer closer()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	if err := reg.SetMiCA(gctx, id, enabled); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func removeEntry(ctx *cli.Context) error {
	id, ok := flags.GetAddress(ctx, "asset")
	if !ok {
		return cli.NewExitError(errors.New("--asset is required"), 1)
	}
	reg, closer, err := openRegistry(ctx)
	if err != nil {
		return err
	}
	defer closer()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	if err := reg.Remove(gctx, id); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}
