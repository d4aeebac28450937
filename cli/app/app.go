package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/assetkit/assetkit/cli/asset"
	"github.com/assetkit/assetkit/cli/regulation"
	"github.com/assetkit/assetkit/cli/server"
	"github.com/assetkit/assetkit/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "AssetKit\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an AssetKit instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "assetkit"
	ctl.Version = config.Version
	ctl.Usage = "Tokenized asset action authorization and lifecycle engine"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, server.NewCommands()...)
	ctl.Commands = append(ctl.Commands, asset.NewCommands()...)
	ctl.Commands = append(ctl.Commands, regulation.NewCommands()...)
	return ctl
}
