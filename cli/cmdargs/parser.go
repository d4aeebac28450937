/*
Package cmdargs contains common helpers for positional command arguments.
*/
package cmdargs

import (
	"fmt"
	"strings"

	"github.com/assetkit/assetkit/pkg/dispatch"
	"github.com/urfave/cli"
)

// ParamSeparator separates parameter name from its value.
const ParamSeparator = "="

// EnsureNone returns an error if there are any positional arguments present.
// It can be used to check for them in commands that don't accept arguments.
func EnsureNone(ctx *cli.Context) *cli.ExitError {
	if ctx.Args().Present() {
		return cli.NewExitError("additional arguments given while this command expects none", 1)
	}
	return nil
}

// GetParamsFromContext returns action parameters parsed from context args
// starting from the specified offset.
func GetParamsFromContext(ctx *cli.Context, offset int) (dispatch.Params, *cli.ExitError) {
	args := ctx.Args()
	if offset > len(args) {
		offset = len(args)
	}
	ps, err := ParseParams(args[offset:])
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("failed to parse action parameters: %w", err), 1)
	}
	return ps, nil
}

// ParseParams converts name=value words into action parameters. Values can
// contain separators, names can't be empty or repeated.
func ParseParams(args []string) (dispatch.Params, error) {
	ps := make(dispatch.Params, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, ParamSeparator)
		if !ok || k == "" {
			return nil, fmt.Errorf("bad parameter %q, name%svalue expected", arg, ParamSeparator)
		}
		if _, dup := ps[k]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", k)
		}
		ps[k] = v
	}
	return ps, nil
}
