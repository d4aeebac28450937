package flags

import (
	"flag"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestAddress_String(t *testing.T) {
	value := common.Address{1, 2, 3}
	addr := Address{
		IsSet: true,
		Value: value,
	}

	require.Equal(t, value.Hex(), addr.String())
}

func TestAddress_Set(t *testing.T) {
	value := common.Address{1, 2, 3}
	addr := Address{}

	t.Run("bad address", func(t *testing.T) {
		require.Error(t, addr.Set("not an address"))
		require.Error(t, addr.Set("0x0102"))
		require.False(t, addr.IsSet)
	})

	t.Run("positive", func(t *testing.T) {
		require.NoError(t, addr.Set(value.Hex()))
		require.Equal(t, true, addr.IsSet)
		require.Equal(t, value, addr.Value)
	})

	t.Run("no prefix", func(t *testing.T) {
		require.NoError(t, addr.Set("0000000000000000000000000000000000000005"))
		require.Equal(t, common.Address{19: 5}, addr.Value)
	})
}

func TestAddress_Address(t *testing.T) {
	value := common.Address{4, 5, 6}
	addr := Address{}

	t.Run("not set", func(t *testing.T) {
		require.Panics(t, func() { addr.Address() })
	})

	t.Run("success", func(t *testing.T) {
		addr.IsSet = true
		addr.Value = value
		require.Equal(t, value, addr.Address())
	})
}

func TestAddressFlag_IsSet(t *testing.T) {
	flag := AddressFlag{}

	t.Run("not set", func(t *testing.T) {
		require.False(t, flag.IsSet())
	})

	t.Run("set", func(t *testing.T) {
		flag.Value.IsSet = true
		require.True(t, flag.IsSet())
	})
}

func TestAddressFlag_String(t *testing.T) {
	flag := AddressFlag{
		Name:  "asset, a",
		Usage: "Asset contract",
	}

	require.Equal(t, "--asset value, -a value\tAsset contract", flag.String())
}

func TestAddress_getNameHelp(t *testing.T) {
	require.Equal(t, "-a value", getNameHelp("a"))
	require.Equal(t, "--asset value", getNameHelp("asset"))
}

func TestAddressFlag_GetName(t *testing.T) {
	flag := AddressFlag{
		Name: "my flag",
	}

	require.Equal(t, "my flag", flag.GetName())
}

func TestAddressFlag_Apply(t *testing.T) {
	addr := common.Address{7, 8, 9}
	fl := AddressFlag{
		Name:  "actor, a",
		Value: Address{},
	}

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	fl.Apply(set)

	require.NoError(t, set.Parse([]string{"-a", addr.Hex()}))
	ctx := cli.NewContext(cli.NewApp(), set, nil)
	v, ok := GetAddress(ctx, "actor")
	require.True(t, ok)
	require.Equal(t, addr, v)

	_, ok = GetAddress(ctx, "holder")
	require.False(t, ok)
}

func TestMarkRequired(t *testing.T) {
	fs := MarkRequired([]cli.Flag{
		cli.StringFlag{Name: "action"},
		cli.BoolFlag{Name: "json"},
		AddressFlag{Name: "asset, a"},
		AddressFlag{Name: "holder"},
	}, "action", "asset")
	require.True(t, fs[0].(cli.StringFlag).Required)
	require.False(t, fs[1].(cli.BoolFlag).Required)
	require.True(t, fs[2].(AddressFlag).IsRequired())
	require.False(t, fs[3].(AddressFlag).IsRequired())

	fs = MarkRequired([]cli.Flag{AddressFlag{Name: "asset, a"}}, "asset, a")
	require.True(t, fs[0].(AddressFlag).IsRequired())
}

func TestRequiredAddressFlag(t *testing.T) {
	app := cli.NewApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	app.Flags = MarkRequired([]cli.Flag{AddressFlag{Name: "asset, a"}}, "asset")
	app.Action = func(*cli.Context) error { return nil }

	require.Error(t, app.Run([]string{"app"}))
	require.NoError(t, app.Run([]string{"app", "-a", common.Address{1}.Hex()}))
}
