package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	bondID   = "0xb000000000000000000000000000000000000001"
	stableID = "0xB000000000000000000000000000000000000002"
	cryptoID = "0xb000000000000000000000000000000000000006"
	manager  = "0x2000000000000000000000000000000000000002"
	holder   = "0x3000000000000000000000000000000000000003"
)

func TestAssetList(t *testing.T) {
	e := newExecutor(t)
	e.Run(t, "assetkit", "asset", "list", "--config-file", e.ConfigFile)

	var res []struct {
		Asset string `json:"asset"`
		Type  string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), &res))
	require.Len(t, res, 3)
	require.Equal(t, "bond", res[0].Type)
	require.Equal(t, "stablecoin", res[1].Type)
	require.Equal(t, "cryptocurrency", res[2].Type)

	e.RunWithError(t, "assetkit", "asset", "list", "--config-file", e.ConfigFile, "extra")
	e.RunWithError(t, "assetkit", "asset", "list", "--config-file", e.ConfigFile, "--snapshot", "/nonexistent.yml")
}

func TestAssetCapabilities(t *testing.T) {
	e := newExecutor(t)
	e.Run(t, "assetkit", "asset", "capabilities", "--config-file", e.ConfigFile, "--type", "deposit")
	var caps map[string]bool
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), &caps))
	require.True(t, caps["collateral"])
	require.False(t, caps["mica"])

	e.Run(t, "assetkit", "regulation", "set", "--config-file", e.ConfigFile, "--asset", stableID, "true")
	e.Run(t, "assetkit", "asset", "capabilities", "--config-file", e.ConfigFile, "--type", "stablecoin", "--asset", stableID)
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), &caps))
	require.True(t, caps["mica"])

	e.RunWithError(t, "assetkit", "asset", "capabilities", "--config-file", e.ConfigFile, "--type", "nft")
}

func TestAssetState(t *testing.T) {
	e := newExecutor(t)
	e.Run(t, "assetkit", "asset", "state", "--config-file", e.ConfigFile, "--asset", bondID)
	var st struct {
		Type  string `json:"type"`
		State struct {
			Readiness int `json:"redemptionReadinessPct"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), &st))
	require.Equal(t, "bond", st.Type)
	require.Equal(t, 60, st.State.Readiness)

	e.RunWithError(t, "assetkit", "asset", "state", "--config-file", e.ConfigFile)
	e.RunWithError(t, "assetkit", "asset", "state", "--config-file", e.ConfigFile, "--asset", "0xb000000000000000000000000000000000000009")
}

func TestAssetActions(t *testing.T) {
	e := newExecutor(t)
	e.Run(t, "assetkit", "asset", "actions", "--config-file", e.ConfigFile,
		"--asset", stableID, "--actor", manager, "--holder", holder)
	var r struct {
		BalanceAvailable bool `json:"balanceAvailable"`
		Eligibility      []struct {
			Action  string `json:"action"`
			Enabled bool   `json:"enabled"`
		} `json:"eligibility"`
	}
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), &r))
	require.True(t, r.BalanceAvailable)
	require.Equal(t, "mint", r.Eligibility[0].Action)
	require.True(t, r.Eligibility[0].Enabled)

	e.RunWithError(t, "assetkit", "asset", "actions", "--config-file", e.ConfigFile, "--asset", stableID)
}

func TestAssetPrepare(t *testing.T) {
	e := newExecutor(t)
	e.Run(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
		"--asset", stableID, "--actor", manager, "--holder", holder, "--action", "mint",
		"to="+holder, "amount=100.5")
	var p struct {
		Call struct {
			Mutation string `json:"mutation"`
			Method   string `json:"method"`
		} `json:"call"`
	}
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), &p))
	require.Equal(t, "StableCoinMint", p.Call.Mutation)
	require.Equal(t, "mint", p.Call.Method)

	t.Run("bad parameter", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--asset", stableID, "--actor", manager, "--action", "mint", "to")
	})
	t.Run("duplicate parameter", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--asset", stableID, "--actor", manager, "--action", "mint", "to="+holder, "to="+holder, "amount=1")
	})
	t.Run("unknown action", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--asset", stableID, "--actor", manager, "--action", "redeem")
	})
	t.Run("not eligible", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--asset", cryptoID, "--actor", manager, "--action", "pause")
	})
	t.Run("exceeds bound", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--asset", stableID, "--actor", manager, "--action", "mint", "to="+holder, "amount=50001")
	})
	t.Run("burn above holder balance", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--asset", stableID, "--actor", manager, "--action", "burn", "from="+holder, "amount=1001")
	})
	t.Run("other holder", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--asset", stableID, "--actor", manager, "--holder", manager, "--action", "burn", "from="+holder, "amount=1")
	})
	t.Run("below smallest unit", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--asset", stableID, "--actor", manager, "--action", "mint", "to="+holder, "amount=0.0000001")
	})
	t.Run("missing asset", func(t *testing.T) {
		e.RunWithError(t, "assetkit", "asset", "prepare", "--config-file", e.ConfigFile,
			"--actor", manager, "--action", "pause")
	})
}
