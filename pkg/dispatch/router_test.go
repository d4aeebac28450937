package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/assetkit/assetkit/internal/assettest"
	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/lifecycle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// offerable returns whether a can be offered for t in some state.
func offerable(t asset.Type, a lifecycle.Action) bool {
	switch a {
	case lifecycle.Mint, lifecycle.Burn, lifecycle.GrantRole:
		return true
	case lifecycle.Pause, lifecycle.Unpause:
		return asset.IsPausable(t)
	case lifecycle.Mature:
		return t == asset.Bond
	case lifecycle.UpdateCollateral:
		return asset.HasCollateral(t)
	case lifecycle.TopUp, lifecycle.Withdraw:
		return asset.HasUnderlyingAsset(t)
	case lifecycle.Freeze:
		return asset.HasFreeze(t)
	case lifecycle.Block:
		return asset.HasBlocklist(t)
	default:
		panic(a)
	}
}

func TestRouterTable(t *testing.T) {
	r := NewRouter()
	names := make(map[string]bool)
	for _, typ := range asset.Types() {
		for _, a := range lifecycle.Actions() {
			route, err := r.Resolve(typ, a)
			if !offerable(typ, a) {
				require.ErrorIs(t, err, ErrUnsupported, "%s/%s", typ, a)
				continue
			}
			require.NoError(t, err, "%s/%s", typ, a)
			require.Equal(t, typ, route.Type)
			require.Equal(t, a, route.Action)
			require.NotNil(t, route.Schema)
			require.False(t, names[route.Mutation.Name], route.Mutation.Name)
			names[route.Mutation.Name] = true
		}
	}
	require.Len(t, names, 44)
}

func TestResolve(t *testing.T) {
	r := NewRouter()
	route, err := r.Resolve(asset.Bond, lifecycle.Mint)
	require.NoError(t, err)
	require.Equal(t, "BondMint", route.Mutation.Name)

	route, err = r.Resolve(asset.TokenizedDeposit, lifecycle.Mint)
	require.NoError(t, err)
	require.Equal(t, "TokenizedDepositMint", route.Mutation.Name)

	_, err = r.Resolve(asset.Equity, lifecycle.Mature)
	require.ErrorIs(t, err, ErrUnsupported)
	_, err = r.Resolve("nft", lifecycle.Mint)
	require.ErrorIs(t, err, asset.ErrInvalidType)
	_, err = r.Resolve(asset.Bond, "redeem")
	require.ErrorIs(t, err, ErrUnsupported)

	data, err := json.Marshal(route)
	require.NoError(t, err)
	require.Contains(t, string(data), `"mutation":"TokenizedDepositMint"`)
}

func eligibility(t *testing.T, d *asset.Detail, holder *asset.Balance, actor common.Address) lifecycle.Eligibilities {
	s, err := lifecycle.Derive(d, assettest.Now)
	require.NoError(t, err)
	es, err := lifecycle.Evaluate(lifecycle.Input{
		Detail:         d,
		State:          s,
		Holder:         holder,
		Actor:          lifecycle.Actor{Address: actor},
		SupplyManagers: []common.Address{assettest.Manager},
	})
	require.NoError(t, err)
	return es
}

func TestResolveEligible(t *testing.T) {
	r := NewRouter()
	d := assettest.Bond(1000, 1000)
	d.Extension.(*asset.BondDetails).IsMatured = true
	es := eligibility(t, d, nil, assettest.Manager)

	_, _, err := r.ResolveEligible(d.Type, es, lifecycle.Mature)
	require.ErrorIs(t, err, lifecycle.ErrNotEligible)

	route, e, err := r.ResolveEligible(d.Type, es, lifecycle.Pause)
	require.NoError(t, err)
	require.Equal(t, "BondPause", route.Mutation.Name)
	require.True(t, e.Enabled)

	routes, err := r.Routes(d.Type, es)
	require.NoError(t, err)
	for _, route := range routes {
		require.NotEqual(t, lifecycle.Mature, route.Action)
		require.NotEqual(t, lifecycle.Unpause, route.Action)
	}
	require.Len(t, routes, len(es.Enabled()))
}

func subject(d *asset.Detail, actor common.Address, holder *common.Address) Subject {
	return Subject{Contract: d.ID, Decimals: d.Decimals, Actor: actor, Holder: holder}
}

func TestPrepare(t *testing.T) {
	r := NewRouter()
	holder := assettest.Holder

	t.Run("mint within free collateral", func(t *testing.T) {
		d := assettest.Collateral(asset.Stablecoin, 100)
		es := eligibility(t, d, assettest.Balance(holder, 0, 0, false), assettest.Manager)
		route, e, err := r.ResolveEligible(d.Type, es, lifecycle.Mint)
		require.NoError(t, err)

		s := subject(d, assettest.Manager, &holder)
		call, err := route.Prepare(s, e, Params{"to": holder.Hex(), "amount": "500"})
		require.NoError(t, err)
		require.Equal(t, Call{
			Contract: d.ID,
			Mutation: "StableCoinMint",
			Method:   "mint",
			Args: []Arg{
				{Name: "to", Type: "address", Value: holder.Hex()},
				{Name: "amount", Type: "uint256", Value: "500000000000000000000"},
			},
		}, call)

		_, err = route.Prepare(s, e, Params{"to": holder.Hex(), "amount": "500.1"})
		require.ErrorIs(t, err, lifecycle.ErrExceedsBound)
	})
	t.Run("amount scaled by decimals", func(t *testing.T) {
		d := assettest.Equity(1000)
		d.Decimals = 2
		es := eligibility(t, d, assettest.Balance(holder, 0, 0, false), assettest.Manager)
		route, e, err := r.ResolveEligible(d.Type, es, lifecycle.Mint)
		require.NoError(t, err)
		s := subject(d, assettest.Manager, &holder)

		call, err := route.Prepare(s, e, Params{"to": holder.Hex(), "amount": "1.5"})
		require.NoError(t, err)
		require.Equal(t, Arg{Name: "amount", Type: "uint256", Value: "150"}, call.Args[1])

		_, err = route.Prepare(s, e, Params{"to": holder.Hex(), "amount": "1.505"})
		require.ErrorIs(t, err, ErrInvalidParam)

		d.Decimals = 0
		s = subject(d, assettest.Manager, &holder)
		call, err = route.Prepare(s, e, Params{"to": holder.Hex(), "amount": "7"})
		require.NoError(t, err)
		require.Equal(t, "7", call.Args[1].Value)
		_, err = route.Prepare(s, e, Params{"to": holder.Hex(), "amount": "1.5"})
		require.ErrorIs(t, err, ErrInvalidParam)
	})
	t.Run("holder burn", func(t *testing.T) {
		d := assettest.Equity(1000)
		b := assettest.Balance(holder, 100, 30, false)
		route, e, err := r.ResolveEligible(d.Type, eligibility(t, d, b, assettest.Manager), lifecycle.Burn)
		require.NoError(t, err)
		s := subject(d, assettest.Manager, &holder)

		call, err := route.Prepare(s, e, Params{"from": holder.Hex(), "amount": "70"})
		require.NoError(t, err)
		require.Equal(t, "burnFrom", call.Method)
		_, err = route.Prepare(s, e, Params{"from": holder.Hex(), "amount": "71"})
		require.ErrorIs(t, err, lifecycle.ErrExceedsBound)
	})
	t.Run("own burn", func(t *testing.T) {
		d := assettest.Equity(1000)
		mgr := assettest.Manager
		b := assettest.Balance(mgr, 10, 0, false)
		route, e, err := r.ResolveEligible(d.Type, eligibility(t, d, b, mgr), lifecycle.Burn)
		require.NoError(t, err)
		s := subject(d, mgr, &mgr)

		call, err := route.Prepare(s, e, Params{"amount": "10"})
		require.NoError(t, err)
		require.Equal(t, "burn", call.Method)
		require.Len(t, call.Args, 1)
		_, err = route.Prepare(s, e, Params{"amount": "11"})
		require.ErrorIs(t, err, lifecycle.ErrExceedsBound)
	})
	t.Run("target must be the evaluated holder", func(t *testing.T) {
		d := assettest.Collateral(asset.Stablecoin, 1000)
		es := eligibility(t, d, assettest.Balance(holder, 10, 0, false), assettest.Manager)
		stranger := assettest.Stranger
		for name, tc := range map[string]struct {
			action lifecycle.Action
			holder *common.Address
			params Params
		}{
			"burn without holder":  {lifecycle.Burn, nil, Params{"from": holder.Hex(), "amount": "5"}},
			"burn other account":   {lifecycle.Burn, &stranger, Params{"from": holder.Hex(), "amount": "5"}},
			"own burn of holder":   {lifecycle.Burn, &holder, Params{"amount": "5"}},
			"mint without holder":  {lifecycle.Mint, nil, Params{"to": holder.Hex(), "amount": "1.5"}},
			"mint to other":        {lifecycle.Mint, &holder, Params{"to": stranger.Hex(), "amount": "1"}},
			"freeze other account": {lifecycle.Freeze, &stranger, Params{"user": holder.Hex(), "amount": "1"}},
		} {
			t.Run(name, func(t *testing.T) {
				route, e, err := r.ResolveEligible(d.Type, es, tc.action)
				require.NoError(t, err)
				_, err = route.Prepare(subject(d, assettest.Manager, tc.holder), e, tc.params)
				require.ErrorIs(t, err, lifecycle.ErrNotEligible)
			})
		}
	})
	t.Run("withdraw carries underlying", func(t *testing.T) {
		d := assettest.Fund(10)
		route, e, err := r.ResolveEligible(d.Type, eligibility(t, d, nil, assettest.Manager), lifecycle.Withdraw)
		require.NoError(t, err)
		s := subject(d, assettest.Manager, nil)
		call, err := route.Prepare(s, e, Params{"to": assettest.Manager.Hex(), "amount": "40"})
		require.NoError(t, err)
		require.Equal(t, "FundWithdrawUnderlyingAsset", call.Mutation)
		require.Equal(t, Arg{Name: "underlyingAsset", Type: "address", Value: assettest.Underlying.Hex()}, call.Args[len(call.Args)-1])
		_, err = route.Prepare(s, e, Params{"to": assettest.Manager.Hex(), "amount": "41"})
		require.ErrorIs(t, err, lifecycle.ErrExceedsBound)
	})
	t.Run("grant role", func(t *testing.T) {
		d := assettest.Cryptocurrency(10)
		route, e, err := r.ResolveEligible(d.Type, eligibility(t, d, nil, assettest.Stranger), lifecycle.GrantRole)
		require.NoError(t, err)
		s := subject(d, assettest.Stranger, nil)
		call, err := route.Prepare(s, e, Params{"account": holder.Hex(), "role": "supply-management"})
		require.NoError(t, err)
		require.Equal(t, "SUPPLY_MANAGEMENT_ROLE", call.Args[0].Value)

		_, err = route.Prepare(s, e, Params{"account": holder.Hex(), "role": "owner"})
		require.ErrorIs(t, err, ErrInvalidParam)
	})
	t.Run("refuses ineligible", func(t *testing.T) {
		d := assettest.Collateral(asset.TokenizedDeposit, 100)
		d.Extension.(*asset.CollateralDetails).Paused = true
		es := eligibility(t, d, assettest.Balance(holder, 10, 0, false), assettest.Manager)
		e, ok := es.Get(lifecycle.Mint)
		require.True(t, ok)
		route, err := r.Resolve(d.Type, lifecycle.Mint)
		require.NoError(t, err)
		_, err = route.Prepare(subject(d, assettest.Manager, &holder), e, Params{"to": holder.Hex(), "amount": "1"})
		require.ErrorIs(t, err, lifecycle.ErrNotEligible)
	})
	t.Run("wrong eligibility", func(t *testing.T) {
		d := assettest.Equity(10)
		es := eligibility(t, d, nil, assettest.Manager)
		e, _ := es.Get(lifecycle.Burn)
		route, err := r.Resolve(d.Type, lifecycle.Mint)
		require.NoError(t, err)
		_, err = route.Prepare(subject(d, assettest.Manager, &holder), e, Params{"to": holder.Hex(), "amount": "1"})
		require.Error(t, err)
	})
}
