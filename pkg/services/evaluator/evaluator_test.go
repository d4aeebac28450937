package evaluator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/assetkit/assetkit/internal/assettest"
	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/dispatch"
	"github.com/assetkit/assetkit/pkg/lifecycle"
	"github.com/assetkit/assetkit/pkg/regulation"
	"github.com/assetkit/assetkit/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

var errUnavailable = errors.New("unavailable")

type testSource struct {
	mtx        sync.Mutex
	assets     map[common.Address]*asset.Detail
	balances   map[common.Address]*asset.Balance
	managers   []common.Address
	failDetail bool
	failRoles  bool
	failBal    bool
}

func newTestSource(ds ...*asset.Detail) *testSource {
	s := &testSource{
		assets:   make(map[common.Address]*asset.Detail),
		balances: make(map[common.Address]*asset.Balance),
		managers: []common.Address{assettest.Manager},
	}
	for _, d := range ds {
		s.assets[d.ID] = d
	}
	return s
}

func (s *testSource) AssetDetail(_ context.Context, id common.Address) (*asset.Detail, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.failDetail {
		return nil, errUnavailable
	}
	d, ok := s.assets[id]
	if !ok {
		return nil, errors.New("no asset")
	}
	return d, nil
}

func (s *testSource) Balance(_ context.Context, _, account common.Address) (*asset.Balance, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.failBal {
		return nil, errUnavailable
	}
	if b, ok := s.balances[account]; ok {
		return b, nil
	}
	return &asset.Balance{Account: account}, nil
}

func (s *testSource) SupplyManagers(context.Context, common.Address) ([]common.Address, error) {
	if s.failRoles {
		return nil, errUnavailable
	}
	return s.managers, nil
}

func newTestEvaluator(t *testing.T, mica bool, src Source, reg asset.RegulationChecker) *Evaluator {
	return New(Config{MiCA: mica, Now: func() time.Time { return assettest.Now }}, src, reg, zaptest.NewLogger(t))
}

func TestEvaluate(t *testing.T) {
	d := assettest.Collateral(asset.Stablecoin, 100)
	src := newTestSource(d)
	src.balances[assettest.Holder] = assettest.Balance(assettest.Holder, 50, 10, false)
	ev := newTestEvaluator(t, false, src, nil)

	holder := assettest.Holder
	r, err := ev.Evaluate(context.Background(), Request{Asset: d.ID, Actor: assettest.Manager, Holder: &holder})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, r.ID)
	require.Equal(t, asset.Stablecoin, r.Type)
	require.True(t, r.Capabilities.Collateral)
	require.False(t, r.Capabilities.MiCA)
	require.True(t, r.BalanceAvailable)
	require.Equal(t, "40", r.Holder.Available.String())
	require.Equal(t, assettest.Now, r.State.EvaluatedAt)
	require.Len(t, r.Eligibility, len(lifecycle.Actions()))
	require.Len(t, r.Routes, len(r.Eligibility.Enabled()))

	burn, ok := r.Eligibility.Get(lifecycle.Burn)
	require.True(t, ok)
	require.True(t, burn.Enabled)
	require.Equal(t, "40", burn.Bound.String())

	r2, err := ev.Evaluate(context.Background(), Request{Asset: d.ID, Actor: assettest.Manager, Holder: &holder})
	require.NoError(t, err)
	require.NotEqual(t, r.ID, r2.ID)
}

func TestEvaluateBalanceDegrades(t *testing.T) {
	d := assettest.Equity(1000)
	src := newTestSource(d)
	src.failBal = true

	core, logs := observer.New(zapcore.WarnLevel)
	ev := New(Config{Now: func() time.Time { return assettest.Now }}, src, nil, zap.New(core))

	holder := assettest.Holder
	r, err := ev.Evaluate(context.Background(), Request{Asset: d.ID, Actor: assettest.Manager, Holder: &holder})
	require.NoError(t, err)
	require.False(t, r.BalanceAvailable)
	require.Nil(t, r.Holder)
	burn, _ := r.Eligibility.Get(lifecycle.Burn)
	require.False(t, burn.Enabled)
	require.Nil(t, burn.Bound)
	require.Equal(t, lifecycle.ReasonNoHolderBalance, burn.Reason)
	mint, _ := r.Eligibility.Get(lifecycle.Mint)
	require.True(t, mint.Enabled)
	require.Equal(t, 1, logs.FilterMessage("holder balance is not available").Len())

	r, err = ev.Evaluate(context.Background(), Request{Asset: d.ID, Actor: assettest.Manager})
	require.NoError(t, err)
	burn, _ = r.Eligibility.Get(lifecycle.Burn)
	require.True(t, burn.Enabled)
	require.Equal(t, "1000", burn.Bound.String())
}

func TestEvaluateFatal(t *testing.T) {
	d := assettest.Fund(10)
	for name, set := range map[string]func(*testSource){
		"detail": func(s *testSource) { s.failDetail = true },
		"roles":  func(s *testSource) { s.failRoles = true },
	} {
		t.Run(name, func(t *testing.T) {
			src := newTestSource(d)
			set(src)
			_, err := newTestEvaluator(t, false, src, nil).Evaluate(context.Background(), Request{Asset: d.ID, Actor: assettest.Manager})
			require.ErrorIs(t, err, errUnavailable)
		})
	}
	t.Run("unknown asset", func(t *testing.T) {
		_, err := newTestEvaluator(t, false, newTestSource(), nil).Evaluate(context.Background(), Request{Asset: d.ID})
		require.Error(t, err)
	})
}

func TestEvaluateMiCA(t *testing.T) {
	ctx := context.Background()
	reg := regulation.NewRegistry(storage.NewMemoryStore())
	dep := assettest.Collateral(asset.TokenizedDeposit, 10)
	eq := assettest.Equity(10)
	require.NoError(t, reg.SetMiCA(ctx, dep.ID, true))
	require.NoError(t, reg.SetMiCA(ctx, eq.ID, true))
	src := newTestSource(dep, eq)

	r, err := newTestEvaluator(t, true, src, reg).Evaluate(ctx, Request{Asset: dep.ID, Actor: assettest.Manager})
	require.NoError(t, err)
	require.True(t, r.Capabilities.MiCA)

	r, err = newTestEvaluator(t, false, src, reg).Evaluate(ctx, Request{Asset: dep.ID, Actor: assettest.Manager})
	require.NoError(t, err)
	require.False(t, r.Capabilities.MiCA)

	r, err = newTestEvaluator(t, true, src, reg).Evaluate(ctx, Request{Asset: eq.ID, Actor: assettest.Manager})
	require.NoError(t, err)
	require.False(t, r.Capabilities.MiCA)
}

func TestEvaluateActorBlocked(t *testing.T) {
	d := assettest.Collateral(asset.Stablecoin, 10)
	src := newTestSource(d)
	src.balances[assettest.Manager] = assettest.Balance(assettest.Manager, 0, 0, true)
	r, err := newTestEvaluator(t, false, src, nil).Evaluate(context.Background(), Request{Asset: d.ID, Actor: assettest.Manager})
	require.NoError(t, err)
	e, _ := r.Eligibility.Get(lifecycle.UpdateCollateral)
	require.False(t, e.Enabled)
	require.Equal(t, lifecycle.ReasonActorBlocked, e.Reason)
}

func TestPrepare(t *testing.T) {
	ctx := context.Background()
	d := assettest.Collateral(asset.Stablecoin, 100)
	src := newTestSource(d)
	ev := newTestEvaluator(t, false, src, nil)
	req := Request{Asset: d.ID, Actor: assettest.Manager}

	p, err := ev.Prepare(ctx, req, lifecycle.Mint, dispatch.Params{"to": assettest.Holder.Hex(), "amount": "10"})
	require.NoError(t, err)
	require.Equal(t, "StableCoinMint", p.Call.Mutation)
	require.Equal(t, "mint", p.Call.Method)
	require.Equal(t, d.ID, p.Call.Contract)
	require.Equal(t, lifecycle.Mint, p.Eligibility.Action)

	_, err = ev.Prepare(ctx, req, lifecycle.Mint, dispatch.Params{"to": assettest.Holder.Hex(), "amount": "501"})
	require.ErrorIs(t, err, lifecycle.ErrExceedsBound)

	_, err = ev.Prepare(ctx, req, lifecycle.Unpause, nil)
	require.ErrorIs(t, err, lifecycle.ErrNotEligible)

	_, err = ev.Prepare(ctx, req, lifecycle.Mature, nil)
	require.ErrorIs(t, err, lifecycle.ErrNotEligible)

	_, err = ev.Prepare(ctx, req, "redeem", nil)
	require.ErrorIs(t, err, lifecycle.ErrUnknownAction)

	_, err = ev.Prepare(ctx, req, lifecycle.Mint, dispatch.Params{"to": "nobody", "amount": "1"})
	require.ErrorIs(t, err, dispatch.ErrInvalidParam)
}

func TestPrepareHolderBinding(t *testing.T) {
	ctx := context.Background()
	holder := assettest.Holder
	stranger := assettest.Stranger

	t.Run("restricted collateral asset", func(t *testing.T) {
		d := assettest.Collateral(asset.Stablecoin, 1000)
		c := d.Extension.(*asset.CollateralDetails)
		c.Paused = true
		expired := assettest.Now.Add(-time.Hour)
		c.CollateralProofValidity = &expired
		src := newTestSource(d)
		src.balances[holder] = assettest.Balance(holder, 10, 0, true)
		ev := newTestEvaluator(t, false, src, nil)
		req := Request{Asset: d.ID, Actor: stranger}

		for name, tc := range map[string]struct {
			holder *common.Address
			action lifecycle.Action
			params dispatch.Params
		}{
			"burn of evaluated holder": {&holder, lifecycle.Burn, dispatch.Params{"from": holder.Hex(), "amount": "5"}},
			"burn without holder":      {nil, lifecycle.Burn, dispatch.Params{"from": holder.Hex(), "amount": "900"}},
			"mint without holder":      {nil, lifecycle.Mint, dispatch.Params{"to": holder.Hex(), "amount": "1.5"}},
		} {
			t.Run(name, func(t *testing.T) {
				req := req
				req.Holder = tc.holder
				_, err := ev.Prepare(ctx, req, tc.action, tc.params)
				require.ErrorIs(t, err, lifecycle.ErrNotEligible)
				require.Contains(t, err.Error(), lifecycle.ReasonHolderBlocked)
				require.Contains(t, err.Error(), lifecycle.ReasonCollateralExpired)
			})
		}
	})
	t.Run("burn bound follows target", func(t *testing.T) {
		d := assettest.Collateral(asset.Stablecoin, 1000)
		src := newTestSource(d)
		src.balances[holder] = assettest.Balance(holder, 15, 5, false)
		ev := newTestEvaluator(t, false, src, nil)
		req := Request{Asset: d.ID, Actor: assettest.Manager}

		_, err := ev.Prepare(ctx, req, lifecycle.Burn, dispatch.Params{"from": holder.Hex(), "amount": "11"})
		require.ErrorIs(t, err, lifecycle.ErrExceedsBound)

		p, err := ev.Prepare(ctx, req, lifecycle.Burn, dispatch.Params{"from": holder.Hex(), "amount": "10"})
		require.NoError(t, err)
		require.Equal(t, "burnFrom", p.Call.Method)
		require.Equal(t, "10", p.Eligibility.Bound.String())
		require.Equal(t, dispatch.Arg{Name: "amount", Type: "uint256", Value: "10000000000000000000"}, p.Call.Args[1])

		// Own burn is bounded by the actor's balance.
		_, err = ev.Prepare(ctx, req, lifecycle.Burn, dispatch.Params{"amount": "1"})
		require.ErrorIs(t, err, lifecycle.ErrExceedsBound)

		req.Holder = &stranger
		_, err = ev.Prepare(ctx, req, lifecycle.Burn, dispatch.Params{"from": holder.Hex(), "amount": "1"})
		require.ErrorIs(t, err, lifecycle.ErrNotEligible)
		_, err = ev.Prepare(ctx, req, lifecycle.Freeze, dispatch.Params{"user": holder.Hex(), "amount": "1"})
		require.ErrorIs(t, err, lifecycle.ErrNotEligible)
	})
	t.Run("holder balance unavailable", func(t *testing.T) {
		for _, typ := range []asset.Type{asset.Stablecoin, asset.TokenizedDeposit} {
			d := assettest.Collateral(typ, 1000)
			src := newTestSource(d)
			src.failBal = true
			ev := newTestEvaluator(t, false, src, nil)
			req := Request{Asset: d.ID, Actor: assettest.Manager}
			for a, p := range map[lifecycle.Action]dispatch.Params{
				lifecycle.Mint:   {"to": holder.Hex(), "amount": "1"},
				lifecycle.Burn:   {"from": holder.Hex(), "amount": "1"},
				lifecycle.Freeze: {"user": holder.Hex(), "amount": "1"},
			} {
				_, err := ev.Prepare(ctx, req, a, p)
				require.ErrorIs(t, err, lifecycle.ErrNotEligible, "%s/%s", typ, a)
				require.Contains(t, err.Error(), lifecycle.ReasonNoHolderBalance)
			}
			_, err := ev.Prepare(ctx, req, lifecycle.UpdateCollateral, dispatch.Params{"amount": "1"})
			require.NoError(t, err, typ)
		}
	})
	t.Run("fractional amount", func(t *testing.T) {
		d := assettest.Equity(1000)
		d.Decimals = 2
		ev := newTestEvaluator(t, false, newTestSource(d), nil)
		req := Request{Asset: d.ID, Actor: assettest.Manager}

		_, err := ev.Prepare(ctx, req, lifecycle.Mint, dispatch.Params{"to": holder.Hex(), "amount": "1.555"})
		require.ErrorIs(t, err, dispatch.ErrInvalidParam)

		p, err := ev.Prepare(ctx, req, lifecycle.Mint, dispatch.Params{"to": holder.Hex(), "amount": "1.55"})
		require.NoError(t, err)
		require.Equal(t, "155", p.Call.Args[1].Value)
	})
}

func TestCapabilitiesAndState(t *testing.T) {
	ctx := context.Background()
	reg := regulation.NewRegistry(storage.NewMemoryStore())
	d := assettest.Collateral(asset.Stablecoin, 10)
	require.NoError(t, reg.SetMiCA(ctx, d.ID, true))
	ev := newTestEvaluator(t, true, newTestSource(d), reg)

	caps, err := ev.Capabilities(ctx, asset.Stablecoin, nil)
	require.NoError(t, err)
	require.True(t, caps.Collateral)
	require.False(t, caps.MiCA)

	caps, err = ev.Capabilities(ctx, asset.Stablecoin, &d.ID)
	require.NoError(t, err)
	require.True(t, caps.MiCA)

	_, err = ev.Capabilities(ctx, "nft", nil)
	require.ErrorIs(t, err, asset.ErrInvalidType)

	st, err := ev.State(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, asset.Stablecoin, st.Type)
	require.False(t, st.State.CollateralExpired)
	require.Equal(t, "12.35", st.State.ConcentrationPct)

	_, err = ev.State(ctx, assettest.BondID)
	require.Error(t, err)
}
