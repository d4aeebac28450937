/*
Package evaluator implements the asset evaluation service. It fetches asset
data from a Source, derives the asset state and computes action eligibility
with routes for every enabled action.
*/
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/dispatch"
	"github.com/assetkit/assetkit/pkg/lifecycle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is the asset data provider.
type Source interface {
	// AssetDetail returns the asset record, errors are fatal for evaluation.
	AssetDetail(ctx context.Context, id common.Address) (*asset.Detail, error)
	// Balance returns balance of account, errors degrade evaluation to
	// "no balance available".
	Balance(ctx context.Context, id, account common.Address) (*asset.Balance, error)
	// SupplyManagers returns accounts holding the supply management role.
	SupplyManagers(ctx context.Context, id common.Address) ([]common.Address, error)
}

// Config is the evaluator configuration.
type Config struct {
	// MiCA enables MiCA registry lookups.
	MiCA bool
	// Now returns current time, time.Now is used if nil.
	Now func() time.Time
}

// Request describes the evaluation subject.
type Request struct {
	Asset common.Address `json:"asset"`
	// Actor is the account performing actions.
	Actor common.Address `json:"actor"`
	// Holder is the counterparty account, optional.
	Holder *common.Address `json:"holder,omitempty"`
}

// Report is the evaluation result.
type Report struct {
	ID           uuid.UUID               `json:"id"`
	Asset        common.Address          `json:"asset"`
	Type         asset.Type              `json:"type"`
	Decimals     uint8                   `json:"decimals"`
	Capabilities asset.Capabilities      `json:"capabilities"`
	State        lifecycle.State         `json:"state"`
	Eligibility  lifecycle.Eligibilities `json:"eligibility"`
	Routes       []dispatch.Route        `json:"routes"`
	// BalanceAvailable is set when the holder balance was requested and
	// fetched successfully.
	BalanceAvailable bool           `json:"balanceAvailable"`
	Holder           *asset.Balance `json:"holder,omitempty"`
}

// Prepared is a contract call prepared for a single action.
type Prepared struct {
	ReportID    uuid.UUID             `json:"reportId"`
	Eligibility lifecycle.Eligibility `json:"eligibility"`
	Route       dispatch.Route        `json:"route"`
	Call        dispatch.Call         `json:"call"`
}

// Evaluator is the evaluation service, it's safe for concurrent use.
type Evaluator struct {
	cfg    Config
	src    Source
	reg    asset.RegulationChecker
	router *dispatch.Router
	log    *zap.Logger
}

// New creates an Evaluator. reg may be nil, MiCA is never enabled then.
func New(cfg Config, src Source, reg asset.RegulationChecker, log *zap.Logger) *Evaluator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Evaluator{
		cfg:    cfg,
		src:    src,
		reg:    reg,
		router: dispatch.NewRouter(),
		log:    log,
	}
}

// Router returns the dispatch router used by the evaluator.
func (e *Evaluator) Router() *dispatch.Router {
	return e.router
}

type inputs struct {
	detail        *asset.Detail
	mica          bool
	managers      []common.Address
	holder        *asset.Balance
	actorBlocked  bool
	holderFetched bool
}

// fetch concurrently fetches everything evaluation depends upon. Detail,
// MiCA and role failures are fatal, balance failures are logged.
func (e *Evaluator) fetch(ctx context.Context, req Request) (inputs, error) {
	var in inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := e.src.AssetDetail(gctx, req.Asset)
		if err != nil {
			return fmt.Errorf("failed to get asset %s: %w", req.Asset, err)
		}
		in.detail = d
		mica, err := asset.HasMiCA(gctx, e.cfg.MiCA, d.Type, req.Asset, e.reg)
		if err != nil {
			return fmt.Errorf("failed to check MiCA for %s: %w", req.Asset, err)
		}
		in.mica = mica
		return nil
	})
	g.Go(func() error {
		managers, err := e.src.SupplyManagers(gctx, req.Asset)
		if err != nil {
			return fmt.Errorf("failed to get supply managers of %s: %w", req.Asset, err)
		}
		in.managers = managers
		return nil
	})
	if req.Holder != nil {
		holder := *req.Holder
		g.Go(func() error {
			b, err := e.src.Balance(gctx, req.Asset, holder)
			if err != nil {
				e.log.Warn("holder balance is not available",
					zap.Stringer("asset", req.Asset),
					zap.Stringer("holder", holder),
					zap.Error(err))
				return nil
			}
			in.holder = b
			in.holderFetched = true
			return nil
		})
	}
	g.Go(func() error {
		b, err := e.src.Balance(gctx, req.Asset, req.Actor)
		if err != nil {
			e.log.Debug("actor balance is not available",
				zap.Stringer("asset", req.Asset),
				zap.Stringer("actor", req.Actor),
				zap.Error(err))
			return nil
		}
		in.actorBlocked = b.Blocked
		return nil
	})
	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	return in, nil
}

// AssetState is the derived state of a single asset.
type AssetState struct {
	Asset common.Address  `json:"asset"`
	Type  asset.Type      `json:"type"`
	State lifecycle.State `json:"state"`
}

// Capabilities returns capabilities of t. MiCA is checked only when id is
// given.
func (e *Evaluator) Capabilities(ctx context.Context, t asset.Type, id *common.Address) (asset.Capabilities, error) {
	if !t.Valid() {
		return asset.Capabilities{}, fmt.Errorf("%w: %q", asset.ErrInvalidType, string(t))
	}
	caps := asset.CapabilitiesOf(t)
	if id != nil {
		mica, err := asset.HasMiCA(ctx, e.cfg.MiCA, t, *id, e.reg)
		if err != nil {
			return asset.Capabilities{}, fmt.Errorf("failed to check MiCA for %s: %w", *id, err)
		}
		caps.MiCA = mica
	}
	return caps, nil
}

// State fetches the asset and derives its state.
func (e *Evaluator) State(ctx context.Context, id common.Address) (*AssetState, error) {
	d, err := e.src.AssetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", id, err)
	}
	state, err := lifecycle.Derive(d, e.cfg.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to derive state of %s: %w", id, err)
	}
	return &AssetState{Asset: id, Type: d.Type, State: state}, nil
}

// Evaluate computes the Report for req.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	in, err := e.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	d := in.detail
	state, err := lifecycle.Derive(d, e.cfg.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to derive state of %s: %w", req.Asset, err)
	}
	es, err := lifecycle.Evaluate(lifecycle.Input{
		Detail:            d,
		State:             state,
		Holder:            in.holder,
		HolderUnavailable: req.Holder != nil && !in.holderFetched,
		Actor:             lifecycle.Actor{Address: req.Actor, Blocked: in.actorBlocked},
		SupplyManagers:    in.managers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s: %w", req.Asset, err)
	}
	routes, err := e.router.Routes(d.Type, es)
	if err != nil {
		return nil, err
	}
	caps := asset.CapabilitiesOf(d.Type)
	caps.MiCA = in.mica

	r := &Report{
		ID:               uuid.New(),
		Asset:            req.Asset,
		Type:             d.Type,
		Decimals:         d.Decimals,
		Capabilities:     caps,
		State:            state,
		Eligibility:      es,
		Routes:           routes,
		BalanceAvailable: in.holderFetched,
		Holder:           in.holder,
	}
	evaluationTime.Observe(time.Since(start).Seconds())
	e.log.Debug("asset evaluated",
		zap.Stringer("id", r.ID),
		zap.Stringer("asset", req.Asset),
		zap.Stringer("type", d.Type),
		zap.Int("enabled", len(routes)),
		zap.Bool("balance", r.BalanceAvailable))
	return r, nil
}

// Prepare evaluates req and prepares the contract call for action a with the
// given parameters. Disabled actions are refused with lifecycle.ErrNotEligible.
// Eligibility of actions operating on some account (mint recipient, burn or
// freeze target) is evaluated for that account, req.Holder must either be
// omitted or match it.
func (e *Evaluator) Prepare(ctx context.Context, req Request, a lifecycle.Action, p dispatch.Params) (*Prepared, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %q", lifecycle.ErrUnknownAction, string(a))
	}
	r, err := e.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	menu := lifecycle.NewMenu(r.Eligibility)
	if _, err := menu.Open(a); err != nil {
		return nil, err
	}
	defer menu.Close()

	route, err := e.router.Resolve(r.Type, a)
	if err != nil {
		return nil, err
	}
	v, err := route.Schema.Validate(p, r.Decimals)
	if err != nil {
		return nil, err
	}
	if acc, ok := route.Schema.HolderAccount(v, req.Actor); ok {
		switch {
		case req.Holder == nil:
			req.Holder = &acc
			r, err = e.Evaluate(ctx, req)
			if err != nil {
				return nil, err
			}
			menu.Refresh(r.Eligibility)
		case *req.Holder != acc:
			return nil, fmt.Errorf("%w: %s: evaluated for %s, not %s",
				lifecycle.ErrNotEligible, a, req.Holder.Hex(), acc.Hex())
		}
	}
	el, ok := menu.Active()
	if !ok {
		_, err = r.Eligibility.Require(a)
		return nil, err
	}

	call, err := route.Prepare(dispatch.Subject{
		Contract: req.Asset,
		Decimals: r.Decimals,
		Actor:    req.Actor,
		Holder:   req.Holder,
	}, el, p)
	if err != nil {
		if errors.Is(err, lifecycle.ErrExceedsBound) {
			e.log.Info("action amount exceeds bound",
				zap.Stringer("asset", req.Asset),
				zap.Stringer("action", a),
				zap.Error(err))
		}
		return nil, err
	}
	return &Prepared{ReportID: r.ID, Eligibility: el, Route: route, Call: call}, nil
}
