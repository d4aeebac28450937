package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotEligible is returned when an action is requested that is not
	// currently enabled.
	ErrNotEligible = errors.New("action is not eligible")
	// ErrExceedsBound is returned when an amount is above the action bound.
	ErrExceedsBound = errors.New("amount exceeds action bound")
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Reasons shown for disabled actions.
const (
	ReasonNotSupported       = "not supported for this asset type"
	ReasonPaused             = "asset is paused"
	ReasonNotPaused          = "asset is not paused"
	ReasonHolderBlocked      = "holder is blocked"
	ReasonActorBlocked       = "account is blocked"
	ReasonNotSupplyManager   = "account is not a supply manager"
	ReasonCollateralExpired  = "collateral proof has expired"
	ReasonMatured            = "bond is already matured"
	ReasonNoUnderlying       = "insufficient underlying asset"
	ReasonMaturityNotReached = "maturity date is not reached yet"
	ReasonNoHolderBalance    = "holder balance is not available"
)

// Actor is the account performing actions.
type Actor struct {
	Address common.Address
	// Blocked is set when the actor itself is on the asset's blocklist.
	Blocked bool
}

// Input is everything eligibility depends upon.
type Input struct {
	Detail *asset.Detail
	State  State
	// Holder is the counterparty balance, nil for page-level evaluation.
	Holder *asset.Balance
	// HolderUnavailable is set when the holder was requested, but its
	// balance couldn't be fetched. Holder-level actions depending on the
	// balance are disabled then.
	HolderUnavailable bool
	Actor             Actor
	SupplyManagers    []common.Address
}

// Eligibility is the state of a single action.
type Eligibility struct {
	Action Action `json:"action"`
	// Offered is false when the action doesn't exist for this asset in its
	// current state, it's not shown at all then.
	Offered bool `json:"offered"`
	Enabled bool `json:"enabled"`
	// Bound is the maximum amount an action may be submitted with.
	Bound  *decimal.Decimal `json:"bound,omitempty"`
	Reason string           `json:"reason,omitempty"`
	// Target is the contract an action operates on if it's not the asset
	// itself (underlying asset for top-up and withdraw).
	Target *common.Address `json:"target,omitempty"`
}

// Eligibilities is an ordered set of Eligibility, one per action.
type Eligibilities []Eligibility

// Get returns Eligibility for the specified action.
func (es Eligibilities) Get(a Action) (Eligibility, bool) {
	for _, e := range es {
		if e.Action == a {
			return e, true
		}
	}
	return Eligibility{}, false
}

// Enabled returns the list of enabled actions.
func (es Eligibilities) Enabled() []Action {
	var res []Action
	for _, e := range es {
		if e.Offered && e.Enabled {
			res = append(res, e.Action)
		}
	}
	return res
}

// Require returns Eligibility of the enabled action a or ErrNotEligible.
func (es Eligibilities) Require(a Action) (Eligibility, error) {
	e, ok := es.Get(a)
	if !ok {
		return Eligibility{}, fmt.Errorf("%w: %s", ErrUnknownAction, a)
	}
	if err := e.Check(); err != nil {
		return Eligibility{}, err
	}
	return e, nil
}

// Check returns ErrNotEligible (with the reason) unless the action is offered
// and enabled.
func (e Eligibility) Check() error {
	if e.Offered && e.Enabled {
		return nil
	}
	if e.Reason != "" {
		return fmt.Errorf("%w: %s: %s", ErrNotEligible, e.Action, e.Reason)
	}
	return fmt.Errorf("%w: %s", ErrNotEligible, e.Action)
}

// CheckAmount verifies amount against the action eligibility and bound. The
// amount is never adjusted.
func (e Eligibility) CheckAmount(amount decimal.Decimal) error {
	if err := e.Check(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if e.Bound != nil && amount.GreaterThan(*e.Bound) {
		return fmt.Errorf("%w: %s > %s", ErrExceedsBound, amount, e.Bound)
	}
	return nil
}

// BurnCeiling returns the burn bound: holder's available amount when holder is
// given and total supply otherwise.
func BurnCeiling(d *asset.Detail, holder *asset.Balance) decimal.Decimal {
	if holder != nil {
		return holder.Available
	}
	return d.TotalSupply
}

// Evaluate computes eligibility of every action for the given input.
func Evaluate(in Input) (Eligibilities, error) {
	d := in.Detail
	if d == nil {
		return nil, errors.New("no asset detail")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if in.Holder != nil {
		if err := in.Holder.Validate(); err != nil {
			return nil, fmt.Errorf("holder balance: %w", err)
		}
	}
	paused, pausable, err := d.Paused()
	if err != nil {
		return nil, err
	}
	isManager := asset.IsSupplyManager(in.SupplyManagers, in.Actor.Address)

	res := make(Eligibilities, 0, len(actions))
	for _, a := range actions {
		res = append(res, Eligibility{Action: a})
	}
	set := func(e Eligibility) {
		for i := range res {
			if res[i].Action == e.Action {
				res[i] = e
				return
			}
		}
	}

	mint, err := mintEligibility(d)
	if err != nil {
		return nil, err
	}
	burnBound := BurnCeiling(d, in.Holder)
	burn := Eligibility{Action: Burn, Offered: true, Enabled: true, Bound: &burnBound}
	if in.HolderUnavailable {
		if asset.HasCollateral(d.Type) {
			mint.Enabled, mint.Reason = false, ReasonNoHolderBalance
		}
		burn.Enabled, burn.Reason, burn.Bound = false, ReasonNoHolderBalance, nil
	} else if asset.HasCollateral(d.Type) && in.Holder != nil {
		if reasons := supplyBlockers(in, paused, isManager); len(reasons) != 0 {
			r := strings.Join(reasons, "; ")
			mint.Enabled, mint.Reason = false, r
			burn.Enabled, burn.Reason = false, r
		}
	}
	set(mint)
	set(burn)

	if pausable {
		if paused {
			set(Eligibility{Action: Unpause, Offered: true, Enabled: true})
			set(Eligibility{Action: Pause, Reason: ReasonPaused})
		} else {
			set(Eligibility{Action: Pause, Offered: true, Enabled: true})
			set(Eligibility{Action: Unpause, Reason: ReasonNotPaused})
		}
	} else {
		set(Eligibility{Action: Pause, Reason: ReasonNotSupported})
		set(Eligibility{Action: Unpause, Reason: ReasonNotSupported})
	}

	mature, err := matureEligibility(d, in.State)
	if err != nil {
		return nil, err
	}
	set(mature)
	set(updateCollateralEligibility(in, paused, isManager))

	underlying, underlyingBalance, hasUnderlying, err := d.Underlying()
	if err != nil {
		return nil, err
	}
	if hasUnderlying {
		target := underlying
		withdrawBound := underlyingBalance
		set(Eligibility{Action: TopUp, Offered: true, Enabled: true, Target: &target})
		set(Eligibility{Action: Withdraw, Offered: true, Enabled: true, Target: &target, Bound: &withdrawBound})
	} else {
		set(Eligibility{Action: TopUp, Reason: ReasonNotSupported})
		set(Eligibility{Action: Withdraw, Reason: ReasonNotSupported})
	}

	freeze := Eligibility{Action: Freeze, Reason: ReasonNotSupported}
	if asset.HasFreeze(d.Type) {
		freeze = Eligibility{Action: Freeze, Offered: true, Enabled: true}
		if in.HolderUnavailable {
			freeze.Enabled, freeze.Reason = false, ReasonNoHolderBalance
		} else if in.Holder != nil {
			v := in.Holder.Value
			freeze.Bound = &v
		}
	}
	set(freeze)

	block := Eligibility{Action: Block, Reason: ReasonNotSupported}
	if asset.HasBlocklist(d.Type) {
		block = Eligibility{Action: Block, Offered: true, Enabled: true}
	}
	set(block)

	set(Eligibility{Action: GrantRole, Offered: true, Enabled: true})
	return res, nil
}

func mintEligibility(d *asset.Detail) (Eligibility, error) {
	e := Eligibility{Action: Mint, Offered: true, Enabled: true}
	switch d.Type {
	case asset.Stablecoin, asset.TokenizedDeposit:
		c, err := d.Collateral()
		if err != nil {
			return e, err
		}
		bound := c.FreeCollateral
		e.Bound = &bound
	case asset.Bond:
		b, err := d.Bond()
		if err != nil {
			return e, err
		}
		headroom := b.Cap.Sub(d.TotalSupply)
		if headroom.IsNegative() {
			headroom = decimal.Zero
		}
		e.Bound = &headroom
	case asset.Cryptocurrency, asset.Equity, asset.Fund:
	default:
		return e, fmt.Errorf("%w: %q", asset.ErrInvalidType, string(d.Type))
	}
	return e, nil
}

// supplyBlockers returns the reasons disabling holder-level mint and burn on
// collateral-backed assets. All conditions are evaluated together.
func supplyBlockers(in Input, paused, isManager bool) []string {
	var reasons []string
	if in.Holder.Blocked {
		reasons = append(reasons, ReasonHolderBlocked)
	}
	if paused {
		reasons = append(reasons, ReasonPaused)
	}
	if !isManager {
		reasons = append(reasons, ReasonNotSupplyManager)
	}
	if in.State.CollateralExpired {
		reasons = append(reasons, ReasonCollateralExpired)
	}
	return reasons
}

func matureEligibility(d *asset.Detail, s State) (Eligibility, error) {
	if d.Type != asset.Bond {
		return Eligibility{Action: Mature, Reason: ReasonNotSupported}, nil
	}
	b, err := d.Bond()
	if err != nil {
		return Eligibility{}, err
	}
	var reasons []string
	if b.IsMatured || s.Maturity == Matured {
		reasons = append(reasons, ReasonMatured)
	}
	if !b.HasSufficientUnderlying {
		reasons = append(reasons, ReasonNoUnderlying)
	}
	if b.MaturityDate != nil && b.MaturityDate.After(s.EvaluatedAt) {
		reasons = append(reasons, ReasonMaturityNotReached)
	}
	return Eligibility{
		Action:  Mature,
		Offered: true,
		Enabled: len(reasons) == 0,
		Reason:  strings.Join(reasons, "; "),
	}, nil
}

func updateCollateralEligibility(in Input, paused, isManager bool) Eligibility {
	if !asset.HasCollateral(in.Detail.Type) {
		return Eligibility{Action: UpdateCollateral, Reason: ReasonNotSupported}
	}
	var reasons []string
	if !isManager {
		reasons = append(reasons, ReasonNotSupplyManager)
	}
	if paused {
		reasons = append(reasons, ReasonPaused)
	}
	if in.Actor.Blocked {
		reasons = append(reasons, ReasonActorBlocked)
	}
	return Eligibility{
		Action:  UpdateCollateral,
		Offered: true,
		Enabled: len(reasons) == 0,
		Reason:  strings.Join(reasons, "; "),
	}
}
