package lifecycle

import (
	"fmt"
	"math/big"
	"time"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// MaturityStatus is a bond lifecycle phase.
type MaturityStatus string

// Maturity statuses.
const (
	// NotApplicable is used for every non-bond asset.
	NotApplicable MaturityStatus = "not-applicable"
	// Issuing means the supply is still below the cap.
	Issuing MaturityStatus = "issuing"
	// Active means the bond is fully issued, but not yet matured.
	Active MaturityStatus = "active"
	// Matured means redemption is triggered.
	Matured MaturityStatus = "matured"
)

// concentrationPlaces is the number of decimal places used for the
// concentration percentage.
const concentrationPlaces = 2

var hundred = big.NewInt(100)

// State contains facts derived from an asset detail at some point in time.
type State struct {
	Maturity          MaturityStatus `json:"maturityStatus"`
	CollateralExpired bool           `json:"collateralExpired"`
	// RedemptionReadiness is an integer percentage, nil for non-bonds.
	RedemptionReadiness *big.Int `json:"redemptionReadinessPct,omitempty"`
	// RedemptionNothingOwed is set when the bond needs no underlying at all,
	// RedemptionReadiness is 100 then.
	RedemptionNothingOwed bool             `json:"redemptionNothingOwed,omitempty"`
	ConcentrationPct      string           `json:"concentrationPct"`
	TotalValue            *decimal.Decimal `json:"totalValue,omitempty"`
	EvaluatedAt           time.Time        `json:"evaluatedAt"`
}

// Derive computes State for d as of now.
func Derive(d *asset.Detail, now time.Time) (State, error) {
	if err := d.Validate(); err != nil {
		return State{}, err
	}
	s := State{
		Maturity:         NotApplicable,
		ConcentrationPct: ConcentrationPct(d.Concentration),
		TotalValue:       TotalValue(d.Price, d.TotalSupply),
		EvaluatedAt:      now,
	}
	switch d.Type {
	case asset.Bond:
		b, err := d.Bond()
		if err != nil {
			return State{}, err
		}
		s.Maturity = BondMaturity(b, d.TotalSupply)
		s.RedemptionReadiness, s.RedemptionNothingOwed = RedemptionReadiness(b.UnderlyingBalanceExact, b.TotalUnderlyingNeededExact)
	case asset.Stablecoin, asset.TokenizedDeposit:
		c, err := d.Collateral()
		if err != nil {
			return State{}, err
		}
		s.CollateralExpired = CollateralExpired(c, now)
	case asset.Cryptocurrency, asset.Equity, asset.Fund:
	default:
		return State{}, fmt.Errorf("%w: %q", asset.ErrInvalidType, string(d.Type))
	}
	return s, nil
}

// BondMaturity returns maturity status of a bond with the given supply.
func BondMaturity(b *asset.BondDetails, totalSupply decimal.Decimal) MaturityStatus {
	switch {
	case b.IsMatured:
		return Matured
	case totalSupply.LessThan(b.Cap):
		return Issuing
	default:
		return Active
	}
}

// RedemptionReadiness returns floor(balance * 100 / needed). Zero needed
// amount means nothing is owed, the result is 100 and nothingOwed is true.
func RedemptionReadiness(balance, needed *uint256.Int) (pct *big.Int, nothingOwed bool) {
	if needed == nil || needed.IsZero() {
		return big.NewInt(100), true
	}
	var num *big.Int
	if balance == nil {
		num = new(big.Int)
	} else {
		num = balance.ToBig()
	}
	num.Mul(num, hundred)
	return num.Quo(num, needed.ToBig()), false
}

// CollateralExpired reports whether collateral proof validity is defined and
// strictly before now.
func CollateralExpired(c *asset.CollateralDetails, now time.Time) bool {
	return c.CollateralProofValidity != nil && c.CollateralProofValidity.Before(now)
}

// ConcentrationPct formats concentration ratio as a percentage with two
// decimal places.
func ConcentrationPct(ratio decimal.Decimal) string {
	return ratio.Shift(2).StringFixed(concentrationPlaces)
}

// TotalValue returns price * supply or nil if price is unknown.
func TotalValue(price *decimal.Decimal, supply decimal.Decimal) *decimal.Decimal {
	if price == nil {
		return nil
	}
	v := price.Mul(supply)
	return &v
}
