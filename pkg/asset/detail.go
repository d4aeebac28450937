package asset

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ErrTypeMismatch is returned when a Detail is narrowed to an extension not
// matching its Type or when the extension stored doesn't match the Type.
var ErrTypeMismatch = errors.New("asset detail type mismatch")

// Detail is an asset record keyed by its Type. Common fields are stored
// directly, type-specific ones are kept in Extension which must match Type.
type Detail struct {
	Type Type
	// ID is the token contract address.
	ID          common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	Creator     common.Address
	TotalSupply decimal.Decimal
	DeployedOn  time.Time
	// Concentration is the share of supply held by the top holders, a ratio
	// in [0, 1].
	Concentration decimal.Decimal
	// Price is the price of one token in base currency, nil if unknown.
	Price *decimal.Decimal

	Extension Extension
}

// Extension is the sealed set of type-specific detail parts.
type Extension interface {
	// accepts reports whether the extension may be attached to t.
	accepts(t Type) bool
}

// BondDetails is the Bond extension.
type BondDetails struct {
	Cap       decimal.Decimal
	IsMatured bool
	// MaturityDate is nil for bonds without a fixed maturity.
	MaturityDate               *time.Time
	FaceValue                  decimal.Decimal
	UnderlyingAsset            common.Address
	UnderlyingBalance          decimal.Decimal
	UnderlyingBalanceExact     *uint256.Int
	TotalUnderlyingNeeded      decimal.Decimal
	TotalUnderlyingNeededExact *uint256.Int
	HasSufficientUnderlying    bool
	RedeemedAmount             decimal.Decimal
	Paused                     bool
}

// CollateralDetails is the extension of collateral-backed types (Stablecoin
// and TokenizedDeposit).
type CollateralDetails struct {
	Collateral      decimal.Decimal
	CollateralRatio decimal.Decimal
	// CollateralProofValidity is nil when no proof was ever submitted.
	CollateralProofValidity *time.Time
	Liveness                time.Duration
	// FreeCollateral is the amount that can still be minted against the
	// current collateral.
	FreeCollateral decimal.Decimal
	Paused         bool
}

// EquityDetails is the Equity extension.
type EquityDetails struct {
	ValueInBaseCurrency decimal.Decimal
	Class               string
	Category            string
	Paused              bool
}

// FundDetails is the Fund extension.
type FundDetails struct {
	ValueInBaseCurrency decimal.Decimal
	UnderlyingAsset     common.Address
	UnderlyingBalance   decimal.Decimal
	ManagementFeeBps    uint16
	Paused              bool
}

// CryptocurrencyDetails is the Cryptocurrency extension, cryptocurrencies
// can't be paused.
type CryptocurrencyDetails struct {
	InitialSupply decimal.Decimal
}

func (*BondDetails) accepts(t Type) bool           { return t == Bond }
func (*CollateralDetails) accepts(t Type) bool     { return HasCollateral(t) }
func (*EquityDetails) accepts(t Type) bool         { return t == Equity }
func (*FundDetails) accepts(t Type) bool           { return t == Fund }
func (*CryptocurrencyDetails) accepts(t Type) bool { return t == Cryptocurrency }

// Validate checks the discriminant, the extension and basic amount
// invariants.
func (d *Detail) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(d.Type))
	}
	if d.Extension == nil || !d.Extension.accepts(d.Type) {
		return fmt.Errorf("%w: %T for %s", ErrTypeMismatch, d.Extension, d.Type)
	}
	if d.TotalSupply.IsNegative() {
		return errors.New("negative total supply")
	}
	if d.Concentration.IsNegative() || d.Concentration.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("concentration %s is out of [0, 1]", d.Concentration)
	}
	if d.Price != nil && d.Price.IsNegative() {
		return errors.New("negative price")
	}
	switch ext := d.Extension.(type) {
	case *BondDetails:
		if ext.Cap.IsNegative() {
			return errors.New("negative bond cap")
		}
		if ext.UnderlyingBalanceExact == nil || ext.TotalUnderlyingNeededExact == nil {
			return errors.New("bond exact underlying amounts are missing")
		}
	case *CollateralDetails:
		if ext.Collateral.IsNegative() || ext.FreeCollateral.IsNegative() {
			return errors.New("negative collateral")
		}
	case *FundDetails:
		if ext.UnderlyingBalance.IsNegative() {
			return errors.New("negative fund underlying balance")
		}
	case *EquityDetails, *CryptocurrencyDetails:
	}
	return nil
}

func (d *Detail) mismatch(want string) error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(d.Type))
	}
	return fmt.Errorf("%w: %s is not %s", ErrTypeMismatch, d.Type, want)
}

// Bond narrows d to its Bond extension.
func (d *Detail) Bond() (*BondDetails, error) {
	switch d.Type {
	case Bond:
		if ext, ok := d.Extension.(*BondDetails); ok {
			return ext, nil
		}
		return nil, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, d.Extension, d.Type)
	case Cryptocurrency, Stablecoin, TokenizedDeposit, Equity, Fund:
		return nil, d.mismatch("bond")
	default:
		return nil, d.mismatch("bond")
	}
}

// Collateral narrows d to its collateral extension.
func (d *Detail) Collateral() (*CollateralDetails, error) {
	switch d.Type {
	case Stablecoin, TokenizedDeposit:
		if ext, ok := d.Extension.(*CollateralDetails); ok {
			return ext, nil
		}
		return nil, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, d.Extension, d.Type)
	case Bond, Cryptocurrency, Equity, Fund:
		return nil, d.mismatch("collateral-backed")
	default:
		return nil, d.mismatch("collateral-backed")
	}
}

// Fund narrows d to its Fund extension.
func (d *Detail) Fund() (*FundDetails, error) {
	switch d.Type {
	case Fund:
		if ext, ok := d.Extension.(*FundDetails); ok {
			return ext, nil
		}
		return nil, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, d.Extension, d.Type)
	case Bond, Cryptocurrency, Stablecoin, TokenizedDeposit, Equity:
		return nil, d.mismatch("fund")
	default:
		return nil, d.mismatch("fund")
	}
}

// Equity narrows d to its Equity extension.
func (d *Detail) Equity() (*EquityDetails, error) {
	switch d.Type {
	case Equity:
		if ext, ok := d.Extension.(*EquityDetails); ok {
			return ext, nil
		}
		return nil, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, d.Extension, d.Type)
	case Bond, Cryptocurrency, Stablecoin, TokenizedDeposit, Fund:
		return nil, d.mismatch("equity")
	default:
		return nil, d.mismatch("equity")
	}
}

// Paused returns the current paused flag. ok is false for types that have no
// such flag.
func (d *Detail) Paused() (paused bool, ok bool, err error) {
	switch d.Type {
	case Bond:
		b, err := d.Bond()
		if err != nil {
			return false, false, err
		}
		return b.Paused, true, nil
	case Stablecoin, TokenizedDeposit:
		c, err := d.Collateral()
		if err != nil {
			return false, false, err
		}
		return c.Paused, true, nil
	case Equity:
		e, err := d.Equity()
		if err != nil {
			return false, false, err
		}
		return e.Paused, true, nil
	case Fund:
		f, err := d.Fund()
		if err != nil {
			return false, false, err
		}
		return f.Paused, true, nil
	case Cryptocurrency:
		return false, false, nil
	default:
		return false, false, fmt.Errorf("%w: %q", ErrInvalidType, string(d.Type))
	}
}

// Underlying returns the underlying asset address and the amount of it held
// by the token contract. ok is false for types without an underlying asset.
func (d *Detail) Underlying() (addr common.Address, balance decimal.Decimal, ok bool, err error) {
	switch d.Type {
	case Bond:
		b, err := d.Bond()
		if err != nil {
			return addr, balance, false, err
		}
		return b.UnderlyingAsset, b.UnderlyingBalance, true, nil
	case Fund:
		f, err := d.Fund()
		if err != nil {
			return addr, balance, false, err
		}
		return f.UnderlyingAsset, f.UnderlyingBalance, true, nil
	case Cryptocurrency, Stablecoin, TokenizedDeposit, Equity:
		return addr, balance, false, nil
	default:
		return addr, balance, false, fmt.Errorf("%w: %q", ErrInvalidType, string(d.Type))
	}
}
