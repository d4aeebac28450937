package snapshot

import (
	"fmt"
	"math/big"
	"time"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type (
	document struct {
		Assets   []assetRecord               `json:"assets" yaml:"assets"`
		Balances []balanceRecord             `json:"balances" yaml:"balances"`
		Roles    map[string][]common.Address `json:"roles" yaml:"roles"`
	}

	// assetRecord is a flat asset record, the set of meaningful fields
	// depends on Type.
	assetRecord struct {
		Type          asset.Type       `json:"type" yaml:"type"`
		ID            common.Address   `json:"id" yaml:"id"`
		Name          string           `json:"name" yaml:"name"`
		Symbol        string           `json:"symbol" yaml:"symbol"`
		Decimals      uint8            `json:"decimals" yaml:"decimals"`
		Creator       common.Address   `json:"creator" yaml:"creator"`
		TotalSupply   decimal.Decimal  `json:"totalSupply" yaml:"totalSupply"`
		DeployedOn    time.Time        `json:"deployedOn" yaml:"deployedOn"`
		Concentration decimal.Decimal  `json:"concentration" yaml:"concentration"`
		Price         *decimal.Decimal `json:"price,omitempty" yaml:"price,omitempty"`
		Paused        bool             `json:"paused,omitempty" yaml:"paused,omitempty"`

		// Bond.
		Cap                        decimal.Decimal `json:"cap" yaml:"cap"`
		IsMatured                  bool            `json:"isMatured" yaml:"isMatured"`
		MaturityDate               *time.Time      `json:"maturityDate,omitempty" yaml:"maturityDate,omitempty"`
		FaceValue                  decimal.Decimal `json:"faceValue" yaml:"faceValue"`
		UnderlyingBalanceExact     string          `json:"underlyingBalanceExact" yaml:"underlyingBalanceExact"`
		TotalUnderlyingNeeded      decimal.Decimal `json:"totalUnderlyingNeeded" yaml:"totalUnderlyingNeeded"`
		TotalUnderlyingNeededExact string          `json:"totalUnderlyingNeededExact" yaml:"totalUnderlyingNeededExact"`
		// HasSufficientUnderlying is computed from exact amounts when omitted.
		HasSufficientUnderlying *bool           `json:"hasSufficientUnderlying,omitempty" yaml:"hasSufficientUnderlying,omitempty"`
		RedeemedAmount          decimal.Decimal `json:"redeemedAmount" yaml:"redeemedAmount"`

		// Bond and Fund.
		UnderlyingAsset   common.Address  `json:"underlyingAsset" yaml:"underlyingAsset"`
		UnderlyingBalance decimal.Decimal `json:"underlyingBalance" yaml:"underlyingBalance"`

		// Stablecoin and TokenizedDeposit.
		Collateral              decimal.Decimal `json:"collateral" yaml:"collateral"`
		CollateralRatio         decimal.Decimal `json:"collateralRatio" yaml:"collateralRatio"`
		CollateralProofValidity *time.Time      `json:"collateralProofValidity,omitempty" yaml:"collateralProofValidity,omitempty"`
		Liveness                string          `json:"liveness" yaml:"liveness"`
		FreeCollateral          decimal.Decimal `json:"freeCollateral" yaml:"freeCollateral"`

		// Equity and Fund.
		ValueInBaseCurrency decimal.Decimal `json:"valueInBaseCurrency" yaml:"valueInBaseCurrency"`
		Class               string          `json:"class" yaml:"class"`
		Category            string          `json:"category" yaml:"category"`
		ManagementFeeBps    uint16          `json:"managementFeeBps" yaml:"managementFeeBps"`

		// Cryptocurrency.
		InitialSupply decimal.Decimal `json:"initialSupply" yaml:"initialSupply"`
	}

	balanceRecord struct {
		Asset   common.Address  `json:"asset" yaml:"asset"`
		Account common.Address  `json:"account" yaml:"account"`
		Value   decimal.Decimal `json:"value" yaml:"value"`
		Frozen  decimal.Decimal `json:"frozen" yaml:"frozen"`
		Blocked bool            `json:"blocked" yaml:"blocked"`
	}
)

func (r assetRecord) detail() (*asset.Detail, error) {
	t, err := asset.ParseType(string(r.Type))
	if err != nil {
		return nil, err
	}
	d := &asset.Detail{
		Type:          t,
		ID:            r.ID,
		Name:          r.Name,
		Symbol:        r.Symbol,
		Decimals:      r.Decimals,
		Creator:       r.Creator,
		TotalSupply:   r.TotalSupply,
		DeployedOn:    r.DeployedOn,
		Concentration: r.Concentration,
		Price:         r.Price,
	}
	switch t {
	case asset.Bond:
		ext, err := r.bond()
		if err != nil {
			return nil, err
		}
		d.Extension = ext
	case asset.Stablecoin, asset.TokenizedDeposit:
		var liveness time.Duration
		if r.Liveness != "" {
			liveness, err = time.ParseDuration(r.Liveness)
			if err != nil {
				return nil, fmt.Errorf("bad liveness: %w", err)
			}
		}
		d.Extension = &asset.CollateralDetails{
			Collateral:              r.Collateral,
			CollateralRatio:         r.CollateralRatio,
			CollateralProofValidity: r.CollateralProofValidity,
			Liveness:                liveness,
			FreeCollateral:          r.FreeCollateral,
			Paused:                  r.Paused,
		}
	case asset.Equity:
		d.Extension = &asset.EquityDetails{
			ValueInBaseCurrency: r.ValueInBaseCurrency,
			Class:               r.Class,
			Category:            r.Category,
			Paused:              r.Paused,
		}
	case asset.Fund:
		d.Extension = &asset.FundDetails{
			ValueInBaseCurrency: r.ValueInBaseCurrency,
			UnderlyingAsset:     r.UnderlyingAsset,
			UnderlyingBalance:   r.UnderlyingBalance,
			ManagementFeeBps:    r.ManagementFeeBps,
			Paused:              r.Paused,
		}
	case asset.Cryptocurrency:
		if r.Paused {
			return nil, fmt.Errorf("%s can't be paused", t)
		}
		d.Extension = &asset.CryptocurrencyDetails{InitialSupply: r.InitialSupply}
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("asset %s: %w", r.ID, err)
	}
	return d, nil
}

func (r assetRecord) bond() (*asset.BondDetails, error) {
	balance, err := parseUint256(r.UnderlyingBalanceExact)
	if err != nil {
		return nil, fmt.Errorf("underlyingBalanceExact: %w", err)
	}
	needed, err := parseUint256(r.TotalUnderlyingNeededExact)
	if err != nil {
		return nil, fmt.Errorf("totalUnderlyingNeededExact: %w", err)
	}
	sufficient := !balance.Lt(needed)
	if r.HasSufficientUnderlying != nil {
		sufficient = *r.HasSufficientUnderlying
	}
	return &asset.BondDetails{
		Cap:                        r.Cap,
		IsMatured:                  r.IsMatured,
		MaturityDate:               r.MaturityDate,
		FaceValue:                  r.FaceValue,
		UnderlyingAsset:            r.UnderlyingAsset,
		UnderlyingBalance:          r.UnderlyingBalance,
		UnderlyingBalanceExact:     balance,
		TotalUnderlyingNeeded:      r.TotalUnderlyingNeeded,
		TotalUnderlyingNeededExact: needed,
		HasSufficientUnderlying:    sufficient,
		RedeemedAmount:             r.RedeemedAmount,
		Paused:                     r.Paused,
	}, nil
}

// parseUint256 parses a decimal or 0x-prefixed hex integer, empty string is 0.
func parseUint256(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	b, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("bad integer %q", s)
	}
	if b.Sign() < 0 {
		return nil, fmt.Errorf("negative integer %q", s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("integer %q overflows 256 bits", s)
	}
	return v, nil
}
