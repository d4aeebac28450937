// Package assettest contains asset fixtures shared by tests.
package assettest

import (
	"time"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Well-known accounts used by fixtures.
var (
	Creator    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	Manager    = common.HexToAddress("0x2000000000000000000000000000000000000002")
	Holder     = common.HexToAddress("0x3000000000000000000000000000000000000003")
	Stranger   = common.HexToAddress("0x4000000000000000000000000000000000000004")
	Underlying = common.HexToAddress("0x5000000000000000000000000000000000000005")

	BondID       = common.HexToAddress("0xb000000000000000000000000000000000000001")
	StablecoinID = common.HexToAddress("0xb000000000000000000000000000000000000002")
	DepositID    = common.HexToAddress("0xb000000000000000000000000000000000000003")
	EquityID     = common.HexToAddress("0xb000000000000000000000000000000000000004")
	FundID       = common.HexToAddress("0xb000000000000000000000000000000000000005")
	CryptoID     = common.HexToAddress("0xb000000000000000000000000000000000000006")
)

// Now is the reference time used by fixtures.
var Now = time.Unix(1700000000, 0).UTC()

// Dec is a shortcut for decimal.NewFromInt.
func Dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func base(t asset.Type, id common.Address, symbol string, supply int64) asset.Detail {
	return asset.Detail{
		Type:          t,
		ID:            id,
		Name:          symbol + " token",
		Symbol:        symbol,
		Decimals:      18,
		Creator:       Creator,
		TotalSupply:   Dec(supply),
		DeployedOn:    Now.Add(-30 * 24 * time.Hour),
		Concentration: decimal.RequireFromString("0.12345"),
	}
}

// Bond returns an unmatured, unpaused bond with sufficient underlying and no
// maturity date.
func Bond(supply, cap int64) *asset.Detail {
	d := base(asset.Bond, BondID, "BND", supply)
	d.Extension = &asset.BondDetails{
		Cap:                        Dec(cap),
		FaceValue:                  Dec(100),
		UnderlyingAsset:            Underlying,
		UnderlyingBalance:          Dec(150),
		UnderlyingBalanceExact:     uint256.NewInt(150),
		TotalUnderlyingNeeded:      Dec(200),
		TotalUnderlyingNeededExact: uint256.NewInt(200),
		HasSufficientUnderlying:    true,
	}
	return &d
}

// Collateral returns a collateral-backed asset of type t (Stablecoin or
// TokenizedDeposit) with a valid proof.
func Collateral(t asset.Type, supply int64) *asset.Detail {
	id, sym := StablecoinID, "USDX"
	if t == asset.TokenizedDeposit {
		id, sym = DepositID, "DEP"
	}
	d := base(t, id, sym, supply)
	validity := Now.Add(time.Hour)
	d.Extension = &asset.CollateralDetails{
		Collateral:              Dec(supply + 500),
		CollateralRatio:         Dec(100),
		CollateralProofValidity: &validity,
		Liveness:                24 * time.Hour,
		FreeCollateral:          Dec(500),
	}
	return &d
}

// Equity returns an unpaused equity with a price.
func Equity(supply int64) *asset.Detail {
	d := base(asset.Equity, EquityID, "EQT", supply)
	price := decimal.RequireFromString("12.5")
	d.Price = &price
	d.Extension = &asset.EquityDetails{ValueInBaseCurrency: price, Class: "common", Category: "tech"}
	return &d
}

// Fund returns an unpaused fund with an underlying asset.
func Fund(supply int64) *asset.Detail {
	d := base(asset.Fund, FundID, "FND", supply)
	d.Extension = &asset.FundDetails{
		ValueInBaseCurrency: Dec(10),
		UnderlyingAsset:     Underlying,
		UnderlyingBalance:   Dec(40),
		ManagementFeeBps:    100,
	}
	return &d
}

// Cryptocurrency returns a cryptocurrency.
func Cryptocurrency(supply int64) *asset.Detail {
	d := base(asset.Cryptocurrency, CryptoID, "CRY", supply)
	d.Extension = &asset.CryptocurrencyDetails{InitialSupply: Dec(supply)}
	return &d
}

// Balance returns a valid balance of acc.
func Balance(acc common.Address, value, frozen int64, blocked bool) *asset.Balance {
	b, err := asset.NewBalance(acc, Dec(value), Dec(frozen), blocked)
	if err != nil {
		panic(err)
	}
	return b
}
