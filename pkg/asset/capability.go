package asset

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// RegulationChecker is the regulation registry as seen by HasMiCA.
type RegulationChecker interface {
	MiCAEnabled(ctx context.Context, asset common.Address) (bool, error)
}

// Capabilities is a set of type-level flags used to decide which sections and
// actions exist for an asset at all.
type Capabilities struct {
	Allowlist       bool `json:"allowlist"`
	Blocklist       bool `json:"blocklist"`
	Collateral      bool `json:"collateral"`
	Freeze          bool `json:"freeze"`
	Pausable        bool `json:"pausable"`
	UnderlyingAsset bool `json:"underlyingAsset"`
	Yield           bool `json:"yield"`
	// MiCA is filled in separately, see HasMiCA.
	MiCA bool `json:"mica"`
}

// CapabilitiesOf returns synchronous capability flags for t. MiCA is always
// false here.
func CapabilitiesOf(t Type) Capabilities {
	return Capabilities{
		Allowlist:       HasAllowlist(t),
		Blocklist:       HasBlocklist(t),
		Collateral:      HasCollateral(t),
		Freeze:          HasFreeze(t),
		Pausable:        IsPausable(t),
		UnderlyingAsset: HasUnderlyingAsset(t),
		Yield:           HasYield(t),
	}
}

// HasBlocklist is true for every type except Cryptocurrency and
// TokenizedDeposit (the latter uses an allowlist instead).
func HasBlocklist(t Type) bool {
	switch t {
	case Cryptocurrency, TokenizedDeposit:
		return false
	default:
		return t.Valid()
	}
}

// HasAllowlist is true for TokenizedDeposit only.
func HasAllowlist(t Type) bool {
	return t == TokenizedDeposit
}

// HasUnderlyingAsset is true for types redeemable against or backed by an
// underlying token.
func HasUnderlyingAsset(t Type) bool {
	return t == Bond || t == Fund
}

// HasYield is true for Bond only.
func HasYield(t Type) bool {
	return t == Bond
}

// HasFreeze is true for every type except Cryptocurrency.
func HasFreeze(t Type) bool {
	return t != Cryptocurrency && t.Valid()
}

// HasCollateral is true for collateral-backed types.
func HasCollateral(t Type) bool {
	return t == Stablecoin || t == TokenizedDeposit
}

// IsPausable is true for types whose contract carries a paused flag.
func IsPausable(t Type) bool {
	return t != Cryptocurrency && t.Valid()
}

// HasMiCA checks whether MiCA regulation applies to the asset. Feature flag
// and type are checked first, the registry is only queried when both pass.
func HasMiCA(ctx context.Context, featureEnabled bool, t Type, id common.Address, rc RegulationChecker) (bool, error) {
	if !featureEnabled {
		return false, nil
	}
	if t != TokenizedDeposit && t != Stablecoin {
		return false, nil
	}
	if rc == nil {
		return false, nil
	}
	return rc.MiCAEnabled(ctx, id)
}
