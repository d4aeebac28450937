package asset

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Balance is a holding of some account in some asset.
type Balance struct {
	Account common.Address  `json:"account"`
	Value   decimal.Decimal `json:"value"`
	// Frozen is the part of Value that can't be moved, Frozen <= Value.
	Frozen decimal.Decimal `json:"frozen"`
	// Available is Value - Frozen, it's the ceiling for holder-level burns.
	Available decimal.Decimal `json:"available"`
	Blocked   bool            `json:"blocked"`
}

// NewBalance creates a Balance computing Available from value and frozen.
func NewBalance(acc common.Address, value, frozen decimal.Decimal, blocked bool) (*Balance, error) {
	b := &Balance{
		Account:   acc,
		Value:     value,
		Frozen:    frozen,
		Available: value.Sub(frozen),
		Blocked:   blocked,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks balance invariants.
func (b *Balance) Validate() error {
	if b.Value.IsNegative() || b.Frozen.IsNegative() {
		return errors.New("negative balance")
	}
	if b.Frozen.GreaterThan(b.Value) {
		return fmt.Errorf("frozen amount %s exceeds balance %s", b.Frozen, b.Value)
	}
	if !b.Available.Equal(b.Value.Sub(b.Frozen)) {
		return fmt.Errorf("available amount %s doesn't match balance %s minus frozen %s", b.Available, b.Value, b.Frozen)
	}
	return nil
}

// IsSupplyManager reports whether acc is among managers.
func IsSupplyManager(managers []common.Address, acc common.Address) bool {
	for _, m := range managers {
		if m == acc {
			return true
		}
	}
	return false
}
