/*
Package asset contains tokenized asset records (details and balances) as they
come from the indexing layer together with the type-level capability
predicates used by the lifecycle engine.
*/
package asset

import (
	"errors"
	"fmt"
	"strings"
)

// Type is the closed category of a tokenized instrument. It is immutable per
// asset instance and selects both the detail extension and the contract
// variant used for every lifecycle action.
type Type string

// Asset types.
const (
	Bond             Type = "bond"
	Cryptocurrency   Type = "cryptocurrency"
	Stablecoin       Type = "stablecoin"
	TokenizedDeposit Type = "tokenizeddeposit"
	Equity           Type = "equity"
	Fund             Type = "fund"
)

// depositAlias is the short name some indexer versions use for
// TokenizedDeposit.
const depositAlias = "deposit"

// ErrInvalidType is returned (or panicked with) when a value outside of the
// closed Type set reaches code that has to branch on it.
var ErrInvalidType = errors.New("invalid asset type")

// Types returns all valid asset types in a stable order.
func Types() []Type {
	return []Type{Bond, Cryptocurrency, Stablecoin, TokenizedDeposit, Equity, Fund}
}

// ParseType converts a string into Type. It's case-insensitive and accepts
// "deposit" as an alias for TokenizedDeposit.
func ParseType(s string) (Type, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == depositAlias {
		return TokenizedDeposit, nil
	}
	t := Type(v)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// MustParseType is like ParseType, but panics on error.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t belongs to the closed Type set.
func (t Type) Valid() bool {
	switch t {
	case Bond, Cryptocurrency, Stablecoin, TokenizedDeposit, Equity, Fund:
		return true
	default:
		return false
	}
}

// String implements the fmt.Stringer interface.
func (t Type) String() string {
	return string(t)
}

// UnmarshalText implements the encoding.TextUnmarshaler interface, so both
// JSON and YAML decoding reject unknown types.
func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText implements the encoding.TextMarshaler interface.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
	return []byte(t), nil
}
