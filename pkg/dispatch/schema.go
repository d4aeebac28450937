package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ErrInvalidParam is returned when action parameters don't match the schema.
var ErrInvalidParam = errors.New("invalid parameter")

// Kind is a parameter value kind.
type Kind string

// Parameter kinds.
const (
	KindAddress Kind = "address"
	KindAmount  Kind = "amount"
	KindRole    Kind = "role"
)

// Field describes a single action parameter.
type Field struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Required bool   `json:"required"`
	// Bounded amounts are checked against the action eligibility bound.
	Bounded bool `json:"bounded,omitempty"`
	// Holder marks the account the action operates on, eligibility must be
	// evaluated for it. An optional holder field defaults to the actor.
	Holder bool `json:"holder,omitempty"`
}

// Schema is a set of fields accepted by some action form.
type Schema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Params are raw action parameters as entered by the user.
type Params map[string]string

// Values are validated action parameters, every value is either
// common.Address, Amount or Role depending on field Kind.
type Values map[string]interface{}

// Amount is a validated token amount.
type Amount struct {
	// Tokens is the amount in whole tokens as entered.
	Tokens decimal.Decimal
	// Units is Tokens scaled by 10^decimals of the asset.
	Units *uint256.Int
}

// ToUnits converts token amount d into base units of an asset with the given
// number of decimals. Fractions below the smallest unit are rejected.
func ToUnits(d decimal.Decimal, decimals uint8) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %s is negative", d)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", d, decimals)
	}
	u, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("amount %s doesn't fit into uint256", d)
	}
	return u, nil
}

// Address returns the address value of the named field.
func (v Values) Address(name string) (common.Address, bool) {
	a, ok := v[name].(common.Address)
	return a, ok
}

// Amount returns the amount of the named field in tokens.
func (v Values) Amount(name string) (decimal.Decimal, bool) {
	a, ok := v[name].(Amount)
	return a.Tokens, ok
}

// Units returns the amount of the named field in base units.
func (v Values) Units(name string) (*uint256.Int, bool) {
	a, ok := v[name].(Amount)
	return a.Units, ok
}

// Role returns the role value of the named field.
func (v Values) Role(name string) (Role, bool) {
	r, ok := v[name].(Role)
	return r, ok
}

// BoundedAmount returns the value of the bounded amount field if the schema
// has one.
func (s *Schema) BoundedAmount(v Values) (decimal.Decimal, bool) {
	for _, f := range s.Fields {
		if f.Bounded {
			return v.Amount(f.Name)
		}
	}
	return decimal.Decimal{}, false
}

// HolderAccount returns the account the action operates on if the schema has
// a holder field.
func (s *Schema) HolderAccount(v Values, actor common.Address) (common.Address, bool) {
	for _, f := range s.Fields {
		if !f.Holder {
			continue
		}
		if a, ok := v.Address(f.Name); ok {
			return a, true
		}
		return actor, true
	}
	return common.Address{}, false
}

// Validate parses p according to the schema. Amounts are checked against the
// given number of asset decimals. Unknown parameters are rejected.
func (s *Schema) Validate(p Params, decimals uint8) (Values, error) {
	known := make(map[string]Field, len(s.Fields))
	for _, f := range s.Fields {
		known[f.Name] = f
	}
	var unknown []string
	for name := range p {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) != 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unexpected %s for %s", ErrInvalidParam, strings.Join(unknown, ", "), s.Name)
	}

	res := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		raw, ok := p[f.Name]
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			if f.Required {
				return nil, fmt.Errorf("%w: %s is required", ErrInvalidParam, f.Name)
			}
			continue
		}
		v, err := f.parse(raw, decimals)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParam, f.Name, err)
		}
		res[f.Name] = v
	}
	return res, nil
}

func (f Field) parse(raw string, decimals uint8) (interface{}, error) {
	switch f.Kind {
	case KindAddress:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("bad address %q", raw)
		}
		a := common.HexToAddress(raw)
		if a == (common.Address{}) {
			return nil, errors.New("zero address")
		}
		return a, nil
	case KindAmount:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("amount %s is not positive", d)
		}
		u, err := ToUnits(d, decimals)
		if err != nil {
			return nil, err
		}
		return Amount{Tokens: d, Units: u}, nil
	case KindRole:
		return ParseRole(raw)
	default:
		return nil, fmt.Errorf("unknown field kind %q", f.Kind)
	}
}
