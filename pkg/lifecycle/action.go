/*
Package lifecycle implements the asset lifecycle-state engine: derived state
calculation, action eligibility and the explicit "active action" menu state.
Everything here is a pure function of already fetched records.
*/
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// Action is a lifecycle action identifier.
type Action string

// Lifecycle actions. This is the only place where the set is declared, the
// dispatch router must be extended together with it.
const (
	Mint             Action = "mint"
	Burn             Action = "burn"
	Pause            Action = "pause"
	Unpause          Action = "unpause"
	Mature           Action = "mature"
	UpdateCollateral Action = "update-collateral"
	TopUp            Action = "top-up"
	Withdraw         Action = "withdraw"
	GrantRole        Action = "grant-role"
	Freeze           Action = "freeze"
	Block            Action = "block"
)

// ErrUnknownAction is returned for identifiers outside of the action set.
var ErrUnknownAction = errors.New("unknown action")

var actions = []Action{Mint, Burn, Pause, Unpause, Mature, UpdateCollateral, TopUp, Withdraw, GrantRole, Freeze, Block}

// Actions returns all lifecycle actions in a stable order.
func Actions() []Action {
	res := make([]Action, len(actions))
	copy(res, actions)
	return res
}

// ParseAction converts a string into Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Valid reports whether a belongs to the action set.
func (a Action) Valid() bool {
	for _, v := range actions {
		if v == a {
			return true
		}
	}
	return false
}

// String implements the fmt.Stringer interface.
func (a Action) String() string {
	return string(a)
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (a *Action) UnmarshalText(text []byte) error {
	v, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
