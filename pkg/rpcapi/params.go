package rpcapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/dispatch"
	"github.com/assetkit/assetkit/pkg/lifecycle"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// Params represents the JSON-RPC params.
	Params []Param

	// Param represents a param either passed to the server or to be sent to
	// a server using the client.
	Param struct {
		json.RawMessage
	}
)

var errMissingParameter = errors.New("parameter is missing")

// Value returns the param struct for the given index if it exists.
func (p Params) Value(index int) *Param {
	if len(p) > index {
		return &p[index]
	}
	return nil
}

func (p Params) String() string {
	raw := make([]string, len(p))
	for i := range p {
		raw[i] = string(p[i].RawMessage)
	}
	return "[" + strings.Join(raw, ", ") + "]"
}

// IsNull returns whether the parameter represents JSON nil value.
func (p *Param) IsNull() bool {
	return p == nil || len(p.RawMessage) == 0 || string(p.RawMessage) == "null"
}

// GetString returns string value of the parameter.
func (p *Param) GetString() (string, error) {
	if p == nil {
		return "", errMissingParameter
	}
	var s string
	if err := json.Unmarshal(p.RawMessage, &s); err != nil {
		return "", fmt.Errorf("not a string: %w", err)
	}
	return s, nil
}

// GetAddress returns account or contract address from the parameter.
func (p *Param) GetAddress() (common.Address, error) {
	s, err := p.GetString()
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("bad address %q", s)
	}
	return common.HexToAddress(s), nil
}

// GetType returns asset type from the parameter.
func (p *Param) GetType() (asset.Type, error) {
	s, err := p.GetString()
	if err != nil {
		return "", err
	}
	return asset.ParseType(s)
}

// GetAction returns lifecycle action from the parameter.
func (p *Param) GetAction() (lifecycle.Action, error) {
	s, err := p.GetString()
	if err != nil {
		return "", err
	}
	return lifecycle.ParseAction(s)
}

// GetActionParams returns action parameters object from the parameter. Null
// gives empty parameters.
func (p *Param) GetActionParams() (dispatch.Params, error) {
	if p.IsNull() {
		return dispatch.Params{}, nil
	}
	var ps dispatch.Params
	if err := json.Unmarshal(p.RawMessage, &ps); err != nil {
		return nil, fmt.Errorf("action params must be an object of strings: %w", err)
	}
	return ps, nil
}
