/*
Package dispatch maps asset types and lifecycle actions to the contract
mutation and the parameter schema that implement them. It's the only place
where action wiring depends on the asset type.
*/
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/lifecycle"
	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsupported is returned for (type, action) pairs missing from the table.
var ErrUnsupported = errors.New("unsupported asset type/action")

// Arg is a single contract call argument in its canonical string form.
type Arg struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Call is a prepared contract invocation ready to be signed and submitted by
// a wallet.
type Call struct {
	Contract common.Address `json:"contract"`
	// Mutation is the type-specific mutation name.
	Mutation string `json:"mutation"`
	Method   string `json:"method"`
	Args     []Arg  `json:"args"`
}

// Mutation builds contract calls for a single (type, action) pair.
type Mutation struct {
	Name  string
	build func(Values) (method string, args []Arg)
}

// Call creates a contract call from validated values.
func (m Mutation) Call(contract common.Address, v Values) Call {
	method, args := m.build(v)
	return Call{Contract: contract, Mutation: m.Name, Method: method, Args: args}
}

// MarshalJSON implements the json.Marshaler interface, mutation is
// represented by its name.
func (m Mutation) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Name)
}

// Route is a (mutation, schema) pair resolved for some type and action.
type Route struct {
	Type     asset.Type       `json:"type"`
	Action   lifecycle.Action `json:"action"`
	Mutation Mutation         `json:"mutation"`
	Schema   *Schema          `json:"schema"`
}

// Subject is what some eligibility was evaluated for.
type Subject struct {
	Contract common.Address
	Decimals uint8
	Actor    common.Address
	// Holder is the evaluated holder account, nil for asset-level
	// eligibility.
	Holder *common.Address
}

// Prepare validates p against the route schema and e (which must be the
// current eligibility of the route action evaluated for s) and builds the
// call. Calls operating on an account other than s.Holder are refused.
func (r Route) Prepare(s Subject, e lifecycle.Eligibility, p Params) (Call, error) {
	if e.Action != r.Action {
		return Call{}, fmt.Errorf("eligibility of %s used for %s", e.Action, r.Action)
	}
	if err := e.Check(); err != nil {
		return Call{}, err
	}
	v, err := r.Schema.Validate(p, s.Decimals)
	if err != nil {
		return Call{}, err
	}
	if acc, ok := r.Schema.HolderAccount(v, s.Actor); ok {
		if s.Holder == nil {
			return Call{}, fmt.Errorf("%w: %s: %s is not the evaluated holder", lifecycle.ErrNotEligible, r.Action, acc.Hex())
		}
		if *s.Holder != acc {
			return Call{}, fmt.Errorf("%w: %s: evaluated for %s, not %s", lifecycle.ErrNotEligible, r.Action, s.Holder.Hex(), acc.Hex())
		}
	}
	if amount, ok := r.Schema.BoundedAmount(v); ok {
		if err := e.CheckAmount(amount); err != nil {
			return Call{}, err
		}
	}
	call := r.Mutation.Call(s.Contract, v)
	if e.Target != nil {
		call.Args = append(call.Args, Arg{Name: "underlyingAsset", Type: "address", Value: e.Target.Hex()})
	}
	return call, nil
}

type routeKey struct {
	t asset.Type
	a lifecycle.Action
}

// Router resolves routes.
type Router struct {
	routes map[routeKey]Route
}

// NewRouter creates a Router with the standard route table.
func NewRouter() *Router {
	r := &Router{routes: make(map[routeKey]Route)}
	for _, v := range variants {
		for _, a := range v.actions {
			spec, ok := actionSpecs[a]
			if !ok {
				panic(fmt.Sprintf("no mutation for %s", a))
			}
			r.routes[routeKey{v.t, a}] = Route{
				Type:   v.t,
				Action: a,
				Mutation: Mutation{
					Name:  v.prefix + spec.suffix,
					build: spec.build,
				},
				Schema: spec.schema,
			}
		}
	}
	return r
}

// Resolve returns the route for t and a.
func (r *Router) Resolve(t asset.Type, a lifecycle.Action) (Route, error) {
	if !t.Valid() {
		return Route{}, fmt.Errorf("%w: %q", asset.ErrInvalidType, string(t))
	}
	route, ok := r.routes[routeKey{t, a}]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s/%s", ErrUnsupported, t, a)
	}
	return route, nil
}

// ResolveEligible resolves the route for a only if a is enabled in es.
func (r *Router) ResolveEligible(t asset.Type, es lifecycle.Eligibilities, a lifecycle.Action) (Route, lifecycle.Eligibility, error) {
	e, err := es.Require(a)
	if err != nil {
		return Route{}, lifecycle.Eligibility{}, err
	}
	route, err := r.Resolve(t, a)
	if err != nil {
		return Route{}, lifecycle.Eligibility{}, err
	}
	return route, e, nil
}

// Routes returns routes for every enabled action in es.
func (r *Router) Routes(t asset.Type, es lifecycle.Eligibilities) ([]Route, error) {
	enabled := es.Enabled()
	res := make([]Route, 0, len(enabled))
	for _, a := range enabled {
		route, err := r.Resolve(t, a)
		if err != nil {
			return nil, err
		}
		res = append(res, route)
	}
	return res, nil
}
