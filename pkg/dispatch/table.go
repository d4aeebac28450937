package dispatch

import (
	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/lifecycle"
)

// variants lists contract variants and the actions each of them implements.
var variants = []struct {
	t       asset.Type
	prefix  string
	actions []lifecycle.Action
}{
	{asset.Bond, "Bond", []lifecycle.Action{
		lifecycle.Mint, lifecycle.Burn, lifecycle.Pause, lifecycle.Unpause, lifecycle.Mature,
		lifecycle.TopUp, lifecycle.Withdraw, lifecycle.GrantRole, lifecycle.Freeze, lifecycle.Block,
	}},
	{asset.Cryptocurrency, "CryptoCurrency", []lifecycle.Action{
		lifecycle.Mint, lifecycle.Burn, lifecycle.GrantRole,
	}},
	{asset.Stablecoin, "StableCoin", []lifecycle.Action{
		lifecycle.Mint, lifecycle.Burn, lifecycle.Pause, lifecycle.Unpause, lifecycle.UpdateCollateral,
		lifecycle.GrantRole, lifecycle.Freeze, lifecycle.Block,
	}},
	{asset.TokenizedDeposit, "TokenizedDeposit", []lifecycle.Action{
		lifecycle.Mint, lifecycle.Burn, lifecycle.Pause, lifecycle.Unpause, lifecycle.UpdateCollateral,
		lifecycle.GrantRole, lifecycle.Freeze,
	}},
	{asset.Equity, "Equity", []lifecycle.Action{
		lifecycle.Mint, lifecycle.Burn, lifecycle.Pause, lifecycle.Unpause,
		lifecycle.GrantRole, lifecycle.Freeze, lifecycle.Block,
	}},
	{asset.Fund, "Fund", []lifecycle.Action{
		lifecycle.Mint, lifecycle.Burn, lifecycle.Pause, lifecycle.Unpause,
		lifecycle.TopUp, lifecycle.Withdraw, lifecycle.GrantRole, lifecycle.Freeze, lifecycle.Block,
	}},
}

type actionSpec struct {
	suffix string
	schema *Schema
	build  func(Values) (string, []Arg)
}

var (
	mintSchema = &Schema{Name: "mint", Fields: []Field{
		{Name: "to", Kind: KindAddress, Required: true, Holder: true},
		{Name: "amount", Kind: KindAmount, Required: true, Bounded: true},
	}}
	burnSchema = &Schema{Name: "burn", Fields: []Field{
		{Name: "amount", Kind: KindAmount, Required: true, Bounded: true},
		{Name: "from", Kind: KindAddress, Holder: true},
	}}
	emptySchema            = &Schema{Name: "confirm"}
	updateCollateralSchema = &Schema{Name: "update-collateral", Fields: []Field{
		{Name: "amount", Kind: KindAmount, Required: true},
	}}
	topUpSchema = &Schema{Name: "top-up", Fields: []Field{
		{Name: "amount", Kind: KindAmount, Required: true},
	}}
	withdrawSchema = &Schema{Name: "withdraw", Fields: []Field{
		{Name: "to", Kind: KindAddress, Required: true},
		{Name: "amount", Kind: KindAmount, Required: true, Bounded: true},
	}}
	grantRoleSchema = &Schema{Name: "grant-role", Fields: []Field{
		{Name: "account", Kind: KindAddress, Required: true},
		{Name: "role", Kind: KindRole, Required: true},
	}}
	freezeSchema = &Schema{Name: "freeze", Fields: []Field{
		{Name: "user", Kind: KindAddress, Required: true, Holder: true},
		{Name: "amount", Kind: KindAmount, Required: true, Bounded: true},
	}}
	blockSchema = &Schema{Name: "block", Fields: []Field{
		{Name: "user", Kind: KindAddress, Required: true},
	}}
)

var actionSpecs = map[lifecycle.Action]actionSpec{
	lifecycle.Mint: {"Mint", mintSchema, func(v Values) (string, []Arg) {
		return "mint", []Arg{addressArg(v, "to"), amountArg(v, "amount")}
	}},
	lifecycle.Burn: {"Burn", burnSchema, func(v Values) (string, []Arg) {
		if _, ok := v.Address("from"); ok {
			return "burnFrom", []Arg{addressArg(v, "from"), amountArg(v, "amount")}
		}
		return "burn", []Arg{amountArg(v, "amount")}
	}},
	lifecycle.Pause: {"Pause", emptySchema, func(Values) (string, []Arg) {
		return "pause", nil
	}},
	lifecycle.Unpause: {"Unpause", emptySchema, func(Values) (string, []Arg) {
		return "unpause", nil
	}},
	lifecycle.Mature: {"Mature", emptySchema, func(Values) (string, []Arg) {
		return "mature", nil
	}},
	lifecycle.UpdateCollateral: {"UpdateCollateral", updateCollateralSchema, func(v Values) (string, []Arg) {
		return "updateCollateral", []Arg{amountArg(v, "amount")}
	}},
	lifecycle.TopUp: {"TopUpUnderlyingAsset", topUpSchema, func(v Values) (string, []Arg) {
		return "topUpUnderlyingAsset", []Arg{amountArg(v, "amount")}
	}},
	lifecycle.Withdraw: {"WithdrawUnderlyingAsset", withdrawSchema, func(v Values) (string, []Arg) {
		return "withdrawUnderlyingAsset", []Arg{addressArg(v, "to"), amountArg(v, "amount")}
	}},
	lifecycle.GrantRole: {"GrantRole", grantRoleSchema, func(v Values) (string, []Arg) {
		r, _ := v.Role("role")
		return "grantRole", []Arg{
			{Name: "role", Type: "bytes32", Value: r.ContractRole()},
			addressArg(v, "account"),
		}
	}},
	lifecycle.Freeze: {"Freeze", freezeSchema, func(v Values) (string, []Arg) {
		return "freeze", []Arg{addressArg(v, "user"), amountArg(v, "amount")}
	}},
	lifecycle.Block: {"BlockUser", blockSchema, func(v Values) (string, []Arg) {
		return "blockUser", []Arg{addressArg(v, "user")}
	}},
}

func addressArg(v Values, name string) Arg {
	a, _ := v.Address(name)
	return Arg{Name: name, Type: "address", Value: a.Hex()}
}

func amountArg(v Values, name string) Arg {
	u, _ := v.Units(name)
	return Arg{Name: name, Type: "uint256", Value: u.ToBig().String()}
}
