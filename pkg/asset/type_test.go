package asset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseType(t *testing.T) {
	for in, expected := range map[string]Type{
		"bond":             Bond,
		"Cryptocurrency":   Cryptocurrency,
		" stablecoin ":     Stablecoin,
		"tokenizeddeposit": TokenizedDeposit,
		"deposit":          TokenizedDeposit,
		"EQUITY":           Equity,
		"fund":             Fund,
	} {
		t.Run(in, func(t *testing.T) {
			actual, err := ParseType(in)
			require.NoError(t, err)
			require.Equal(t, expected, actual)
		})
	}

	for _, in := range []string{"", "bonds", "nft", "token"} {
		_, err := ParseType(in)
		require.ErrorIs(t, err, ErrInvalidType, in)
	}
	require.Panics(t, func() { MustParseType("nft") })
}

func TestTypeText(t *testing.T) {
	var v struct {
		T Type `json:"t" yaml:"t"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"t":"deposit"}`), &v))
	require.Equal(t, TokenizedDeposit, v.T)
	require.ErrorIs(t, json.Unmarshal([]byte(`{"t":"nft"}`), &v), ErrInvalidType)

	require.NoError(t, yaml.Unmarshal([]byte("t: fund\n"), &v))
	require.Equal(t, Fund, v.T)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"t":"fund"}`, string(data))

	_, err = Type("nft").MarshalText()
	require.ErrorIs(t, err, ErrInvalidType)
}
