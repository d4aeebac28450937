package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationConfigurationEquals(t *testing.T) {
	a := &ApplicationConfiguration{}
	o := &ApplicationConfiguration{}
	require.True(t, a.EqualsButServices(o))
	require.True(t, o.EqualsButServices(a))

	o.RPC.Enabled = true
	require.True(t, a.EqualsButServices(o))
	o.Features.MiCA = true
	require.False(t, a.EqualsButServices(o))
}
