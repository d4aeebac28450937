package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicService_GetAddresses(t *testing.T) {
	s := BasicService{Addresses: []string{"localhost:10332", ":0", "localhost:10332"}}
	require.Equal(t, []string{"localhost:10332", ":0"}, s.GetAddresses())
	require.Empty(t, BasicService{}.GetAddresses())
}
