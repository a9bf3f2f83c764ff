package kernel

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPv4ToKeyNetworkByteOrder(t *testing.T) {
	key, ok := ipv4ToKey(net.ParseIP("1.1.1.1"))
	require.True(t, ok)
	require.Equal(t, uint32(0x01010101), key)

	key, ok = ipv4ToKey(net.ParseIP("192.168.1.1"))
	require.True(t, ok)
	require.Equal(t, uint32(0xC0A80101), key)
}

func TestIPv4ToKeyRejectsIPv6(t *testing.T) {
	_, ok := ipv4ToKey(net.ParseIP("::1"))
	require.False(t, ok)
}
