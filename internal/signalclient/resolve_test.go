package signalclient

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferIPv4(t *testing.T) {
	ip, err := preferIPv4([]string{"::1", "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)

	ip, err = preferIPv4([]string{"::1"})
	require.NoError(t, err)
	assert.Equal(t, "::1", ip)

	_, err = preferIPv4(nil)
	assert.ErrorIs(t, err, errNoAddresses)
}

func TestTrimBrackets(t *testing.T) {
	assert.Equal(t, "2606:4700:4700::1111", trimBrackets("[2606:4700:4700::1111]"))
	assert.Equal(t, "1.1.1.1", trimBrackets("1.1.1.1"))
}

func TestDialContextIPLiteral(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	conn, err := dialContext(context.Background(), "tcp", ln.Addr().String())
	require.NoError(t, err)
	conn.Close()
}

func TestDialContextBadAddress(t *testing.T) {
	_, err := dialContext(context.Background(), "tcp", "missing-port")
	assert.Error(t, err)
}
