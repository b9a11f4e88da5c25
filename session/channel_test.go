package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/protocol"
)

func TestListenDataTCPAcceptAndReady(t *testing.T) {
	ln, err := listenData(config.TCP, 0)
	require.NoError(t, err)
	defer ln.Close()

	tl := ln.(*tcpListener)
	addr := tl.ln.Addr().(*net.TCPAddr)

	done := make(chan error, 1)
	go func() {
		conn, err := net.Dial("tcp", addr.String())
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		done <- protocol.WriteReady(conn)
	}()

	data, err := ln.Accept(time.Second)
	require.NoError(t, err)
	defer data.Close()

	assert.NotNil(t, data.RawConn(), "RawConn() for a TCP data channel")
	require.NoError(t, data.AwaitReady(time.Second))
	require.NoError(t, <-done)
}

func TestListenDataUDPReadyCarriesRemoteAddr(t *testing.T) {
	ln, err := listenData(config.UDP, 0)
	require.NoError(t, err)
	defer ln.Close()

	ul := ln.(*udpListener)
	addr := ul.conn.LocalAddr().(*net.UDPAddr)

	client, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- protocol.WriteReady(client)
	}()

	data, err := ln.Accept(time.Second)
	require.NoError(t, err)

	assert.Nil(t, data.RawConn(), "RawConn() for a UDP data channel")
	require.NoError(t, data.AwaitReady(time.Second))
	require.NoError(t, <-done)

	// The channel should now be able to write back to the client.
	_, err = data.Write([]byte("hello"))
	assert.NoError(t, err, "Write after AwaitReady")
}

func TestListenDataUnknownSocketType(t *testing.T) {
	_, err := listenData(config.SocketType(99), 0)
	assert.Equal(t, errUnknownSocketType, err)
}
