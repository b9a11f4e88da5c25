package session

import (
	"net"
	"time"

	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/protocol"
)

// dataChannel abstracts the TCP-vs-UDP difference in how the data
// channel is accepted and written to, so the rest of the coordinator can
// treat both transports uniformly.
type dataChannel interface {
	Write(p []byte) (int, error)
	Close() error
	// AwaitReady blocks until the client's READY arrives on this channel.
	AwaitReady(timeout time.Duration) error
	// RawConn returns the underlying *net.TCPConn for sampler attachment,
	// or nil for a UDP channel (the sampler is TCP-only).
	RawConn() net.Conn
}

// dataListener abstracts TCP accept vs UDP's connectionless "accept".
type dataListener interface {
	Accept(timeout time.Duration) (dataChannel, error)
	Close() error
}

func listenData(socketType config.SocketType, port uint16) (dataListener, error) {
	switch socketType {
	case config.TCP:
		ln, err := net.Listen("tcp", portAddr(port))
		if err != nil {
			return nil, err
		}
		return &tcpListener{ln: ln.(*net.TCPListener)}, nil
	case config.UDP:
		addr := &net.UDPAddr{Port: int(port)}
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			return nil, err
		}
		return &udpListener{conn: conn}, nil
	default:
		return nil, errUnknownSocketType
	}
}

func portAddr(port uint16) string {
	return ":" + itoa(int(port))
}

// itoa avoids pulling in strconv just for this one call site's style; kept
// trivial and allocation-light.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [6]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

type tcpListener struct {
	ln *net.TCPListener
}

func (t *tcpListener) Accept(timeout time.Duration) (dataChannel, error) {
	if err := t.ln.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	conn, err := t.ln.Accept()
	if err != nil {
		return nil, err
	}
	return &tcpDataChannel{conn: conn.(*net.TCPConn)}, nil
}

func (t *tcpListener) Close() error { return t.ln.Close() }

type tcpDataChannel struct {
	conn *net.TCPConn
}

func (t *tcpDataChannel) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *tcpDataChannel) Close() error                { return t.conn.Close() }
func (t *tcpDataChannel) RawConn() net.Conn           { return t.conn }

func (t *tcpDataChannel) AwaitReady(timeout time.Duration) error {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return protocol.ReadReady(t.conn)
}

type udpListener struct {
	conn *net.UDPConn
}

func (u *udpListener) Accept(timeout time.Duration) (dataChannel, error) {
	// UDP has no accept step separate from the READY datagram; the
	// channel's remote address is filled in by AwaitReady.
	return &udpDataChannel{conn: u.conn}, nil
}

func (u *udpListener) Close() error { return u.conn.Close() }

type udpDataChannel struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
}

func (u *udpDataChannel) Write(p []byte) (int, error) {
	return u.conn.WriteToUDP(p, u.remote)
}

func (u *udpDataChannel) Close() error      { return nil } // listener owns the socket
func (u *udpDataChannel) RawConn() net.Conn { return nil }

func (u *udpDataChannel) AwaitReady(timeout time.Duration) error {
	if err := u.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	buf := make([]byte, len(protocol.Ready))
	n, addr, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		return err
	}
	if string(buf[:n]) != protocol.Ready {
		return protocol.ErrBadSentinel
	}
	u.remote = addr
	return nil
}
