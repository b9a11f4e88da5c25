//go:build !linux

package sampler

import "net"

// Connect always reports the sampler unsupported on non-Linux platforms,
// so sessions on these platforms degrade to UDP-style loss accounting.
func Connect(conn net.Conn) (*Connection, error) {
	return nil, ErrUnsupported
}
