// Package config defines the per-session Config record exchanged
// bit-exactly between client and server: a single canonical fixed-layout
// record negotiated once at the start of every session.
package config

import (
	"encoding/binary"
	"errors"
)

// SocketType selects the transport the session runs over.
type SocketType uint32

// The two supported transports.
const (
	TCP SocketType = iota
	UDP
)

func (s SocketType) String() string {
	switch s {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	default:
		return "unknown"
	}
}

// Size is the fixed wire size of a Config record: five little-endian
// uint32 fields.
const Size = 20

// Config is the set of per-session parameters negotiated at the start of
// every test. It is immutable after construction.
type Config struct {
	SocketType SocketType
	CBRKbS     uint32
	RTTMS      uint32
	MSSBytes   uint32
	BurstSize  uint32
}

// ErrInvalid is returned by Validate for a Config that cannot be run.
var ErrInvalid = errors.New("config: invalid configuration")

// Validate checks the invariants a well-formed Config must satisfy: a
// positive rate and a non-zero MSS (the model package divides by it).
func (c Config) Validate() error {
	if c.CBRKbS == 0 {
		return ErrInvalid
	}
	if c.MSSBytes == 0 {
		return ErrInvalid
	}
	if c.SocketType != TCP && c.SocketType != UDP {
		return ErrInvalid
	}
	return nil
}

// Encode serializes c as the fixed 20-byte little-endian record.
func (c Config) Encode() [Size]byte {
	var buf [Size]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(c.SocketType))
	binary.LittleEndian.PutUint32(buf[4:8], c.CBRKbS)
	binary.LittleEndian.PutUint32(buf[8:12], c.RTTMS)
	binary.LittleEndian.PutUint32(buf[12:16], c.MSSBytes)
	binary.LittleEndian.PutUint32(buf[16:20], c.BurstSize)
	return buf
}

// Decode parses a 20-byte little-endian Config record.
func Decode(buf []byte) (Config, error) {
	if len(buf) < Size {
		return Config{}, errors.New("config: short Config buffer")
	}
	return Config{
		SocketType: SocketType(binary.LittleEndian.Uint32(buf[0:4])),
		CBRKbS:     binary.LittleEndian.Uint32(buf[4:8]),
		RTTMS:      binary.LittleEndian.Uint32(buf[8:12]),
		MSSBytes:   binary.LittleEndian.Uint32(buf[12:16]),
		BurstSize:  binary.LittleEndian.Uint32(buf[16:20]),
	}, nil
}
