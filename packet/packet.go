// Package packet implements the fixed-layout TrafficData wire record and
// the chunk encoding used on the data channel: the first eight bytes of
// every emitted chunk carry htonl(seq_no) and htonl(nonce) in network byte
// order.
package packet

import (
	"encoding/binary"
	"errors"
)

// TrafficDataSize is the on-wire size of a TrafficData record: four
// network-order uint32 fields.
const TrafficDataSize = 16

// NSPerSec is the number of nanoseconds in a second, used to split a
// monotonic nanosecond timestamp into (sec, nsec_remainder) for the wire.
const NSPerSec = 1_000_000_000

// ErrBadNanos is returned when decoding a TrafficData record whose
// nsec_remainder field is not a valid sub-second remainder.
var ErrBadNanos = errors.New("packet: nsec_remainder >= 1e9")

// TrafficData is one data-channel telemetry record: the sequence number
// and nonce the server stamped into a chunk, and the timestamp (monotonic
// nanoseconds) at which an event (send or receive) was observed.
type TrafficData struct {
	SeqNo     uint32
	Nonce     uint32
	Timestamp uint64 // nanoseconds; sec*1e9 + nsec_remainder on the wire
}

// Encode serializes d as the 16-byte network-order wire record.
func (d TrafficData) Encode() [TrafficDataSize]byte {
	var buf [TrafficDataSize]byte
	sec := uint32(d.Timestamp / NSPerSec)
	rem := uint32(d.Timestamp % NSPerSec)
	binary.BigEndian.PutUint32(buf[0:4], d.SeqNo)
	binary.BigEndian.PutUint32(buf[4:8], d.Nonce)
	binary.BigEndian.PutUint32(buf[8:12], sec)
	binary.BigEndian.PutUint32(buf[12:16], rem)
	return buf
}

// Decode parses a 16-byte network-order wire record. It validates that the
// nsec_remainder field is a legal sub-second value.
func Decode(buf []byte) (TrafficData, error) {
	if len(buf) < TrafficDataSize {
		return TrafficData{}, errors.New("packet: short TrafficData buffer")
	}
	seqNo := binary.BigEndian.Uint32(buf[0:4])
	nonce := binary.BigEndian.Uint32(buf[4:8])
	sec := binary.BigEndian.Uint32(buf[8:12])
	rem := binary.BigEndian.Uint32(buf[12:16])
	if rem >= NSPerSec {
		return TrafficData{}, ErrBadNanos
	}
	return TrafficData{
		SeqNo:     seqNo,
		Nonce:     nonce,
		Timestamp: uint64(sec)*NSPerSec + uint64(rem),
	}, nil
}

// BuildChunk returns a chunk of exactly size bytes whose first four bytes
// are htonl(seqNo), next four are htonl(nonce), and remainder is opaque
// filler (zeroed). size must be >= 8.
func BuildChunk(seqNo, nonce uint32, size int) ([]byte, error) {
	if size < 8 {
		return nil, errors.New("packet: chunk size must be >= 8")
	}
	chunk := make([]byte, size)
	binary.BigEndian.PutUint32(chunk[0:4], seqNo)
	binary.BigEndian.PutUint32(chunk[4:8], nonce)
	return chunk, nil
}

// ParseChunkHeader extracts (seqNo, nonce) from the first eight bytes of a
// received chunk.
func ParseChunkHeader(chunk []byte) (seqNo, nonce uint32, err error) {
	if len(chunk) < 8 {
		return 0, 0, errors.New("packet: chunk shorter than header")
	}
	return binary.BigEndian.Uint32(chunk[0:4]), binary.BigEndian.Uint32(chunk[4:8]), nil
}
