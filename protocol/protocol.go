// Package protocol implements the control-channel wire framing: the
// ordered Config / port / READY / bytes_per_chunk / END / telemetry /
// result exchange shared by the session coordinator and the client
// driver.
package protocol

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/packet"
	"github.com/m-lab/mbm/result"
)

// Ready and End are the ASCII sentinels exchanged on the control channel;
// the client also sends Ready on the data channel.
const (
	Ready = "READY"
	End   = "END"
)

// MaxTelemetryWriteBytes bounds a single telemetry write.
const MaxTelemetryWriteBytes = 500000

// ErrShortRead is returned whenever a fixed-size control message returns
// fewer bytes than expected.
var ErrShortRead = errors.New("protocol: short read on control channel")

// ErrBadSentinel is returned when a received sentinel does not match the
// expected READY/END text.
var ErrBadSentinel = errors.New("protocol: unexpected sentinel")

func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return ErrShortRead
	}
	return nil
}

// WriteConfig writes the fixed 20-byte Config record.
func WriteConfig(w io.Writer, c config.Config) error {
	buf := c.Encode()
	_, err := w.Write(buf[:])
	return err
}

// ReadConfig reads a fixed 20-byte Config record.
func ReadConfig(r io.Reader) (config.Config, error) {
	buf := make([]byte, config.Size)
	if err := readFull(r, buf); err != nil {
		return config.Config{}, err
	}
	return config.Decode(buf)
}

// WritePort writes a network-order uint16 port.
func WritePort(w io.Writer, port uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], port)
	_, err := w.Write(buf[:])
	return err
}

// ReadPort reads a network-order uint16 port.
func ReadPort(r io.Reader) (uint16, error) {
	var buf [2]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteReady writes the 5-byte "READY" sentinel.
func WriteReady(w io.Writer) error {
	_, err := io.WriteString(w, Ready)
	return err
}

// ReadReady reads and validates the 5-byte "READY" sentinel.
func ReadReady(r io.Reader) error {
	buf := make([]byte, len(Ready))
	if err := readFull(r, buf); err != nil {
		return err
	}
	if string(buf) != Ready {
		return ErrBadSentinel
	}
	return nil
}

// WriteBytesPerChunk writes a network-order uint32.
func WriteBytesPerChunk(w io.Writer, n uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

// ReadBytesPerChunk reads a network-order uint32.
func ReadBytesPerChunk(r io.Reader) (uint32, error) {
	var buf [4]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteLegacyBudget writes the legacy protocol variant's two extra u32
// fields (max_num_pkt, max_time_sec). Only used when both peers are
// configured for the legacy variant.
func WriteLegacyBudget(w io.Writer, maxNumPkt, maxTimeSec uint32) error {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], maxNumPkt)
	binary.BigEndian.PutUint32(buf[4:8], maxTimeSec)
	_, err := w.Write(buf[:])
	return err
}

// ReadLegacyBudget reads the legacy protocol variant's two extra u32
// fields.
func ReadLegacyBudget(r io.Reader) (maxNumPkt, maxTimeSec uint32, err error) {
	buf := make([]byte, 8)
	if err := readFull(r, buf); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint32(buf[0:4]), binary.BigEndian.Uint32(buf[4:8]), nil
}

// WriteEnd writes the 3-byte "END" sentinel.
func WriteEnd(w io.Writer) error {
	_, err := io.WriteString(w, End)
	return err
}

// ReadEnd reads and validates the 3-byte "END" sentinel.
func ReadEnd(r io.Reader) error {
	buf := make([]byte, len(End))
	if err := readFull(r, buf); err != nil {
		return err
	}
	if string(buf) != End {
		return ErrBadSentinel
	}
	return nil
}

// WriteResult writes the verdict as a network-order uint32.
func WriteResult(w io.Writer, res result.Result) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(res))
	_, err := w.Write(buf[:])
	return err
}

// ReadResult reads the verdict as a network-order uint32.
func ReadResult(r io.Reader) (result.Result, error) {
	var buf [4]byte
	if err := readFull(r, buf[:]); err != nil {
		return result.Error, err
	}
	return result.Result(binary.BigEndian.Uint32(buf[:])), nil
}

// WriteTelemetry writes a u32 count followed by count*16 bytes of
// TrafficData, splitting the payload into writes no larger than
// MaxTelemetryWriteBytes.
func WriteTelemetry(w io.Writer, data []packet.TrafficData) error {
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(data)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}

	payload := make([]byte, 0, len(data)*packet.TrafficDataSize)
	for _, d := range data {
		enc := d.Encode()
		payload = append(payload, enc[:]...)
	}

	for len(payload) > 0 {
		n := len(payload)
		if n > MaxTelemetryWriteBytes {
			n = MaxTelemetryWriteBytes
		}
		if _, err := w.Write(payload[:n]); err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

// ReadTelemetry reads a u32 count, then count*16 bytes of TrafficData,
// possibly across multiple underlying reads.
func ReadTelemetry(r io.Reader) ([]packet.TrafficData, error) {
	var countBuf [4]byte
	if err := readFull(r, countBuf[:]); err != nil {
		return nil, err
	}
	count := binary.BigEndian.Uint32(countBuf[:])

	payload := make([]byte, int(count)*packet.TrafficDataSize)
	if err := readFull(r, payload); err != nil {
		return nil, err
	}

	out := make([]packet.TrafficData, 0, count)
	for i := 0; i < int(count); i++ {
		d, err := packet.Decode(payload[i*packet.TrafficDataSize : (i+1)*packet.TrafficDataSize])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
