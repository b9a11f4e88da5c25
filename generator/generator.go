// Package generator implements the paced traffic generator: it stamps a
// sequence number and nonce into each chunk, writes it to the data
// socket, and records the send timestamp for later telemetry correlation.
package generator

import (
	"errors"
	"io"
	"math/rand"

	"github.com/m-lab/mbm/clock"
	"github.com/m-lab/mbm/packet"
)

// ErrSendFailed wraps a short write on the data channel.
var ErrSendFailed = errors.New("generator: partial write to data channel")

// Generator owns the per-packet nonce/timestamp history and cumulative
// counters for one session's data channel.
type Generator struct {
	w             io.Writer
	bytesPerChunk int
	rng           *rand.Rand

	nonces         []uint32
	timestamps     []uint64
	packetsSent    uint64
	totalBytesSent uint64
}

// New constructs a Generator that writes bytesPerChunk-sized chunks to w,
// pre-allocating history slots for up to maxPackets sends. seed seeds the
// per-packet nonce generator, so a fixed seed gives reproducible runs.
func New(w io.Writer, bytesPerChunk int, maxPackets uint64, seed int64) *Generator {
	return &Generator{
		w:             w,
		bytesPerChunk: bytesPerChunk,
		rng:           rand.New(rand.NewSource(seed)),
		nonces:        make([]uint32, 0, maxPackets),
		timestamps:    make([]uint64, 0, maxPackets),
	}
}

// PacketsSent returns the cumulative count of packets successfully sent.
func (g *Generator) PacketsSent() uint64 { return g.packetsSent }

// TotalBytesSent returns the cumulative byte count of successful sends.
func (g *Generator) TotalBytesSent() uint64 { return g.totalBytesSent }

// Nonces returns the nonce recorded for every packet sent so far, in
// sequence-number order.
func (g *Generator) Nonces() []uint32 { return g.nonces }

// Timestamps returns the send timestamp (monotonic ns) recorded for every
// packet sent so far, in sequence-number order.
func (g *Generator) Timestamps() []uint64 { return g.timestamps }

// Send builds and emits n chunks, stamping sequence numbers contiguously
// from the current packetsSent, and a fresh random nonce into each. It
// stops at the first short write, returning ErrSendFailed with the number
// of bytes actually transferred in this call.
func (g *Generator) Send(n int) (bytesSent int, err error) {
	for i := 0; i < n; i++ {
		seqNo := uint32(g.packetsSent)
		nonce := g.rng.Uint32()

		chunk, buildErr := packet.BuildChunk(seqNo, nonce, g.bytesPerChunk)
		if buildErr != nil {
			return bytesSent, buildErr
		}

		ts := clock.NowNS()
		written, writeErr := g.w.Write(chunk)
		bytesSent += written
		if writeErr != nil {
			return bytesSent, ErrSendFailed
		}
		if written != len(chunk) {
			return bytesSent, ErrSendFailed
		}

		g.nonces = append(g.nonces, nonce)
		g.timestamps = append(g.timestamps, ts)
		g.packetsSent++
		g.totalBytesSent += uint64(written)
	}
	return bytesSent, nil
}
