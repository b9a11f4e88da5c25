// Package client implements the client-side driver: it negotiates a
// session with a server dispatcher, receives a paced chunk stream on the
// data channel, and reports the server's verdict. It also implements rate
// sweep mode, which repeats single runs across a rate range to find the
// breaking point of a path.
package client

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m-lab/mbm/clock"
	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/defaults"
	"github.com/m-lab/mbm/packet"
	"github.com/m-lab/mbm/protocol"
	"github.com/m-lab/mbm/result"
	"github.com/m-lab/mbm/telemetrylog"
)

// Options configures a Driver.
type Options struct {
	// ControlTimeout bounds every control-channel read/write and the
	// initial dial.
	ControlTimeout time.Duration
	// LogDir, if non-empty, is where per-run telemetry logs are written.
	LogDir string
	// LegacyBudgetFields must match the server's setting: when true, the
	// client reads the legacy max_num_pkt/max_time_sec fields right
	// after bytes_per_chunk. The client doesn't use the values for
	// anything (the server enforces its own budget and signals
	// completion with END); it only drains them so the control stream
	// stays framed correctly against a legacy-mode server.
	LegacyBudgetFields bool
}

// DefaultOptions returns the options the mbm_client binary uses.
func DefaultOptions() Options {
	return Options{ControlTimeout: defaults.ControlTimeout}
}

// Driver runs measurement sessions against a server dispatcher.
type Driver struct {
	opts Options
}

// New constructs a Driver.
func New(opts Options) *Driver {
	return &Driver{opts: opts}
}

// RunOnce executes one end-to-end session against serverAddr (host:port of
// the server's control listener) using cfg, and returns the server's
// verdict.
func (d *Driver) RunOnce(ctx context.Context, serverAddr string, cfg config.Config) (result.Result, error) {
	control, err := net.DialTimeout("tcp", serverAddr, d.opts.ControlTimeout)
	if err != nil {
		return result.Error, err
	}
	defer control.Close()

	go func() {
		<-ctx.Done()
		control.Close()
	}()

	control.SetWriteDeadline(time.Now().Add(d.opts.ControlTimeout))
	if err := protocol.WriteConfig(control, cfg); err != nil {
		return result.Error, err
	}

	control.SetReadDeadline(time.Now().Add(d.opts.ControlTimeout))
	port, err := protocol.ReadPort(control)
	if err != nil {
		return result.Error, err
	}

	dataConn, err := d.dialData(serverAddr, cfg.SocketType, port)
	if err != nil {
		return result.Error, err
	}
	defer dataConn.Close()

	rttNS := int64(cfg.RTTMS) * 1_000_000
	if err := d.readyHandshake(control, dataConn, cfg.SocketType, rttNS); err != nil {
		return result.Error, err
	}

	control.SetReadDeadline(time.Now().Add(d.opts.ControlTimeout))
	bytesPerChunk, err := protocol.ReadBytesPerChunk(control)
	if err != nil {
		return result.Error, err
	}

	if d.opts.LegacyBudgetFields {
		control.SetReadDeadline(time.Now().Add(d.opts.ControlTimeout))
		if _, _, err := protocol.ReadLegacyBudget(control); err != nil {
			return result.Error, err
		}
	}

	samples, err := d.runDataPhase(ctx, control, dataConn, bytesPerChunk)
	if err != nil {
		return result.Error, err
	}

	if d.opts.LogDir != "" {
		telemetrylog.Write(d.opts.LogDir, time.Now().Unix(), telemetrylog.ClientData, samples)
	}

	control.SetWriteDeadline(time.Now().Add(d.opts.ControlTimeout))
	if err := protocol.WriteTelemetry(control, samples); err != nil {
		return result.Error, err
	}

	control.SetReadDeadline(time.Now().Add(d.opts.ControlTimeout))
	verdict, err := protocol.ReadResult(control)
	if err != nil {
		return result.Error, err
	}
	return verdict, nil
}

func (d *Driver) dialData(serverAddr string, socketType config.SocketType, port uint16) (net.Conn, error) {
	host, _, err := net.SplitHostPort(serverAddr)
	if err != nil {
		return nil, err
	}
	dataAddr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	switch socketType {
	case config.TCP:
		return net.DialTimeout("tcp", dataAddr, d.opts.ControlTimeout)
	case config.UDP:
		return net.Dial("udp", dataAddr)
	default:
		return nil, errInvalidSocketType
	}
}

// readyHandshake sends READY on control, then READY on data; on UDP the
// data-channel send is repeated with a 3*rtt timeout per attempt since a
// datagram may be lost, bounded by NUM_READY_RETRANS attempts.
func (d *Driver) readyHandshake(control, data net.Conn, socketType config.SocketType, rttNS int64) error {
	if err := protocol.WriteReady(control); err != nil {
		return err
	}

	if socketType == config.TCP {
		if err := protocol.WriteReady(data); err != nil {
			return err
		}
		control.SetReadDeadline(time.Now().Add(d.opts.ControlTimeout))
		return protocol.ReadReady(control)
	}

	timeout := 3 * time.Duration(rttNS)
	if timeout <= 0 {
		timeout = d.opts.ControlTimeout
	}
	for attempt := 0; attempt < defaults.NumReadyRetrans; attempt++ {
		if err := protocol.WriteReady(data); err != nil {
			return err
		}
		control.SetReadDeadline(time.Now().Add(timeout))
		if err := protocol.ReadReady(control); err == nil {
			return nil
		}
	}
	return errReadyTimeout
}

// runDataPhase implements the wait-on-two-channels receive loop: one
// goroutine drains the data channel recording (seq_no, nonce, now_ns) per
// chunk, the other waits for the control channel's END sentinel. Either
// goroutine returning stops the other by canceling ctx, which forces the
// blocked Read on both channels to return.
func (d *Driver) runDataPhase(ctx context.Context, control, data net.Conn, bytesPerChunk uint32) ([]packet.TrafficData, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		control.SetReadDeadline(time.Now())
		data.SetReadDeadline(time.Now())
	}()

	var samples []packet.TrafficData
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		buf := make([]byte, bytesPerChunk)
		for {
			_, err := io.ReadFull(data, buf)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					return errPeerDead
				}
				return err
			}
			seqNo, nonce, perr := packet.ParseChunkHeader(buf)
			if perr != nil {
				continue
			}
			samples = append(samples, packet.TrafficData{SeqNo: seqNo, Nonce: nonce, Timestamp: clock.NowNS()})
		}
	})

	g.Go(func() error {
		if err := protocol.ReadEnd(control); err != nil {
			return err
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}
