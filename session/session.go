// Package session implements the server-side session coordinator: the
// per-connection state machine that negotiates a Config, stands up a data
// channel, paces a CBR traffic run, and renders a PASS/FAIL/INCONCLUSIVE
// verdict. One Coordinator.Run call handles exactly one client session,
// using no state shared with any other concurrent session except the port
// pool it is handed.
package session

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/rs/xid"

	"github.com/m-lab/mbm/clock"
	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/defaults"
	"github.com/m-lab/mbm/generator"
	"github.com/m-lab/mbm/metrics"
	"github.com/m-lab/mbm/portpool"
	"github.com/m-lab/mbm/protocol"
	"github.com/m-lab/mbm/result"
	"github.com/m-lab/mbm/sampler"
	"github.com/m-lab/mbm/stattest"
	"github.com/m-lab/mbm/telemetrylog"
)

// Options configures a Coordinator. The zero value is not directly usable;
// start from DefaultOptions.
type Options struct {
	// LogDir, if non-empty, is where per-session telemetry logs are
	// written. Empty disables logging.
	LogDir string
	// Seed seeds the traffic generator's nonce PRNG.
	Seed int64
	// ControlTimeout bounds every individual control-channel read/write
	// and the data-channel accept.
	ControlTimeout time.Duration
	// PortAcquireRetries bounds how many times a session retries
	// acquiring a fresh port after a data-listen failure.
	PortAcquireRetries int
	// LegacyBudgetFields, when true, sends the legacy max_num_pkt/
	// max_time_sec fields on the control channel right after
	// bytes_per_chunk. Both peers must agree on this setting out of
	// band (it is not itself negotiated); defaults to off, the
	// canonical variant.
	LegacyBudgetFields bool
}

// DefaultOptions returns the options a production dispatcher uses.
func DefaultOptions() Options {
	return Options{
		Seed:               defaults.Seed,
		ControlTimeout:     defaults.ControlTimeout,
		PortAcquireRetries: 3,
	}
}

// Coordinator runs sessions against a shared port pool.
type Coordinator struct {
	pool *portpool.Pool
	opts Options
}

// New constructs a Coordinator drawing data ports from pool.
func New(pool *portpool.Pool, opts Options) *Coordinator {
	return &Coordinator{pool: pool, opts: opts}
}

// Run drives one session to completion on control, an already-accepted
// control connection that Run takes ownership of (and closes before
// returning). It always returns a verdict, and makes a best-effort attempt
// to send that verdict to the peer even when the session fails early.
func (c *Coordinator) Run(ctx context.Context, control net.Conn) (verdict result.Result) {
	defer control.Close()
	id := xid.New().String()
	start := time.Now()
	verdict = result.Error

	go func() {
		<-ctx.Done()
		control.Close()
	}()

	var port uint16
	var havePort bool
	defer func() {
		if havePort {
			c.pool.Release(port)
			metrics.PortPoolInUse.Set(float64(c.pool.InUse()))
		}
		metrics.VerdictsTotal.WithLabelValues(verdict.String()).Inc()
		metrics.SessionDuration.WithLabelValues(verdict.String()).Observe(time.Since(start).Seconds())
		control.SetWriteDeadline(time.Now().Add(c.opts.ControlTimeout))
		if err := protocol.WriteResult(control, verdict); err != nil {
			log.Printf("session %s: sending verdict: %v", id, err)
		}
	}()

	control.SetReadDeadline(time.Now().Add(c.opts.ControlTimeout))
	cfg, err := protocol.ReadConfig(control)
	if err != nil {
		log.Printf("session %s: reading config: %v", id, err)
		return result.Error
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("session %s: invalid config: %v", id, err)
		return result.Error
	}
	metrics.SessionsTotal.WithLabelValues(cfg.SocketType.String()).Inc()

	listener, acquired, err := c.acquireAndListen(cfg.SocketType)
	if err != nil {
		log.Printf("session %s: %v", id, err)
		return result.Error
	}
	port, havePort = acquired, true
	metrics.PortPoolInUse.Set(float64(c.pool.InUse()))
	defer listener.Close()

	control.SetWriteDeadline(time.Now().Add(c.opts.ControlTimeout))
	if err := protocol.WritePort(control, port); err != nil {
		log.Printf("session %s: sending port: %v", id, err)
		return result.Error
	}

	data, err := listener.Accept(c.opts.ControlTimeout)
	if err != nil {
		log.Printf("session %s: accepting data connection: %v", id, err)
		return result.Error
	}
	defer data.Close()

	if err := c.readyHandshake(control, data); err != nil {
		log.Printf("session %s: ready handshake: %v", id, err)
		return result.Error
	}

	var samplerConn *sampler.Connection
	if cfg.SocketType == config.TCP {
		if raw := data.RawConn(); raw != nil {
			if sc, serr := sampler.Connect(raw); serr == nil {
				samplerConn = sc
				metrics.SamplerAvailable.WithLabelValues("true").Inc()
			} else {
				metrics.SamplerAvailable.WithLabelValues("false").Inc()
			}
		}
	}

	plan := planSession(cfg, samplerConn)

	control.SetWriteDeadline(time.Now().Add(c.opts.ControlTimeout))
	if err := protocol.WriteBytesPerChunk(control, uint32(plan.bytesPerChunk)); err != nil {
		log.Printf("session %s: sending bytes_per_chunk: %v", id, err)
		return result.Error
	}

	if c.opts.LegacyBudgetFields {
		control.SetWriteDeadline(time.Now().Add(c.opts.ControlTimeout))
		if err := protocol.WriteLegacyBudget(control, uint32(plan.maxTestPkt), plan.maxTestSec); err != nil {
			log.Printf("session %s: sending legacy budget: %v", id, err)
			return result.Error
		}
	}

	gen := generator.New(data, plan.bytesPerChunk, plan.maxCwndPkt+plan.maxTestPkt, c.opts.Seed)
	rttNS := int64(cfg.RTTMS) * 1_000_000

	if cfg.SocketType == config.TCP && samplerConn != nil {
		warmup(gen, samplerConn, plan.pipeSize, cfg.MSSBytes, plan.maxCwndPkt, rttNS)
	}

	test := stattest.New(plan.runLength)
	outcome := pacedTestLoop(gen, samplerConn, test, cfg.SocketType, plan.chunksPerSec, plan.timePerChunkNS, plan.burstSizePkt, plan.maxTestPkt)

	clock.Sleep(rttNS)
	control.SetWriteDeadline(time.Now().Add(c.opts.ControlTimeout))
	if err := protocol.WriteEnd(control); err != nil {
		log.Printf("session %s: sending end: %v", id, err)
		return result.Error
	}

	if samplerConn != nil {
		for _, n := range []sampler.Name{sampler.CurAppWQueue, sampler.CurRetxQueue, sampler.SampleRTT} {
			samplerConn.Var(n).Stop()
		}
	}

	control.SetReadDeadline(time.Now().Add(c.opts.ControlTimeout))
	telemetry, err := protocol.ReadTelemetry(control)
	if err != nil {
		log.Printf("session %s: reading client telemetry: %v", id, err)
		return result.Error
	}

	if c.opts.LogDir != "" {
		if _, werr := telemetrylog.Write(c.opts.LogDir, start.Unix(), telemetrylog.ClientData, telemetry); werr != nil {
			log.Printf("session %s: writing telemetry log: %v", id, werr)
		}
	}

	if outcome.decided {
		verdict = outcome.verdict
		return verdict
	}

	sent := gen.PacketsSent()
	var losses uint64
	if uint64(len(telemetry)) < sent {
		losses = sent - uint64(len(telemetry))
	}
	verdict = test.Result(sent, losses)
	return verdict
}

// acquireAndListen retries acquiring a port and standing up the data
// listener up to PortAcquireRetries times, since a freshly-released port
// can briefly fail to bind (e.g. TIME_WAIT).
func (c *Coordinator) acquireAndListen(socketType config.SocketType) (dataListener, uint16, error) {
	retries := c.opts.PortAcquireRetries
	if retries <= 0 {
		retries = 1
	}
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		port, err := c.pool.Acquire()
		if err != nil {
			return nil, 0, err
		}
		ln, err := listenData(socketType, port)
		if err == nil {
			return ln, port, nil
		}
		lastErr = err
		c.pool.Release(port)
	}
	return nil, 0, lastErr
}

func (c *Coordinator) readyHandshake(control net.Conn, data dataChannel) error {
	control.SetReadDeadline(time.Now().Add(c.opts.ControlTimeout))
	if err := protocol.ReadReady(control); err != nil {
		return err
	}
	readyTimeout := time.Duration(defaults.NumReadyRetrans) * c.readyWindow()
	if err := data.AwaitReady(readyTimeout); err != nil {
		return err
	}
	control.SetWriteDeadline(time.Now().Add(c.opts.ControlTimeout))
	return protocol.WriteReady(control)
}

func (c *Coordinator) readyWindow() time.Duration {
	if c.opts.ControlTimeout <= 0 {
		return defaults.ControlTimeout
	}
	return c.opts.ControlTimeout
}
