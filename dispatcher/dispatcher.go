// Package dispatcher implements the server-side accept loop: it owns the
// control-socket listener and the data-port pool, and spawns one session
// worker per accepted connection. The pool is the only state the workers
// share; everything else about a session lives entirely inside its own
// goroutine.
package dispatcher

import (
	"context"
	"log"
	"net"

	"github.com/m-lab/mbm/defaults"
	"github.com/m-lab/mbm/portpool"
	"github.com/m-lab/mbm/session"
)

// Dispatcher accepts control connections on a listener and runs each one
// through a session.Coordinator.
type Dispatcher struct {
	coord *session.Coordinator
	pool  *portpool.Pool
}

// New constructs a Dispatcher whose sessions draw data ports from a pool
// of size numPorts starting at basePort, using opts for every session.
func New(basePort uint16, numPorts int, opts session.Options) *Dispatcher {
	pool := portpool.New(basePort, numPorts)
	return &Dispatcher{
		coord: session.New(pool, opts),
		pool:  pool,
	}
}

// NewDefault builds a Dispatcher with the production port-pool size and
// session options.
func NewDefault() *Dispatcher {
	return New(defaults.BasePort, defaults.NumPorts, session.DefaultOptions())
}

// Serve accepts control connections on ln until ctx is canceled or Accept
// returns a non-temporary error. Each accepted connection runs in its own
// goroutine.
func (d *Dispatcher) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				continue
			}
			return err
		}
		go func() {
			verdict := d.coord.Run(ctx, conn)
			log.Printf("session from %s: %s", conn.RemoteAddr(), verdict)
		}()
	}
}

// PoolInUse reports how many data ports are currently assigned, for
// diagnostics.
func (d *Dispatcher) PoolInUse() int { return d.pool.InUse() }
