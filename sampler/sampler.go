// Package sampler implements the TCP sampler abstraction: per-connection
// named counter/gauge snapshots with explicit start/stop/delta/get state
// transitions, backed by the kernel's TCP_INFO socket option. It is
// optional — present only for TCP sessions on a platform where the
// kernel exposes these statistics — and any var whose underlying kernel
// field is unavailable degrades to "not ok" rather than failing the
// session.
package sampler

import "errors"

// Name identifies one of the kernel statistics the session coordinator
// depends on.
type Name string

// The named variables the sampler exposes.
const (
	PktsRetrans  Name = "PktsRetrans"
	CurRetxQueue Name = "CurRetxQueue"
	CurAppWQueue Name = "CurAppWQueue"
	SampleRTT    Name = "SampleRTT"
	CurCwnd      Name = "CurCwnd"
	SndUna       Name = "SndUna"
	SndNxt       Name = "SndNxt"

	// KernelMSS is read the same way as the other named variables: a
	// one-off Start/Stop/Get against the kernel's reported MSS for this
	// connection, used to compute the session's bytes-per-chunk.
	KernelMSS Name = "KernelMSS"
)

// allNames lists every Name a Connection pre-creates a Var for.
var allNames = []Name{PktsRetrans, CurRetxQueue, CurAppWQueue, SampleRTT, CurCwnd, SndUna, SndNxt, KernelMSS}

// ErrUnsupported is returned by Connect when the kernel or platform does
// not support per-socket TCP_INFO sampling; callers treat this as "the
// sampler is absent for this session", not a fatal error.
var ErrUnsupported = errors.New("sampler: TCP_INFO sampling unsupported on this connection")

// ErrBadState is returned when a Var's start/stop/delta/get transitions
// are called out of order: Fresh -> Started -> Stopped (Stopped may be
// re-entered to refresh the "after" snapshot).
var ErrBadState = errors.New("sampler: illegal state transition")

type varState int

const (
	fresh varState = iota
	started
	stoppedState
)

// snapshot is one point-in-time reading of the statistics a Connection
// tracks. ok is false for a field the kernel did not report.
type snapshot struct {
	values map[Name]uint64
	ok     map[Name]bool
}

// source is implemented per-platform: it reads a fresh snapshot of every
// named statistic from the live connection.
type source interface {
	sample() (snapshot, error)
}

// Connection is a bound sampler for one live TCP socket. It owns one Var
// per Name in allNames.
type Connection struct {
	src  source
	vars map[Name]*Var
}

// Var owns the before/after snapshots for one named statistic and
// enforces a Fresh -> Started -> Stopped state machine.
type Var struct {
	name     Name
	conn     *Connection
	state    varState
	before   uint64
	beforeOK bool
	after    uint64
	afterOK  bool
}

// Var returns the Var for name. It is always non-nil for any Name in
// allNames.
func (c *Connection) Var(name Name) *Var {
	return c.vars[name]
}

// Start takes the "before" snapshot. Legal only from the Fresh state.
func (v *Var) Start() error {
	if v.state != fresh {
		return ErrBadState
	}
	snap, err := v.conn.src.sample()
	if err != nil {
		return err
	}
	v.before, v.beforeOK = snap.values[v.name], snap.ok[v.name]
	v.state = started
	return nil
}

// Stop takes the "after" snapshot. Legal from Started or Stopped — a
// session may call Stop repeatedly to refresh "after" over the course of
// the test, as the CWND warm-up phase does.
func (v *Var) Stop() error {
	if v.state != started && v.state != stoppedState {
		return ErrBadState
	}
	snap, err := v.conn.src.sample()
	if err != nil {
		return err
	}
	v.after, v.afterOK = snap.values[v.name], snap.ok[v.name]
	v.state = stoppedState
	return nil
}

// Delta returns after-before for a counter var. Legal only once Stopped.
// ok is false if either snapshot was unavailable, or the counter appears
// to have wrapped (after < before).
func (v *Var) Delta() (value uint64, ok bool) {
	if v.state != stoppedState {
		return 0, false
	}
	if !v.beforeOK || !v.afterOK {
		return 0, false
	}
	if v.after < v.before {
		return 0, false
	}
	return v.after - v.before, true
}

// Get returns the most recent "after" snapshot for a gauge var. Legal
// only once Stopped.
func (v *Var) Get() (value uint64, ok bool) {
	if v.state != stoppedState {
		return 0, false
	}
	return v.after, v.afterOK
}

func newConnection(src source) *Connection {
	c := &Connection{src: src, vars: make(map[Name]*Var, len(allNames))}
	for _, name := range allNames {
		c.vars[name] = &Var{name: name, conn: c}
	}
	return c
}
