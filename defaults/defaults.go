// Package defaults centralizes the named constants shared by the
// dispatcher, session coordinator, and client driver so there is exactly
// one place that defines them.
package defaults

import "time"

const (
	// BasePort is the first port in the data-port pool.
	BasePort = 12345
	// NumPorts is the size of the data-port pool.
	NumPorts = 100

	// NSPerSec is the number of nanoseconds in a second.
	NSPerSec = 1_000_000_000
	// MSPerSec is the number of milliseconds in a second.
	MSPerSec = 1_000

	// Seed is the default PRNG seed for reproducible nonce generation.
	Seed = 132315

	// TestBaseSec and TestIncrSecPerMB compute the test-loop packet
	// budget: TestBaseSec + TestIncrSecPerMB*(cbr_kb_s/1000) seconds,
	// capped at TestMaxSec.
	TestBaseSec      = 30
	TestIncrSecPerMB = 15
	TestMaxSec       = 300

	// CWNDBaseSec and CWNDIncrSecPerMB compute the warm-up packet budget
	// the same way, capped at CWNDMaxSec.
	CWNDBaseSec      = 15
	CWNDIncrSecPerMB = 5
	CWNDMaxSec       = 50

	// NumReadyRetrans bounds the client's READY handshake retry loop on
	// UDP sessions.
	NumReadyRetrans = 5

	// ControlTimeout is the default send/receive timeout applied to both
	// the control and data sockets.
	ControlTimeout = 5 * time.Second

	// BurstWakeMinNS is the minimum target time between pacing wakeups;
	// burst_size_pkt is chosen so each wake covers at least this long.
	BurstWakeMinNS = 500_000
)
