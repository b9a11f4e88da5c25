package session

import (
	"github.com/m-lab/mbm/clock"
	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/generator"
	"github.com/m-lab/mbm/metrics"
	"github.com/m-lab/mbm/result"
	"github.com/m-lab/mbm/sampler"
	"github.com/m-lab/mbm/stattest"
)

// pacedOutcome reports how the paced test loop ended.
type pacedOutcome struct {
	// verdict is meaningful only if decided is true.
	verdict result.Result
	// decided is true when the loop already rendered a final verdict (a
	// PASS or FAIL from the live TCP sampler, an ERROR on a failed send,
	// or an INCONCLUSIVE pacing abort); in that case the caller must not
	// also score the final telemetry.
	decided bool
}

// pacedTestLoop sends maxTestPkt packets (beyond any the generator already
// sent during warm-up) at chunksPerSec, burstSizePkt at a time, sleeping between bursts to hold the target rate. When a sampler is
// available on a TCP session, it checks the Wald test after every
// chunks_per_sec boundary and returns as soon as a PASS or FAIL is decided.
// If the loop falls behind schedule by more than half of the elapsed time,
// it aborts early with INCONCLUSIVE rather than reporting a result biased
// by a pacing failure.
func pacedTestLoop(gen *generator.Generator, sc *sampler.Connection, test stattest.Test, socketType config.SocketType, chunksPerSec uint64, timePerChunkNS int64, burstSizePkt, maxTestPkt uint64) pacedOutcome {
	t0 := clock.NowNS()
	base := gen.PacketsSent()

	var retransVar *sampler.Var
	trackLossLive := socketType == config.TCP && sc != nil
	if trackLossLive {
		retransVar = sc.Var(sampler.PktsRetrans)
		retransVar.Start()
	}

	var missedTotal uint64

	for gen.PacketsSent()-base < maxTestPkt {
		n := burstSizePkt
		if remaining := maxTestPkt - (gen.PacketsSent() - base); remaining < n {
			n = remaining
		}
		if _, err := gen.Send(int(n)); err != nil {
			return pacedOutcome{verdict: result.Error, decided: true}
		}

		sent := gen.PacketsSent() - base
		if trackLossLive && chunksPerSec > 0 && sent%chunksPerSec < n {
			retransVar.Stop()
			if loss, ok := retransVar.Delta(); ok {
				if v := test.Result(sent, loss); v != result.Inconclusive {
					return pacedOutcome{verdict: v, decided: true}
				}
			}
		}

		nextStart := int64(t0) + int64(sent)*timePerChunkNS
		now := int64(clock.NowNS())
		sleepNS := nextStart - now
		if sleepNS > 0 {
			clock.Sleep(sleepNS)
			continue
		}

		miss := uint64(-sleepNS)
		metrics.PacingSleepMissHistogram.Observe(float64(miss))
		missedTotal += miss
		elapsed := uint64(now) - t0
		if elapsed > 0 && missedTotal > elapsed/2 {
			return pacedOutcome{verdict: result.Inconclusive, decided: true}
		}
	}

	return pacedOutcome{}
}
