package session

import (
	"github.com/m-lab/mbm/clock"
	"github.com/m-lab/mbm/generator"
	"github.com/m-lab/mbm/sampler"
)

// maxWarmupSpins bounds the post-burst in-flight-estimate spin so a
// connection whose window never reports as drained cannot stall a session
// indefinitely.
const maxWarmupSpins = 1000

// warmup sends pipe-sized bursts until the congestion window has grown to
// cover one BDP, or the CWND packet budget is exhausted, then spins briefly
// waiting for the in-flight estimate to drain before the paced test loop
// starts sending at the target rate.
func warmup(gen *generator.Generator, sc *sampler.Connection, pipeSize uint64, mssBytes uint32, maxCwndPkt uint64, rttNS int64) {
	cwndVar := sc.Var(sampler.CurCwnd)
	cwndVar.Start()
	for sent := uint64(0); sent < maxCwndPkt; sent += pipeSize {
		if _, err := gen.Send(int(pipeSize)); err != nil {
			return
		}
		clock.Sleep(rttNS)
		cwndVar.Stop()
		if cwnd, ok := cwndVar.Get(); ok && cwnd >= pipeSize*uint64(mssBytes) {
			break
		}
	}

	unaVar := sc.Var(sampler.SndUna)
	nxtVar := sc.Var(sampler.SndNxt)
	unaVar.Start()
	nxtVar.Start()
	threshold := pipeSize * uint64(mssBytes) / 2
	for i := 0; i < maxWarmupSpins; i++ {
		unaVar.Stop()
		nxtVar.Stop()
		una, unaOK := unaVar.Get()
		nxt, nxtOK := nxtVar.Get()
		if !unaOK || !nxtOK {
			return
		}
		if nxt-una < threshold {
			return
		}
		clock.Sleep(1_000_000)
	}
}
