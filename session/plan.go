package session

import (
	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/defaults"
	"github.com/m-lab/mbm/model"
	"github.com/m-lab/mbm/sampler"
)

// sessionPlan holds every derived constant the coordinator computes once
// from a negotiated Config, before the paced test loop starts.
type sessionPlan struct {
	bytesPerChunk  int
	chunksPerSec   uint64
	timePerChunkNS int64
	burstSizePkt   uint64
	pipeSize       uint64
	runLength      uint64
	maxCwndPkt     uint64
	maxTestPkt     uint64
	maxTestSec     uint32
}

// planSession derives the per-session pacing and test-budget constants
// from cfg. When samplerConn reports a kernel MSS smaller than the
// negotiated MSS, the smaller value is used for bytesPerChunk so chunks
// never exceed what the kernel will actually segment them as.
func planSession(cfg config.Config, samplerConn *sampler.Connection) sessionPlan {
	mss := cfg.MSSBytes
	if samplerConn != nil {
		v := samplerConn.Var(sampler.KernelMSS)
		v.Start()
		v.Stop()
		if kmss, ok := v.Get(); ok && kmss > 0 && uint32(kmss) < mss {
			mss = uint32(kmss)
		}
	}

	bytesPerChunk := int(mss)
	bytesPerSec := uint64(cfg.CBRKbS) * 1000 / 8
	chunksPerSec := bytesPerSec / uint64(bytesPerChunk)
	if chunksPerSec == 0 {
		chunksPerSec = 1
	}
	timePerChunkNS := int64(defaults.NSPerSec) / int64(chunksPerSec)

	burstSizePkt := uint64(1)
	if timePerChunkNS > 0 {
		if b := ceilDiv(defaults.BurstWakeMinNS, uint64(timePerChunkNS)); b > burstSizePkt {
			burstSizePkt = b
		}
	}

	pipeSize, _ := model.TargetPipeSize(cfg.CBRKbS, cfg.RTTMS, mss)
	runLength, _ := model.TargetRunLength(cfg.CBRKbS, cfg.RTTMS, mss)

	mb := float64(cfg.CBRKbS) / 1000.0
	maxCwndPkt := uint64((defaults.CWNDBaseSec + defaults.CWNDIncrSecPerMB*mb) * float64(chunksPerSec))
	if cap := uint64(defaults.CWNDMaxSec * float64(chunksPerSec)); maxCwndPkt > cap {
		maxCwndPkt = cap
	}

	testSec := defaults.TestBaseSec + defaults.TestIncrSecPerMB*mb
	if testSec > defaults.TestMaxSec {
		testSec = defaults.TestMaxSec
	}
	maxTestPkt := uint64(testSec * float64(chunksPerSec))

	return sessionPlan{
		bytesPerChunk:  bytesPerChunk,
		chunksPerSec:   chunksPerSec,
		timePerChunkNS: timePerChunkNS,
		burstSizePkt:   burstSizePkt,
		pipeSize:       pipeSize,
		runLength:      runLength,
		maxCwndPkt:     maxCwndPkt,
		maxTestPkt:     maxTestPkt,
		maxTestSec:     uint32(testSec),
	}
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
