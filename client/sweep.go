package client

import (
	"context"
	"log"

	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/result"
)

// SweepOptions parameterizes a rate sweep: RTTMS and MSSBytes are held
// fixed across every rate in the sweep.
type SweepOptions struct {
	MinRateKbS  uint32
	MaxRateKbS  uint32
	RateStepKbS uint32
	RTTMS       uint32
	MSSBytes    uint32
}

// SweepResult is the outcome of a rate sweep: the verdict and rate of its
// final TCP confirmation run.
type SweepResult struct {
	Verdict result.Result
	RateKbS uint32
}

// RunSweep walks the rate from MinRateKbS to MaxRateKbS in RateStepKbS
// increments over UDP. INCONCLUSIVE rates are skipped with a warning. The
// first FAIL, or reaching the end of the range, selects rate-ratestep for
// a final TCP confirmation run, whose verdict and rate are returned.
func (d *Driver) RunSweep(ctx context.Context, serverAddr string, sw SweepOptions) (SweepResult, error) {
	if sw.RateStepKbS == 0 {
		return SweepResult{}, errZeroRateStep
	}

	confirmRate := sw.MinRateKbS
	if sw.RateStepKbS < sw.MaxRateKbS {
		confirmRate = sw.MaxRateKbS - sw.RateStepKbS
	}

	for rate := sw.MinRateKbS; rate <= sw.MaxRateKbS; rate += sw.RateStepKbS {
		cfg := config.Config{
			SocketType: config.UDP,
			CBRKbS:     rate,
			RTTMS:      sw.RTTMS,
			MSSBytes:   sw.MSSBytes,
		}
		verdict, err := d.RunOnce(ctx, serverAddr, cfg)
		if err != nil {
			return SweepResult{}, err
		}

		switch verdict {
		case result.Pass:
			confirmRate = rate
		case result.Inconclusive:
			log.Printf("sweep: rate %d kb/s inconclusive, skipping", rate)
		case result.Fail:
			if rate >= sw.RateStepKbS {
				confirmRate = rate - sw.RateStepKbS
			}
			return d.confirmTCP(ctx, serverAddr, confirmRate, sw)
		}
	}

	return d.confirmTCP(ctx, serverAddr, confirmRate, sw)
}

func (d *Driver) confirmTCP(ctx context.Context, serverAddr string, rate uint32, sw SweepOptions) (SweepResult, error) {
	cfg := config.Config{
		SocketType: config.TCP,
		CBRKbS:     rate,
		RTTMS:      sw.RTTMS,
		MSSBytes:   sw.MSSBytes,
	}
	verdict, err := d.RunOnce(ctx, serverAddr, cfg)
	if err != nil {
		return SweepResult{}, err
	}
	return SweepResult{Verdict: verdict, RateKbS: rate}, nil
}
