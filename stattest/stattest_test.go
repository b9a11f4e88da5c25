package stattest

import (
	"math"
	"testing"

	"github.com/m-lab/mbm/result"
)

func TestZeroLossEventuallyPasses(t *testing.T) {
	const targetRunLength = 1000
	test := New(targetRunLength)

	// For n=0, zero losses should never be FAIL.
	if got := test.Result(0, 0); got == result.Fail {
		t.Errorf("Result(0,0) = FAIL, want PASS or INCONCLUSIVE")
	}

	// Find the smallest n for which zero losses passes, then verify it
	// remains PASS for all larger n (monotonic decision stability).
	var passN uint64 = 0
	found := false
	for n := uint64(0); n < 10*targetRunLength; n++ {
		if test.Result(n, 0) == result.Pass {
			passN = n
			found = true
			break
		}
	}
	if !found {
		t.Fatal("Result(n,0) never reached PASS within search bound")
	}
	for n := passN; n < passN+1000; n++ {
		if got := test.Result(n, 0); got != result.Pass {
			t.Errorf("Result(%d,0) = %v, want PASS (stability after first PASS)", n, got)
		}
	}
}

func TestEqualLossesAlwaysFail(t *testing.T) {
	test := New(1000)
	for _, n := range []uint64{0, 1, 10, 100, 100000} {
		if got := test.Result(n, n); got != result.Fail && n > 0 {
			// n=0, losses=0 is the degenerate case covered by the PASS test;
			// for n>0, a 100% loss rate must be FAIL.
			t.Errorf("Result(%d,%d) = %v, want FAIL", n, n, got)
		}
	}
}

func TestHighLossIsFail(t *testing.T) {
	test := New(1000)
	if got := test.Result(1000, 900); got != result.Fail {
		t.Errorf("Result(1000,900) = %v, want FAIL", got)
	}
}

func TestBoundariesFinite(t *testing.T) {
	test := New(1000)
	if math.IsNaN(test.h1) || math.IsInf(test.h1, 0) {
		t.Errorf("h1 is not finite: %v", test.h1)
	}
	if math.IsNaN(test.h2) || math.IsInf(test.h2, 0) {
		t.Errorf("h2 is not finite: %v", test.h2)
	}
}
