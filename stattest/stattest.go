// Package stattest implements the Wald sequential probability ratio test
// (SPRT) the session coordinator uses to decide PASS/FAIL/INCONCLUSIVE.
package stattest

import (
	"math"

	"github.com/m-lab/mbm/result"
)

// Default Type I and Type II error rates.
const (
	DefaultTypeIErr  = 0.05
	DefaultTypeIIErr = 0.05
)

// Test is an immutable, precomputed SPRT boundary set. A Test is created
// once per session from the model's target run length and is safe to call
// Result on repeatedly and concurrently: it holds no mutable state.
type Test struct {
	h1, h2, s float64
}

// New constructs a Test with the default Type I/II error rates.
func New(targetRunLength uint64) Test {
	t, _ := NewWithErrors(targetRunLength, DefaultTypeIErr, DefaultTypeIIErr)
	return t
}

// NewWithErrors constructs a Test with explicit Type I (alpha) and Type II
// (beta) error rates.
func NewWithErrors(targetRunLength uint64, alpha, beta float64) (Test, error) {
	p0 := 1.0 / float64(targetRunLength)
	p1 := math.Min(1.0/(float64(targetRunLength)/4.0), 0.99)
	k := math.Log(p1 * (1 - p0) / (p0 * (1 - p1)))
	s := math.Log((1-p0)/(1-p1)) / k
	h1 := math.Log((1-alpha)/beta) / k
	h2 := math.Log((1-beta)/alpha) / k
	return Test{h1: h1, h2: h2, s: s}, nil
}

// Result returns PASS, FAIL, or INCONCLUSIVE for the observed (n, losses)
// pair against the Wald boundaries:
//
//	PASS   if losses <= -h1 + s*n
//	FAIL   if losses >=  h2 + s*n
//	INCONCLUSIVE otherwise
func (t Test) Result(n, losses uint64) result.Result {
	xa := -t.h1 + t.s*float64(n)
	xb := t.h2 + t.s*float64(n)
	lossF := float64(losses)
	if lossF <= xa {
		return result.Pass
	}
	if lossF >= xb {
		return result.Fail
	}
	return result.Inconclusive
}
