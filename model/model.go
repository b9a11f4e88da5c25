// Package model implements the pure BDP-based path model: given a target
// rate, RTT, and MSS, it derives the target pipe size (in packets) and the
// target run length the statistical tester uses as its null hypothesis.
package model

import "errors"

// MinTargetPipeSize is the floor applied to target_pipe_size so that very
// low rate/RTT/MSS combinations never collapse the model to zero packets.
const MinTargetPipeSize = 2

// ErrZeroMSS is returned when mss_bytes is zero, which would otherwise
// divide by zero in TargetPipeSize.
var ErrZeroMSS = errors.New("model: mss_bytes must be > 0")

// TargetPipeSize returns the nominal bandwidth-delay product for the given
// rate/RTT/MSS, expressed in packets of mss_bytes, clamped below at
// MinTargetPipeSize.
func TargetPipeSize(rateKbS, rttMS, mssBytes uint32) (uint64, error) {
	if mssBytes == 0 {
		return 0, ErrZeroMSS
	}
	// rate_kb_s/8 is bytes per millisecond, so rate*rtt/8 is the number of
	// bytes in flight over one RTT.
	bdpBytes := uint64(rateKbS) * uint64(rttMS) / 8
	pipe := bdpBytes / uint64(mssBytes)
	if pipe < MinTargetPipeSize {
		pipe = MinTargetPipeSize
	}
	return pipe, nil
}

// TargetRunLength returns 3*pipe^2, the expected number of packets between
// losses under the null hypothesis that the path meets its contract.
func TargetRunLength(rateKbS, rttMS, mssBytes uint32) (uint64, error) {
	pipe, err := TargetPipeSize(rateKbS, rttMS, mssBytes)
	if err != nil {
		return 0, err
	}
	return 3 * pipe * pipe, nil
}
