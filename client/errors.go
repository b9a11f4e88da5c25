package client

import "errors"

var (
	errPeerDead          = errors.New("client: zero-length read on data channel, peer died")
	errReadyTimeout      = errors.New("client: ready handshake timed out")
	errInvalidSocketType = errors.New("client: invalid socket type")
	errZeroRateStep      = errors.New("client: rate step must be > 0")
)
