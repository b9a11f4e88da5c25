package session

import "errors"

var errUnknownSocketType = errors.New("session: unknown socket type")
