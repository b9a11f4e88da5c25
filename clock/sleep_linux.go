package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// sleep calls nanosleep directly and resumes on EINTR with the remaining
// time.
func sleep(d time.Duration) {
	req := unix.NsecToTimespec(d.Nanoseconds())
	for {
		rem := req
		err := unix.Nanosleep(&req, &rem)
		if err == nil {
			return
		}
		if err == unix.EINTR {
			req = rem
			continue
		}
		// Unrecoverable: fall back to the standard library so a
		// session never hangs on an unexpected sleeper error.
		time.Sleep(time.Duration(unix.TimespecToNsec(req)))
		return
	}
}
