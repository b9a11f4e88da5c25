//go:build !linux

package clock

import "time"

// sleep uses the standard library on non-Linux platforms; the Go runtime
// already resumes time.Sleep transparently across signal interruptions.
func sleep(d time.Duration) {
	time.Sleep(d)
}
