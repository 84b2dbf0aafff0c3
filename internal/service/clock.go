package service

import "time"

// SystemClock implements ports.Clock with the real time.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
