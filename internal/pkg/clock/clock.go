package clock

import "time"

// Clocker is the time source used across the service. Code under test swaps
// in a fixed implementation so expiry and TTL math stays deterministic.
type Clocker interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// New returns the wall-clock implementation.
func New() *System {
	return &System{}
}

func (*System) Now() time.Time {
	return time.Now()
}
