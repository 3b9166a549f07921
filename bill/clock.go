package bill

import "time"

// =============================================================================
// CLOCK - Wall-clock and calendar rules, injectable for tests
// =============================================================================

// Clock supplies current time and the location used for date arithmetic
// and reminder trigger times.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// SystemClock uses the host's wall clock and local timezone.
type SystemClock struct{}

func (SystemClock) Now() time.Time           { return time.Now() }
func (SystemClock) Location() *time.Location { return time.Local }

// Today returns the current calendar day on the given clock.
func Today(c Clock) Day {
	return StartOfDay(c.Now(), c.Location())
}
