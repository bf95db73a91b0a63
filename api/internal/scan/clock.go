package scan

import "time"

// Clock stamps completed reports; swapped out in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
