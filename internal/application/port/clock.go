package port

import "time"

// Clock abstracts time for the scan cycle and the lifecycle tracker.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
