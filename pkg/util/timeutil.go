package util

import "time"

// NowUTC is the clock used for stored timestamps.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ElapsedMs returns the whole milliseconds since start.
func ElapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
