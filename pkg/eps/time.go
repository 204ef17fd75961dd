package eps

import "time"

// epoch is the instrument epoch all EPS day/millisecond timestamps
// count from.
var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// EpochTime converts a day count and millisecond-of-day since the
// 2000-01-01 instrument epoch into a UTC timestamp.
func EpochTime(day, msec int64) time.Time {
	return epoch.Add(time.Duration(day)*24*time.Hour + time.Duration(msec)*time.Millisecond)
}
