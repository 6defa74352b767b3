package extensions

import (
	"math"
	"time"
)

// UnixTimeStampToTime converts seconds since the Unix epoch, fractional part
// included, to local time.
func UnixTimeStampToTime(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).Local()
}

// TimeToUnixTimeStamp is the inverse of UnixTimeStampToTime.
func TimeToUnixTimeStamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
