package entity

import (
	"strconv"
	"strings"
)

// keySeparator joins composite key components. Component values (addresses,
// numeric strings) never contain it.
const keySeparator = "-"

// Join builds a composite entity key from its components.
func Join(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// SecondsPerDay is the day-bucket width for DaySummary keys.
const SecondsPerDay = 86400

// DayID buckets a unix timestamp into a calendar-day index, independent of
// timezone.
func DayID(timestamp int64) int64 {
	return timestamp / SecondsPerDay
}

// CandleIntervals are the four candle resolutions, in seconds.
var CandleIntervals = []int64{300, 900, 3600, 86400}

// RoundTime rounds a unix timestamp down to the start of its bucket.
func RoundTime(timestamp, interval int64) int64 {
	return timestamp / interval * interval
}

// WithinPeriod reports whether t falls inside the closed interval
// [startedAt, finishedAt]. A zero-valued window matches nothing.
func WithinPeriod(t, startedAt, finishedAt int64) bool {
	if startedAt == 0 && finishedAt == 0 {
		return false
	}
	return t >= startedAt && t <= finishedAt
}
