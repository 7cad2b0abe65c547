package domain

import "time"

// TimestampLayout is the millisecond ISO-8601 form used for every stored time
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC with TimestampLayout
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
