package domain

import "time"

// User represents a user profile managed by the service.
type User struct {
	ID        int64
	Name      string
	Email     string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimestampLayout renders timestamps in UTC without an offset suffix.
const TimestampLayout = "2006-01-02T15:04:05"

// FormatTimestamp renders t as ISO-8601 in UTC without an offset. The
// microsecond part is only included when it is non-zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(TimestampLayout)
	}
	return t.Format(TimestampLayout + ".000000")
}
