package clock

import "time"

// DateLayout is the wire format for expiration dates.
const DateLayout = "2006-01-02"

func Now() time.Time {
	return time.Now().UTC()
}

func FormatRFC3339(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (m RealClock) Now() time.Time {
	return Now()
}
