package timestamp

import (
	"fmt"
	"strings"
	"time"
)

// outputLayout is RFC3339 with milliseconds and a numeric offset, so UTC
// renders as "+00:00" rather than "Z".
const outputLayout = "2006-01-02T15:04:05.000-07:00"

// zone suffixes accepted after the seconds field; "" means UTC is assumed.
var zones = []string{"", "Z07:00", "-0700", "-07"}

// ParseMs parses "YYYY-MM-DD HH:MM:SS[.fff]" or "YYYY-MM-DDTHH:MM:SS[.fff]",
// optionally followed by a UTC offset, into milliseconds since the epoch.
func ParseMs(s string) (int64, error) {
	base := "2006-01-02 15:04:05"
	if strings.Count(s, "T") == 1 {
		base = "2006-01-02T15:04:05"
	}

	for _, zone := range zones {
		t, err := time.Parse(base+zone, s)
		if err == nil {
			return t.Round(time.Millisecond).UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("invalid timestamp %q", s)
}

// FormatMs formats milliseconds since the epoch as RFC3339 with millisecond
// precision in UTC, e.g. "1970-01-01T00:00:00.123+00:00".
func FormatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(outputLayout)
}

// NowMs returns the current time in milliseconds since the epoch.
func NowMs() int64 {
	return time.Now().Round(time.Millisecond).UnixMilli()
}
