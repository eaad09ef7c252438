package sqlitedb

import (
	"fmt"
	"time"
)

// Fixed-width fraction keeps stored timestamps lexicographically ordered.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t as the UTC RFC3339 TEXT stored in SQLite. SQLite has no
// native datetime type.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses the timestamp strings stored in SQLite.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlitedb: parse time %q: %w", s, err)
	}
	return t, nil
}
