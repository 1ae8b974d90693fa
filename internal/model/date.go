package model

import (
	"fmt"
	"strings"
	"time"
)

// DateKeyLayout is the canonical calendar-date layout used for alignment.
const DateKeyLayout = "2006-01-02"

// CreatedAtLayout is the wire layout of Prediction.CreatedAt on the persistence endpoint.
const CreatedAtLayout = "2006-01-02T15:04:05"

// DateKeyOf returns the UTC calendar date of t as YYYY-MM-DD.
func DateKeyOf(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

var dateLayouts = []string{
	DateKeyLayout,
	time.RFC3339Nano,
	time.RFC3339,
	CreatedAtLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// ParseTime parses the date/time formats emitted by the feed and the stores.
// Values without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseDateKey converts any supported date/time string to its canonical date key.
func ParseDateKey(s string) (string, error) {
	t, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return DateKeyOf(t), nil
}
