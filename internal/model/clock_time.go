package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day stored as minutes since midnight.
type ClockTime int

const minutesPerDay = 24 * 60

// ParseClockTime parses "HH:MM". "24:00" is accepted as the end of the day.
func ParseClockTime(s string) (ClockTime, error) {
	if s == "24:00" {
		return minutesPerDay, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// Valid reports whether c is within a day. 24:00 is allowed as a closing time.
func (c ClockTime) Valid() bool {
	return c >= 0 && c <= minutesPerDay
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant showing c on the wall clock of date's calendar day
// in loc. 24:00 is the following midnight.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, loc)
}

// ClockOf is the inverse of On: t's wall-clock time in loc, or 24:00 when t
// is the midnight that ends date's calendar day.
func ClockOf(date, t time.Time, loc *time.Location) ClockTime {
	y, m, d := date.Date()
	local := t.In(loc)
	if local.Equal(time.Date(y, m, d+1, 0, 0, 0, 0, loc)) {
		return minutesPerDay
	}
	return ClockTime(local.Hour()*60 + local.Minute())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
