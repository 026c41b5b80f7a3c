package model

import (
	"fmt"
	"time"
)

// ClockTime is a time of day in minutes after midnight.
type ClockTime int

// Clock builds a ClockTime from hours and minutes.
func Clock(hour, minute int) ClockTime { return ClockTime(hour*60 + minute) }

// ParseClock parses "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return Clock(t.Hour(), t.Minute()), nil
}

// Valid reports whether c lies within one day.
func (c ClockTime) Valid() bool { return c >= 0 && c < 24*60 }

// Duration returns the offset from midnight.
func (c ClockTime) Duration() time.Duration { return time.Duration(c) * time.Minute }

// Sub returns c-o.
func (c ClockTime) Sub(o ClockTime) time.Duration { return c.Duration() - o.Duration() }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
