package domain

import (
	"time"
)

const UNKNOWN_LOCATION = "Unknown"

// A registered participant and their running counters.
//
// TodayCount only ever refers to LastActiveDate. LifetimeCount is the sum of the
// final count of every day the devotee has been active.
type Devotee struct {
	Phone          string
	Name           string
	Location       string
	LifetimeCount  int64
	TodayCount     int64
	LastActiveDate Date
	RegisteredAt   time.Time
}

func NewDevotee(phone, name, location string, now time.Time) Devotee {
	if location == "" {
		location = UNKNOWN_LOCATION
	}
	return Devotee{
		Phone:          phone,
		Name:           name,
		Location:       location,
		LifetimeCount:  0,
		TodayCount:     0,
		LastActiveDate: DateOf(now),
		RegisteredAt:   now,
	}
}
