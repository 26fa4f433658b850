package domain

import (
	"fmt"
	"time"
)

// A calendar date on the form YYYY-MM-DD
type Date string

func DateOf(t time.Time) Date {
	return Date(t.Format(time.DateOnly))
}

func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid date '%s'", ErrInvalidInput, raw)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return string(d)
}
