package domain

import (
	"fmt"
	"math"
)

// Reset today's count if it refers to a different day than today
//
// NOTE: Must be applied before any accrual or overwrite so that today's count never
// carries over from a previous day.
func (d Devotee) RollDayIfNeeded(today Date) Devotee {
	if d.LastActiveDate == today {
		return d
	}

	d.TodayCount = 0
	d.LastActiveDate = today
	return d
}

// Add units to both today's and the lifetime count
func (d Devotee) Accrue(delta int64) (Devotee, error) {
	if delta < 0 {
		return Devotee{}, fmt.Errorf("%w: cannot accrue a negative count (%d)", ErrInvalidInput, delta)
	}
	if d.LifetimeCount > math.MaxInt64-delta || d.TodayCount > math.MaxInt64-delta {
		return Devotee{}, fmt.Errorf("%w: count too large", ErrInvalidInput)
	}

	d.TodayCount += delta
	d.LifetimeCount += delta
	return d, nil
}

// Replace today's count, moving the lifetime count by the difference
//
// Only the last overwrite of a day survives in the lifetime count. Downward
// corrections are allowed, but never below a lifetime count of zero.
func (d Devotee) OverwriteToday(newToday int64) (Devotee, error) {
	if newToday < 0 {
		return Devotee{}, fmt.Errorf("%w: today's count cannot be negative (%d)", ErrInvalidInput, newToday)
	}

	delta := newToday - d.TodayCount
	if delta > 0 && d.LifetimeCount > math.MaxInt64-delta {
		return Devotee{}, fmt.Errorf("%w: count too large", ErrInvalidInput)
	}

	lifetime := d.LifetimeCount + delta
	if lifetime < 0 {
		return Devotee{}, fmt.Errorf(
			"%w: lifetime %d, today %d, requested %d",
			ErrLifetimeUnderflow, d.LifetimeCount, d.TodayCount, newToday,
		)
	}

	d.LifetimeCount = lifetime
	d.TodayCount = newToday
	return d, nil
}

func (d Devotee) ResetToday() (Devotee, error) {
	return d.OverwriteToday(0)
}
