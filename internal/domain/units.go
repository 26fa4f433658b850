package domain

import (
	"fmt"
	"math"
)

const DEFAULT_GROUP_SIZE = 108

// The unit a submitted count is expressed in
type EntryUnit string

const (
	// Whole groups (malas) of groupSize units each
	EntryUnitGroups EntryUnit = "groups"
	// Single units (jaaps)
	EntryUnitUnits EntryUnit = "units"
)

func ParseEntryUnit(raw string) (EntryUnit, error) {
	switch EntryUnit(raw) {
	case EntryUnitGroups:
		return EntryUnitGroups, nil
	case EntryUnitUnits:
		return EntryUnitUnits, nil
	}
	return "", fmt.Errorf("%w: unknown unit '%s'", ErrInvalidInput, raw)
}

// Convert a submitted value to raw units
//
// The ledger only ever operates on raw units, so every entry passes through here
// exactly once.
func ToUnits(value int64, unit EntryUnit, groupSize int64) (int64, error) {
	if value < 0 {
		return 0, fmt.Errorf("%w: count cannot be negative (%d)", ErrInvalidInput, value)
	}

	switch unit {
	case EntryUnitUnits:
		return value, nil
	case EntryUnitGroups:
		if groupSize <= 0 {
			return 0, fmt.Errorf("%w: group size must be positive (%d)", ErrInvalidInput, groupSize)
		}
		if value > math.MaxInt64/groupSize {
			return 0, fmt.Errorf("%w: count too large", ErrInvalidInput)
		}
		return value * groupSize, nil
	}

	return 0, fmt.Errorf("%w: unknown unit '%s'", ErrInvalidInput, unit)
}

type Groups struct {
	Whole     int64
	Remainder int64
}

// Split a unit count into whole groups and leftover units
//
// Uses floor division, so the remainder is always in [0, groupSize).
// groupSize must be positive.
func SplitIntoGroups(units int64, groupSize int64) Groups {
	whole := units / groupSize
	remainder := units % groupSize
	if remainder < 0 {
		whole--
		remainder += groupSize
	}
	return Groups{
		Whole:     whole,
		Remainder: remainder,
	}
}
