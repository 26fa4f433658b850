package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type LeaderboardPeriod string

const (
	LeaderboardToday    LeaderboardPeriod = "today"
	LeaderboardLifetime LeaderboardPeriod = "lifetime"
)

func ParseLeaderboardPeriod(raw string) (LeaderboardPeriod, error) {
	switch LeaderboardPeriod(raw) {
	case LeaderboardToday:
		return LeaderboardToday, nil
	case LeaderboardLifetime:
		return LeaderboardLifetime, nil
	}
	return "", fmt.Errorf("%w: unknown leaderboard period '%s'", ErrInvalidInput, raw)
}

type LeaderboardEntry struct {
	Rank     int
	Name     string
	Location string
	Count    int64
}

// Rank devotees by their count for the given period
//
// Today's count is only considered for devotees active today, as the stored value is
// stale for everyone else. Devotees with a zero count are left out. Equal counts share a
// rank (1, 2, 2, 4).
func RankDevotees(devotees []Devotee, period LeaderboardPeriod, today Date, limit int) []LeaderboardEntry {
	countFor := func(d Devotee) int64 {
		if period == LeaderboardLifetime {
			return d.LifetimeCount
		}
		if d.LastActiveDate != today {
			return 0
		}
		return d.TodayCount
	}

	candidates := make([]Devotee, 0, len(devotees))
	for _, d := range devotees {
		if countFor(d) > 0 {
			candidates = append(candidates, d)
		}
	}

	slices.SortFunc(candidates, func(a, b Devotee) int {
		if c := cmp.Compare(countFor(b), countFor(a)); c != 0 {
			return c
		}
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Phone, b.Phone)
	})

	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	entries := make([]LeaderboardEntry, 0, len(candidates))
	for i, d := range candidates {
		rank := i + 1
		if i > 0 && countFor(candidates[i-1]) == countFor(d) {
			rank = entries[i-1].Rank
		}
		entries = append(entries, LeaderboardEntry{
			Rank:     rank,
			Name:     d.Name,
			Location: d.Location,
			Count:    countFor(d),
		})
	}

	return entries
}
