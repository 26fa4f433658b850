package domain_test

import (
	"testing"

	"github.com/Amund211/japa/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRankDevotees(t *testing.T) {
	t.Parallel()

	today := domain.Date("2026-02-15")
	devotees := []domain.Devotee{
		{Phone: "1111111111", Name: "Ram", Location: "Ayodhya", LifetimeCount: 5000, TodayCount: 108, LastActiveDate: today},
		{Phone: "2222222222", Name: "shyam", Location: "Mathura", LifetimeCount: 9000, TodayCount: 999, LastActiveDate: "2026-02-14"},
		{Phone: "3333333333", Name: "Gita", Location: "Kashi", LifetimeCount: 5000, TodayCount: 216, LastActiveDate: today},
		{Phone: "4444444444", Name: "Hari", Location: "Puri", LifetimeCount: 0, TodayCount: 0, LastActiveDate: today},
		{Phone: "5555555555", Name: "Mohan", Location: "Dwarka", LifetimeCount: 108, TodayCount: 108, LastActiveDate: today},
	}

	t.Run("lifetime", func(t *testing.T) {
		t.Parallel()

		entries := domain.RankDevotees(devotees, domain.LeaderboardLifetime, today, 10)
		require.Equal(t, []domain.LeaderboardEntry{
			{Rank: 1, Name: "shyam", Location: "Mathura", Count: 9000},
			{Rank: 2, Name: "Gita", Location: "Kashi", Count: 5000},
			{Rank: 2, Name: "Ram", Location: "Ayodhya", Count: 5000},
			{Rank: 4, Name: "Mohan", Location: "Dwarka", Count: 108},
		}, entries)
	})

	t.Run("today ignores stale counts", func(t *testing.T) {
		t.Parallel()

		entries := domain.RankDevotees(devotees, domain.LeaderboardToday, today, 10)
		require.Equal(t, []domain.LeaderboardEntry{
			{Rank: 1, Name: "Gita", Location: "Kashi", Count: 216},
			{Rank: 2, Name: "Mohan", Location: "Dwarka", Count: 108},
			{Rank: 2, Name: "Ram", Location: "Ayodhya", Count: 108},
		}, entries)
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		entries := domain.RankDevotees(devotees, domain.LeaderboardLifetime, today, 2)
		require.Len(t, entries, 2)
		require.Equal(t, "shyam", entries[0].Name)
		require.Equal(t, "Gita", entries[1].Name)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		entries := domain.RankDevotees(nil, domain.LeaderboardToday, today, 10)
		require.Empty(t, entries)
	})

	t.Run("input is not reordered", func(t *testing.T) {
		t.Parallel()

		input := []domain.Devotee{devotees[0], devotees[1]}
		_ = domain.RankDevotees(input, domain.LeaderboardLifetime, today, 10)
		require.Equal(t, "Ram", input[0].Name)
	})
}

func TestParseLeaderboardPeriod(t *testing.T) {
	t.Parallel()

	period, err := domain.ParseLeaderboardPeriod("today")
	require.NoError(t, err)
	require.Equal(t, domain.LeaderboardToday, period)

	period, err = domain.ParseLeaderboardPeriod("lifetime")
	require.NoError(t, err)
	require.Equal(t, domain.LeaderboardLifetime, period)

	_, err = domain.ParseLeaderboardPeriod("weekly")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
