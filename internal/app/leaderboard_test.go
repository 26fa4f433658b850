package app_test

import (
	"testing"
	"time"

	"github.com/Amund211/japa/internal/adapters/cache"
	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestBuildGetLeaderboardWithCache(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2026, time.March, 1, 7, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	sita := domain.NewDevotee("9876543210", "Sita", "Pune", day2)
	sita.TodayCount = 216
	sita.LifetimeCount = 1000
	ram := domain.NewDevotee("0123456789", "Ram", "Ayodhya", day1)
	ram.TodayCount = 540
	ram.LifetimeCount = 2000
	gita := domain.NewDevotee("1111111111", "Gita", "Delhi", day2)

	t.Run("today and lifetime", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepository(t, sita, ram, gita)
		getLeaderboard := app.BuildGetLeaderboardWithCache(
			cache.NewTTLCache[[]domain.LeaderboardEntry](time.Minute), repo, func() time.Time { return day2 },
		)

		entries, err := getLeaderboard(t.Context(), domain.LeaderboardToday, 10)
		require.NoError(t, err)
		require.Equal(t, []domain.LeaderboardEntry{
			{Rank: 1, Name: "Sita", Location: "Pune", Count: 216},
		}, entries)

		entries, err = getLeaderboard(t.Context(), domain.LeaderboardLifetime, 10)
		require.NoError(t, err)
		require.Equal(t, []domain.LeaderboardEntry{
			{Rank: 1, Name: "Ram", Location: "Ayodhya", Count: 2000},
			{Rank: 2, Name: "Sita", Location: "Pune", Count: 1000},
		}, entries)

		entries, err = getLeaderboard(t.Context(), domain.LeaderboardLifetime, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("results are cached", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepository(t, sita, ram)
		getLeaderboard := app.BuildGetLeaderboardWithCache(
			cache.NewTTLCache[[]domain.LeaderboardEntry](time.Minute), repo, func() time.Time { return day2 },
		)

		for range 3 {
			_, err := getLeaderboard(t.Context(), domain.LeaderboardLifetime, 10)
			require.NoError(t, err)
		}
		require.Equal(t, 1, repo.listCalls)

		_, err := getLeaderboard(t.Context(), domain.LeaderboardToday, 10)
		require.NoError(t, err)
		require.Equal(t, 2, repo.listCalls)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepository(t)
		getLeaderboard := app.BuildGetLeaderboardWithCache(
			cache.NewTTLCache[[]domain.LeaderboardEntry](time.Minute), repo, func() time.Time { return day2 },
		)

		for _, limit := range []int{0, -1, 101} {
			_, err := getLeaderboard(t.Context(), domain.LeaderboardToday, limit)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		}

		_, err := getLeaderboard(t.Context(), domain.LeaderboardPeriod("weekly"), 10)
		require.ErrorIs(t, err, domain.ErrInvalidInput)

		require.Equal(t, 0, repo.listCalls)
	})
}
