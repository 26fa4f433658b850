package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/japa/internal/adapters/cache"
	"github.com/Amund211/japa/internal/domain"
)

const (
	DEFAULT_LEADERBOARD_LIMIT = 10
	MAX_LEADERBOARD_LIMIT     = 100
)

type GetLeaderboard func(ctx context.Context, period domain.LeaderboardPeriod, limit int) ([]domain.LeaderboardEntry, error)

type devoteeLister interface {
	List(ctx context.Context) ([]domain.Devotee, error)
}

func BuildGetLeaderboardWithCache(
	leaderboardCache cache.Cache[[]domain.LeaderboardEntry],
	repo devoteeLister,
	nowFunc func() time.Time,
) GetLeaderboard {
	return func(ctx context.Context, period domain.LeaderboardPeriod, limit int) ([]domain.LeaderboardEntry, error) {
		if limit < 1 || limit > MAX_LEADERBOARD_LIMIT {
			return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d", domain.ErrInvalidInput, MAX_LEADERBOARD_LIMIT, limit)
		}
		if _, err := domain.ParseLeaderboardPeriod(string(period)); err != nil {
			return nil, err
		}

		today := domain.DateOf(nowFunc())

		// The day is part of the key so a new day never serves yesterday's board
		key := fmt.Sprintf("%s:%s:%d", today, period, limit)
		entries, _, err := cache.GetOrCreate(ctx, leaderboardCache, key, func() ([]domain.LeaderboardEntry, error) {
			devotees, err := repo.List(ctx)
			if err != nil {
				// NOTE: repository implementations handle their own error reporting
				return nil, err
			}
			return domain.RankDevotees(devotees, period, today, limit), nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to cache.GetOrCreate leaderboard: %w", err)
		}

		return entries, nil
	}
}
