package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/strutils"
)

type devoteeUpdater interface {
	Update(ctx context.Context, phone string, update func(domain.Devotee) (domain.Devotee, error)) (domain.Devotee, error)
}

type GetDevotee func(ctx context.Context, phone string) (domain.Devotee, error)

// Loading a devotee counts as an interaction, so a stale day is rolled over and persisted
func BuildGetDevotee(repo devoteeUpdater, nowFunc func() time.Time) GetDevotee {
	return func(ctx context.Context, rawPhone string) (domain.Devotee, error) {
		phone, err := normalizePhone(rawPhone)
		if err != nil {
			return domain.Devotee{}, err
		}

		return rollDay(ctx, repo, phone, nowFunc)
	}
}

func rollDay(ctx context.Context, repo devoteeUpdater, phone string, nowFunc func() time.Time) (domain.Devotee, error) {
	devotee, err := repo.Update(ctx, phone, func(d domain.Devotee) (domain.Devotee, error) {
		return d.RollDayIfNeeded(domain.DateOf(nowFunc())), nil
	})
	if err != nil {
		return domain.Devotee{}, fmt.Errorf("could not load devotee: %w", err)
	}
	return devotee, nil
}

func normalizePhone(rawPhone string) (string, error) {
	phone, err := strutils.NormalizePhone(rawPhone)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return phone, nil
}
