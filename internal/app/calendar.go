package app

import (
	"context"
	"fmt"

	"github.com/Amund211/japa/internal/domain"
)

type GetCalendar func(ctx context.Context) ([]domain.Festival, error)

type calendarProvider interface {
	GetFestivals(ctx context.Context) ([]domain.Festival, error)
}

func BuildGetCalendar(provider calendarProvider) GetCalendar {
	return func(ctx context.Context) ([]domain.Festival, error) {
		festivals, err := provider.GetFestivals(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not get festivals: %w", err)
		}
		return festivals, nil
	}
}
