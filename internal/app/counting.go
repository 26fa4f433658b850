package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var countUpdates metric.Int64Counter

func init() {
	var err error
	countUpdates, err = otel.Meter("japa/app").Int64Counter(
		"app/count_updates",
		metric.WithDescription("Successful changes to a devotee's count for today"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create count updates metric: %w", err))
	}
}

// Add to today's count
type Accrue func(ctx context.Context, phone string, value int64, unit domain.EntryUnit) (domain.Devotee, error)

// Replace today's count
type OverwriteToday func(ctx context.Context, phone string, value int64, unit domain.EntryUnit) (domain.Devotee, error)

// Set today's count back to zero
type ResetToday func(ctx context.Context, phone string) (domain.Devotee, error)

func BuildAccrue(repo devoteeUpdater, groupSize int64, nowFunc func() time.Time) Accrue {
	return func(ctx context.Context, rawPhone string, value int64, unit domain.EntryUnit) (domain.Devotee, error) {
		return applyToToday(ctx, repo, rawPhone, value, unit, groupSize, nowFunc, "accrue", domain.Devotee.Accrue)
	}
}

func BuildOverwriteToday(repo devoteeUpdater, groupSize int64, nowFunc func() time.Time) OverwriteToday {
	return func(ctx context.Context, rawPhone string, value int64, unit domain.EntryUnit) (domain.Devotee, error) {
		return applyToToday(ctx, repo, rawPhone, value, unit, groupSize, nowFunc, "overwrite", domain.Devotee.OverwriteToday)
	}
}

func BuildResetToday(repo devoteeUpdater, nowFunc func() time.Time) ResetToday {
	return func(ctx context.Context, rawPhone string) (domain.Devotee, error) {
		reset := func(d domain.Devotee, _ int64) (domain.Devotee, error) {
			return d.ResetToday()
		}
		return applyToToday(ctx, repo, rawPhone, 0, domain.EntryUnitUnits, 1, nowFunc, "reset", reset)
	}
}

// Convert the entry to units, then roll the day and apply the change in one atomic update
func applyToToday(
	ctx context.Context,
	repo devoteeUpdater,
	rawPhone string,
	value int64,
	unit domain.EntryUnit,
	groupSize int64,
	nowFunc func() time.Time,
	operation string,
	apply func(domain.Devotee, int64) (domain.Devotee, error),
) (domain.Devotee, error) {
	phone, err := normalizePhone(rawPhone)
	if err != nil {
		return domain.Devotee{}, err
	}

	units, err := domain.ToUnits(value, unit, groupSize)
	if err != nil {
		return domain.Devotee{}, err
	}

	devotee, err := repo.Update(ctx, phone, func(d domain.Devotee) (domain.Devotee, error) {
		d = d.RollDayIfNeeded(domain.DateOf(nowFunc()))
		return apply(d, units)
	})
	if err != nil {
		return domain.Devotee{}, fmt.Errorf("could not %s today's count: %w", operation, err)
	}

	countUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))

	logging.FromContext(ctx).InfoContext(
		ctx,
		"Recorded count",
		"operation", operation,
		"units", units,
		"today", devotee.TodayCount,
		"lifetime", devotee.LifetimeCount,
	)

	return devotee, nil
}
