package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/logging"
	"github.com/Amund211/japa/internal/strutils"
)

// Copy devotees from another store, repairing what can be repaired
//
// Rows that can never be stored are skipped. Rows the target rejects for any other
// reason are counted as failed, and the import carries on with the next row.
type ImportDevotees func(ctx context.Context, devotees []domain.Devotee) ImportReport

type ImportReport struct {
	Imported int
	Skipped  int
	Failed   int
}

type devoteeCreator interface {
	Create(ctx context.Context, devotee domain.Devotee) error
}

func BuildImportDevotees(repo devoteeCreator, nowFunc func() time.Time) ImportDevotees {
	return func(ctx context.Context, devotees []domain.Devotee) ImportReport {
		logger := logging.FromContext(ctx)
		report := ImportReport{}

		for i, original := range devotees {
			row := i + 1

			devotee, err := prepareImport(original, nowFunc())
			if err != nil {
				logger.WarnContext(ctx, "Skipping invalid devotee", "row", row, "devotee", strutils.MaskPhone(original.Phone), "error", err)
				report.Skipped++
				continue
			}

			err = repo.Create(ctx, devotee)
			if errors.Is(err, domain.ErrIdentityConflict) {
				logger.WarnContext(ctx, "Skipping conflicting devotee", "row", row, "devotee", strutils.MaskPhone(devotee.Phone), "error", err)
				report.Skipped++
				continue
			} else if err != nil {
				// NOTE: repository implementations handle their own error reporting
				logger.ErrorContext(ctx, "Failed to import devotee", "row", row, "devotee", strutils.MaskPhone(devotee.Phone), "error", err)
				report.Failed++
				continue
			}

			report.Imported++
		}

		return report
	}
}

// Normalize identity fields and fill in what legacy rows may be missing
//
// A missing or invalid last active date becomes a day before today, so the count stored for
// it is rolled over on the next interaction like it would have been before the import.
func prepareImport(devotee domain.Devotee, now time.Time) (domain.Devotee, error) {
	phone, err := strutils.NormalizePhone(devotee.Phone)
	if err != nil {
		return domain.Devotee{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	name, err := strutils.NormalizeName(devotee.Name)
	if err != nil {
		return domain.Devotee{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if devotee.LifetimeCount < 0 || devotee.TodayCount < 0 {
		return domain.Devotee{}, fmt.Errorf("%w: negative count", domain.ErrInvalidInput)
	}

	devotee.Phone = phone
	devotee.Name = name

	if devotee.Location == "" {
		devotee.Location = domain.UNKNOWN_LOCATION
	}

	today := domain.DateOf(now)
	if _, err := domain.ParseDate(devotee.LastActiveDate.String()); err != nil {
		devotee.LastActiveDate = domain.DateOf(now.AddDate(0, 0, -1))
		if !devotee.RegisteredAt.IsZero() {
			if registered := domain.DateOf(devotee.RegisteredAt.In(now.Location())); registered < today {
				devotee.LastActiveDate = registered
			}
		}
	}

	if devotee.RegisteredAt.IsZero() {
		devotee.RegisteredAt = now
	}

	return devotee, nil
}
