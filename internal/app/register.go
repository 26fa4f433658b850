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

const locationLookupTimeout = 2 * time.Second

// Returns the devotee and whether it was newly created
type Register func(ctx context.Context, phone, name, clientIP string) (domain.Devotee, bool, error)

type devoteeRegistry interface {
	FindByPhone(ctx context.Context, phone string) (domain.Devotee, error)
	FindByName(ctx context.Context, name string) (domain.Devotee, error)
	Create(ctx context.Context, devotee domain.Devotee) error
	devoteeUpdater
}

type locationProvider interface {
	LookupLocation(ctx context.Context, ip string) (string, error)
}

func BuildRegister(
	repo devoteeRegistry,
	locations locationProvider,
	nowFunc func() time.Time,
) Register {
	return func(ctx context.Context, rawPhone, rawName, clientIP string) (domain.Devotee, bool, error) {
		phone, err := strutils.NormalizePhone(rawPhone)
		if err != nil {
			return domain.Devotee{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		name, err := strutils.NormalizeName(rawName)
		if err != nil {
			return domain.Devotee{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}

		existing, err := repo.FindByPhone(ctx, phone)
		if err == nil {
			if !strutils.NamesEqual(existing.Name, name) {
				return domain.Devotee{}, false, domain.NewIdentityConflict(domain.ErrPhoneBoundToOtherName)
			}

			// Returning devotees start a new day like any other interaction
			devotee, err := rollDay(ctx, repo, phone, nowFunc)
			if err != nil {
				return domain.Devotee{}, false, err
			}
			return devotee, false, nil
		} else if !errors.Is(err, domain.ErrDevoteeNotFound) {
			// NOTE: repository implementations handle their own error reporting
			return domain.Devotee{}, false, fmt.Errorf("could not look up phone: %w", err)
		}

		_, err = repo.FindByName(ctx, name)
		if err == nil {
			return domain.Devotee{}, false, domain.NewIdentityConflict(domain.ErrNameBoundToOtherPhone)
		} else if !errors.Is(err, domain.ErrDevoteeNotFound) {
			return domain.Devotee{}, false, fmt.Errorf("could not look up name: %w", err)
		}

		location := lookupLocation(ctx, locations, clientIP)

		devotee := domain.NewDevotee(phone, name, location, nowFunc())
		if err := repo.Create(ctx, devotee); err != nil {
			return domain.Devotee{}, false, fmt.Errorf("could not create devotee: %w", err)
		}

		logging.FromContext(ctx).InfoContext(ctx, "Registered devotee", "location", location)

		return devotee, true, nil
	}
}

// Best effort. Any failure results in the unknown location.
func lookupLocation(ctx context.Context, locations locationProvider, clientIP string) string {
	if clientIP == "" {
		return domain.UNKNOWN_LOCATION
	}

	lookupCtx, cancel := context.WithTimeout(ctx, locationLookupTimeout)
	defer cancel()

	location, err := locations.LookupLocation(lookupCtx, clientIP)
	if err != nil {
		// NOTE: locationProvider implementations handle their own error reporting
		logging.FromContext(ctx).WarnContext(ctx, "Failed to look up location", "error", err)
		return domain.UNKNOWN_LOCATION
	}
	if location == "" {
		return domain.UNKNOWN_LOCATION
	}

	return location
}
