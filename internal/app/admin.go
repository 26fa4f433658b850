package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// Check a presented admin token
type Authorize func(token string) error

// A devotee as shown to admins
type DevoteeOverview struct {
	Devotee domain.Devotee
	// Set for devotees that have not recorded anything today
	ReminderLink string
}

type ListDevotees func(ctx context.Context) ([]DevoteeOverview, error)

type DeleteDevotee func(ctx context.Context, phone string) error

type devoteeDeleter interface {
	Delete(ctx context.Context, phone string) error
}

// The token is compared against a bcrypt hash. An empty hash disables admin access.
func BuildAuthorize(tokenHash string) Authorize {
	hash := []byte(tokenHash)
	return func(token string) error {
		if len(hash) == 0 || token == "" {
			return domain.ErrUnauthorized
		}

		err := bcrypt.CompareHashAndPassword(hash, adminTokenBytes(token))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrUnauthorized
		} else if err != nil {
			return fmt.Errorf("%w: invalid admin token hash: %w", domain.ErrUnauthorized, err)
		}

		return nil
	}
}

// Hash an admin token for use with BuildAuthorize
func HashAdminToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(adminTokenBytes(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin token: %w", err)
	}
	return string(hash), nil
}

// bcrypt rejects inputs longer than 72 bytes, so longer tokens are pre-hashed
func adminTokenBytes(token string) []byte {
	if len(token) <= 72 {
		return []byte(token)
	}
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

// Every devotee rolled to today for display. Nothing is persisted.
func BuildListDevotees(repo devoteeLister, nowFunc func() time.Time) ListDevotees {
	return func(ctx context.Context) ([]DevoteeOverview, error) {
		devotees, err := repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not list devotees: %w", err)
		}

		today := domain.DateOf(nowFunc())

		overviews := make([]DevoteeOverview, 0, len(devotees))
		for _, devotee := range devotees {
			devotee = devotee.RollDayIfNeeded(today)

			overview := DevoteeOverview{Devotee: devotee}
			if devotee.TodayCount == 0 {
				overview.ReminderLink = domain.ReminderLink(devotee, domain.DefaultReminderMessage(devotee))
			}
			overviews = append(overviews, overview)
		}

		return overviews, nil
	}
}

func BuildDeleteDevotee(repo devoteeDeleter) DeleteDevotee {
	return func(ctx context.Context, rawPhone string) error {
		phone, err := normalizePhone(rawPhone)
		if err != nil {
			return err
		}

		if err := repo.Delete(ctx, phone); err != nil {
			return fmt.Errorf("could not delete devotee: %w", err)
		}

		logging.FromContext(ctx).InfoContext(ctx, "Deleted devotee")
		return nil
	}
}
