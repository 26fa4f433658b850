package domain_test

import (
	"testing"
	"time"

	"github.com/Amund211/japa/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestDateOf(t *testing.T) {
	t.Parallel()

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC is already the next day in Kolkata
	instant := time.Date(2026, time.March, 27, 20, 0, 0, 0, time.UTC)

	require.Equal(t, domain.Date("2026-03-27"), domain.DateOf(instant))
	require.Equal(t, domain.Date("2026-03-28"), domain.DateOf(instant.In(kolkata)))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"2026-03-27", "2024-02-29"} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			date, err := domain.ParseDate(raw)
			require.NoError(t, err)
			require.Equal(t, raw, date.String())
		})
	}

	for _, raw := range []string{"", "27/03/2026", "27-03-2026", "2026-3-27", "2026-13-01", "2025-02-29", "yesterday", "2026-03-27T00:00:00Z"} {
		t.Run("invalid "+raw, func(t *testing.T) {
			t.Parallel()

			_, err := domain.ParseDate(raw)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
