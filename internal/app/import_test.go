package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/domain"
	"github.com/stretchr/testify/require"
)

type mockDevoteeCreator struct {
	t *testing.T

	errs    map[string]error
	created []domain.Devotee
}

func (m *mockDevoteeCreator) Create(ctx context.Context, devotee domain.Devotee) error {
	m.t.Helper()
	if err, ok := m.errs[devotee.Phone]; ok {
		return err
	}
	m.created = append(m.created, devotee)
	return nil
}

func TestBuildImportDevotees(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC)
	nowFunc := func() time.Time { return now }
	registered := time.Date(2026, time.February, 1, 8, 30, 0, 0, time.UTC)

	t.Run("valid rows are copied as is", func(t *testing.T) {
		t.Parallel()

		sita := domain.NewDevotee("9876543210", "Sita", "Pune", registered)
		sita.LifetimeCount = 1080
		sita.TodayCount = 108

		repo := &mockDevoteeCreator{t: t}
		report := app.BuildImportDevotees(repo, nowFunc)(t.Context(), []domain.Devotee{sita})

		require.Equal(t, app.ImportReport{Imported: 1}, report)
		require.Equal(t, []domain.Devotee{sita}, repo.created)
	})

	t.Run("legacy rows are repaired", func(t *testing.T) {
		t.Parallel()

		repo := &mockDevoteeCreator{t: t}
		report := app.BuildImportDevotees(repo, nowFunc)(t.Context(), []domain.Devotee{
			{Phone: " 9876543210 ", Name: "  Sita   Devi ", LifetimeCount: 216, TodayCount: 54},
			{Phone: "0123456789", Name: "Ram", Location: "Ayodhya", LastActiveDate: "01/03/2026", RegisteredAt: registered},
			{Phone: "1111111111", Name: "Gita", LastActiveDate: "", RegisteredAt: now.Add(-time.Hour)},
		})

		require.Equal(t, app.ImportReport{Imported: 3}, report)
		require.Equal(t, []domain.Devotee{
			{
				Phone:          "9876543210",
				Name:           "Sita Devi",
				Location:       domain.UNKNOWN_LOCATION,
				LifetimeCount:  216,
				TodayCount:     54,
				LastActiveDate: "2026-03-09",
				RegisteredAt:   now,
			},
			{
				Phone:          "0123456789",
				Name:           "Ram",
				Location:       "Ayodhya",
				LastActiveDate: "2026-02-01",
				RegisteredAt:   registered,
			},
			{
				Phone:          "1111111111",
				Name:           "Gita",
				Location:       domain.UNKNOWN_LOCATION,
				LastActiveDate: "2026-03-09",
				RegisteredAt:   now.Add(-time.Hour),
			},
		}, repo.created)
	})

	t.Run("unrepairable rows are skipped", func(t *testing.T) {
		t.Parallel()

		ram := domain.NewDevotee("0123456789", "Ram", "Ayodhya", registered)

		repo := &mockDevoteeCreator{t: t}
		report := app.BuildImportDevotees(repo, nowFunc)(t.Context(), []domain.Devotee{
			domain.NewDevotee("98765-4321", "Sita", "", registered),
			domain.NewDevotee("+919876543210", "Sita", "", registered),
			domain.NewDevotee("2222222222", "   ", "", registered),
			{Phone: "3333333333", Name: "Lakshman", LifetimeCount: -1},
			ram,
		})

		require.Equal(t, app.ImportReport{Imported: 1, Skipped: 4}, report)
		require.Equal(t, []domain.Devotee{ram}, repo.created)
	})

	t.Run("conflicts are skipped and other errors do not stop the import", func(t *testing.T) {
		t.Parallel()

		sita := domain.NewDevotee("9876543210", "Sita", "Pune", registered)
		gita := domain.NewDevotee("1111111111", "Gita", "Pune", registered)
		ram := domain.NewDevotee("0123456789", "Ram", "Ayodhya", registered)

		repo := &mockDevoteeCreator{
			t: t,
			errs: map[string]error{
				sita.Phone: domain.NewIdentityConflict(domain.ErrNameBoundToOtherPhone),
				gita.Phone: errors.New("connection reset"),
			},
		}
		report := app.BuildImportDevotees(repo, nowFunc)(t.Context(), []domain.Devotee{sita, gita, ram})

		require.Equal(t, app.ImportReport{Imported: 1, Skipped: 1, Failed: 1}, report)
		require.Equal(t, []domain.Devotee{ram}, repo.created)
	})

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()

		repo := &mockDevoteeCreator{t: t}
		report := app.BuildImportDevotees(repo, nowFunc)(t.Context(), nil)

		require.Equal(t, app.ImportReport{}, report)
		require.Empty(t, repo.created)
	})
}
