package devoteerepository

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Amund211/japa/internal/domain"
	"github.com/stretchr/testify/require"
)

func newCSV(t *testing.T) (*CSV, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ram_seva_data.csv")
	return NewCSV(path), path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCSVLoadAll(t *testing.T) {
	t.Parallel()

	t.Run("missing file is an empty store", func(t *testing.T) {
		t.Parallel()
		store, _ := newCSV(t)

		require.Empty(t, store.LoadAll(t.Context()))
	})

	t.Run("empty file is an empty store", func(t *testing.T) {
		t.Parallel()
		store, path := newCSV(t)
		writeFile(t, path, "")

		require.Empty(t, store.LoadAll(t.Context()))
	})

	t.Run("old format is backfilled", func(t *testing.T) {
		t.Parallel()
		store, path := newCSV(t)
		writeFile(t, path, "Phone,Name,Total_Counts,Last_Active\n9876543210,Sita,216,2026-03-01\n0123456789,Ram,10.0,\n")

		devotees := store.LoadAll(t.Context())
		require.Equal(t, []domain.Devotee{
			{
				Phone:          "9876543210",
				Name:           "Sita",
				Location:       domain.UNKNOWN_LOCATION,
				LifetimeCount:  216,
				TodayCount:     0,
				LastActiveDate: "2026-03-01",
			},
			{
				Phone:          "0123456789",
				Name:           "Ram",
				Location:       domain.UNKNOWN_LOCATION,
				LifetimeCount:  10,
				TodayCount:     0,
				LastActiveDate: "",
			},
		}, devotees)
	})

	t.Run("malformed file is moved aside", func(t *testing.T) {
		t.Parallel()
		store, path := newCSV(t)
		writeFile(t, path, "Phone,Name,Total_Counts\n9876543210,Sita,lots\n")

		require.Empty(t, store.LoadAll(t.Context()))

		_, err := os.Stat(path)
		require.ErrorIs(t, err, os.ErrNotExist)

		matches, err := filepath.Glob(path + ".malformed-*")
		require.NoError(t, err)
		require.Len(t, matches, 1)
	})

	t.Run("missing required column is malformed", func(t *testing.T) {
		t.Parallel()
		store, path := newCSV(t)
		writeFile(t, path, "Name,Total_Counts\nSita,1\n")

		require.Empty(t, store.LoadAll(t.Context()))
	})

	t.Run("negative count is malformed", func(t *testing.T) {
		t.Parallel()
		store, path := newCSV(t)
		writeFile(t, path, "Phone,Name,Total_Counts\n9876543210,Sita,-5\n")

		require.Empty(t, store.LoadAll(t.Context()))
	})
}

func TestCSVUnreadableStore(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	sita := domain.NewDevotee("9876543210", "Sita", "Pune", now)

	t.Run("read errors keep the file and refuse writes", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		// Opening a directory succeeds but reading from it does not
		path := filepath.Join(t.TempDir(), "ram_seva_data.csv")
		require.NoError(t, os.Mkdir(path, 0o755))
		store := NewCSV(path)

		require.Empty(t, store.LoadAll(ctx))

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Empty(t, list)

		_, err = store.FindByPhone(ctx, sita.Phone)
		require.ErrorIs(t, err, domain.ErrDevoteeNotFound)

		err = store.Create(ctx, sita)
		require.ErrorIs(t, err, errUnreadableStore)

		_, err = store.Update(ctx, sita.Phone, func(d domain.Devotee) (domain.Devotee, error) { return d, nil })
		require.ErrorIs(t, err, errUnreadableStore)

		err = store.Delete(ctx, sita.Phone)
		require.ErrorIs(t, err, errUnreadableStore)

		err = store.SaveAll(ctx, []domain.Devotee{sita})
		require.ErrorIs(t, err, errUnreadableStore)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.True(t, info.IsDir())

		matches, err := filepath.Glob(path + ".malformed-*")
		require.NoError(t, err)
		require.Empty(t, matches)
	})

	t.Run("permission errors keep the file and refuse writes", func(t *testing.T) {
		t.Parallel()
		if os.Geteuid() == 0 {
			t.Skip("file permissions are not enforced for root")
		}
		ctx := t.Context()
		store, path := newCSV(t)
		content := "Phone,Name,Total_Counts\n0123456789,Ram,108\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o000))

		require.Empty(t, store.LoadAll(ctx))

		err := store.Create(ctx, sita)
		require.ErrorIs(t, err, errUnreadableStore)

		require.NoError(t, os.Chmod(path, 0o644))
		stored, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, content, string(stored))

		devotees := store.LoadAll(ctx)
		require.Len(t, devotees, 1)
		require.Equal(t, "Ram", devotees[0].Name)
	})
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	store, path := newCSV(t)
	registeredAt := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	devotees := []domain.Devotee{
		{
			Phone:          "9876543210",
			Name:           "Sita, the devoted",
			Location:       "Pune, IN",
			LifetimeCount:  324,
			TodayCount:     108,
			LastActiveDate: "2026-03-02",
			RegisteredAt:   registeredAt,
		},
	}

	require.NoError(t, store.SaveAll(t.Context(), devotees))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(
		t,
		"Phone,Name,Total_Counts,Last_Active,Today_Count,Location,Registered_At\n"+
			"9876543210,\"Sita, the devoted\",324,2026-03-02,108,\"Pune, IN\",2026-03-01T08:30:00Z\n",
		string(content),
	)

	loaded := store.LoadAll(t.Context())
	require.Len(t, loaded, 1)
	require.True(t, registeredAt.Equal(loaded[0].RegisteredAt))
	loaded[0].RegisteredAt = registeredAt
	require.Equal(t, devotees, loaded)
}

func TestCSVRepository(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 8, 30, 0, 0, time.UTC)
	sita := domain.NewDevotee("9876543210", "Sita", "Pune", now)
	ram := domain.NewDevotee("0123456789", "Ram", "Ayodhya", now)

	t.Run("create and find", func(t *testing.T) {
		t.Parallel()
		store, _ := newCSV(t)
		ctx := t.Context()

		_, err := store.FindByPhone(ctx, sita.Phone)
		require.ErrorIs(t, err, domain.ErrDevoteeNotFound)

		require.NoError(t, store.Create(ctx, sita))
		require.NoError(t, store.Create(ctx, ram))

		found, err := store.FindByPhone(ctx, sita.Phone)
		require.NoError(t, err)
		require.Equal(t, sita.Name, found.Name)

		found, err = store.FindByName(ctx, "SITA")
		require.NoError(t, err)
		require.Equal(t, sita.Phone, found.Phone)

		found, err = store.FindByName(ctx, "\u017fita")
		require.NoError(t, err)
		require.Equal(t, sita.Phone, found.Phone)

		_, err = store.FindByName(ctx, "Lakshman")
		require.ErrorIs(t, err, domain.ErrDevoteeNotFound)

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
	})

	t.Run("create conflicts", func(t *testing.T) {
		t.Parallel()
		store, _ := newCSV(t)
		ctx := t.Context()

		require.NoError(t, store.Create(ctx, sita))

		err := store.Create(ctx, domain.NewDevotee(sita.Phone, "Gita", "", now))
		require.ErrorIs(t, err, domain.ErrIdentityConflict)
		require.ErrorIs(t, err, domain.ErrPhoneBoundToOtherName)

		err = store.Create(ctx, domain.NewDevotee("1111111111", "sita", "", now))
		require.ErrorIs(t, err, domain.ErrIdentityConflict)
		require.ErrorIs(t, err, domain.ErrNameBoundToOtherPhone)
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		store, _ := newCSV(t)
		ctx := t.Context()

		require.NoError(t, store.Create(ctx, sita))

		updated, err := store.Update(ctx, sita.Phone, func(d domain.Devotee) (domain.Devotee, error) {
			d.Name = "Renamed"
			return d.Accrue(216)
		})
		require.NoError(t, err)
		require.Equal(t, int64(216), updated.TodayCount)
		require.Equal(t, "Sita", updated.Name)

		found, err := store.FindByPhone(ctx, sita.Phone)
		require.NoError(t, err)
		require.Equal(t, int64(216), found.LifetimeCount)
		require.Equal(t, "Sita", found.Name)

		_, err = store.Update(ctx, sita.Phone, func(d domain.Devotee) (domain.Devotee, error) {
			return d.OverwriteToday(-1)
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)

		found, err = store.FindByPhone(ctx, sita.Phone)
		require.NoError(t, err)
		require.Equal(t, int64(216), found.LifetimeCount)

		_, err = store.Update(ctx, "1111111111", func(d domain.Devotee) (domain.Devotee, error) {
			t.Helper()
			t.Fatal("should not be called")
			return d, nil
		})
		require.ErrorIs(t, err, domain.ErrDevoteeNotFound)
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		t.Parallel()
		store, _ := newCSV(t)
		ctx := t.Context()

		require.NoError(t, store.Create(ctx, sita))

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Update(ctx, sita.Phone, func(d domain.Devotee) (domain.Devotee, error) {
					return d.Accrue(108)
				})
				require.NoError(t, err)
			}()
		}
		wg.Wait()

		found, err := store.FindByPhone(ctx, sita.Phone)
		require.NoError(t, err)
		require.Equal(t, int64(20*108), found.LifetimeCount)
		require.Equal(t, int64(20*108), found.TodayCount)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		store, _ := newCSV(t)
		ctx := t.Context()

		require.NoError(t, store.Create(ctx, sita))
		require.NoError(t, store.Create(ctx, ram))

		require.NoError(t, store.Delete(ctx, sita.Phone))
		require.ErrorIs(t, store.Delete(ctx, sita.Phone), domain.ErrDevoteeNotFound)

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, ram.Phone, list[0].Phone)
	})
}
