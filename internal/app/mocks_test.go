package app_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/strutils"
	"github.com/stretchr/testify/require"
)

// In-memory repository holding one lock for every operation
type fakeRepository struct {
	t *testing.T

	mutex    sync.Mutex
	devotees []domain.Devotee

	findErr   error
	createErr error
	listCalls int
}

func newFakeRepository(t *testing.T, devotees ...domain.Devotee) *fakeRepository {
	return &fakeRepository{
		t:        t,
		devotees: slices.Clone(devotees),
	}
}

func (r *fakeRepository) FindByPhone(ctx context.Context, phone string) (domain.Devotee, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.findErr != nil {
		return domain.Devotee{}, r.findErr
	}
	for _, d := range r.devotees {
		if d.Phone == phone {
			return d, nil
		}
	}
	return domain.Devotee{}, domain.ErrDevoteeNotFound
}

func (r *fakeRepository) FindByName(ctx context.Context, name string) (domain.Devotee, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.findErr != nil {
		return domain.Devotee{}, r.findErr
	}
	for _, d := range r.devotees {
		if strutils.NamesEqual(d.Name, name) {
			return d, nil
		}
	}
	return domain.Devotee{}, domain.ErrDevoteeNotFound
}

func (r *fakeRepository) Create(ctx context.Context, devotee domain.Devotee) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	r.devotees = append(r.devotees, devotee)
	return nil
}

func (r *fakeRepository) Update(ctx context.Context, phone string, update func(domain.Devotee) (domain.Devotee, error)) (domain.Devotee, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, d := range r.devotees {
		if d.Phone != phone {
			continue
		}
		updated, err := update(d)
		if err != nil {
			return domain.Devotee{}, err
		}
		r.devotees[i] = updated
		return updated, nil
	}
	return domain.Devotee{}, domain.ErrDevoteeNotFound
}

func (r *fakeRepository) List(ctx context.Context) ([]domain.Devotee, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.listCalls++
	return slices.Clone(r.devotees), nil
}

func (r *fakeRepository) Delete(ctx context.Context, phone string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	remaining := slices.DeleteFunc(slices.Clone(r.devotees), func(d domain.Devotee) bool { return d.Phone == phone })
	if len(remaining) == len(r.devotees) {
		return domain.ErrDevoteeNotFound
	}
	r.devotees = remaining
	return nil
}

func (r *fakeRepository) get(phone string) domain.Devotee {
	r.t.Helper()
	d, err := r.FindByPhone(context.Background(), phone)
	require.NoError(r.t, err)
	return d
}

type mockLocationProvider struct {
	t *testing.T

	lookupLocationIP       string
	lookupLocationCalled   bool
	lookupLocationLocation string
	lookupLocationErr      error
}

func (m *mockLocationProvider) LookupLocation(ctx context.Context, ip string) (string, error) {
	m.t.Helper()
	require.Equal(m.t, m.lookupLocationIP, ip)

	_, hasDeadline := ctx.Deadline()
	require.True(m.t, hasDeadline)

	require.False(m.t, m.lookupLocationCalled)

	m.lookupLocationCalled = true
	return m.lookupLocationLocation, m.lookupLocationErr
}
