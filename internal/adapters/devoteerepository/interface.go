package devoteerepository

import (
	"context"

	"github.com/Amund211/japa/internal/domain"
)

// Applied to the stored devotee while the repository holds it exclusively
type UpdateFunc = func(devotee domain.Devotee) (domain.Devotee, error)

type DevoteeRepository interface {
	// Returns domain.ErrDevoteeNotFound if no devotee has this phone
	FindByPhone(ctx context.Context, phone string) (domain.Devotee, error)
	// Case-insensitive. Returns domain.ErrDevoteeNotFound if no devotee has this name
	FindByName(ctx context.Context, name string) (domain.Devotee, error)
	// Returns domain.ErrIdentityConflict if the phone or the name is taken
	Create(ctx context.Context, devotee domain.Devotee) error
	// Phone and name are never changed by an update
	Update(ctx context.Context, phone string, update UpdateFunc) (domain.Devotee, error)
	List(ctx context.Context) ([]domain.Devotee, error)
	Delete(ctx context.Context, phone string) error
}
