package calendarprovider

import (
	"context"
	"slices"

	"github.com/Amund211/japa/internal/domain"
)

const (
	CATEGORY_RAM_FESTIVALS = "राम उत्सव"
	CATEGORY_EKADASHI      = "मुख्य एकादशी"
	CATEGORY_VRAT          = "पावन व्रत"
)

var festivals2026 = []domain.Festival{
	{Category: CATEGORY_RAM_FESTIVALS, Name: "राम नवमी", Date: "2026-03-27"},
	{Category: CATEGORY_RAM_FESTIVALS, Name: "हनुमान जयंती", Date: "2026-04-12"},
	{Category: CATEGORY_RAM_FESTIVALS, Name: "विजयादशमी", Date: "2026-10-20"},
	{Category: CATEGORY_RAM_FESTIVALS, Name: "दीपावली", Date: "2026-11-09"},

	{Category: CATEGORY_EKADASHI, Name: "षटतिला एकादशी", Date: "2026-01-14"},
	{Category: CATEGORY_EKADASHI, Name: "जया एकादशी", Date: "2026-01-29"},
	{Category: CATEGORY_EKADASHI, Name: "आमलकी एकादशी", Date: "2026-03-14"},

	{Category: CATEGORY_VRAT, Name: "महाशिवरात्रि", Date: "2026-02-15"},
	{Category: CATEGORY_VRAT, Name: "होली", Date: "2026-03-14"},
	{Category: CATEGORY_VRAT, Name: "गणेश चतुर्थी", Date: "2026-08-27"},
}

type CalendarProvider interface {
	GetFestivals(ctx context.Context) ([]domain.Festival, error)
}

// Hard-coded festival table, grouped by category
type Static struct {
	festivals []domain.Festival
}

func NewStatic() *Static {
	return &Static{festivals: festivals2026}
}

func (s *Static) GetFestivals(ctx context.Context) ([]domain.Festival, error) {
	return slices.Clone(s.festivals), nil
}
