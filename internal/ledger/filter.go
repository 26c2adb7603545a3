package ledger

import (
	"cmp"
	"slices"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mmynk/carpool/internal/models"
)

// Filter narrows a set of legs for historical views.
// Nil bounds are open; an empty driver list lets every driver through.
type Filter struct {
	From    *civil.Date
	To      *civil.Date
	Drivers []string
}

// Today matches the legs dated asOf.
func Today(asOf civil.Date) Filter {
	return Filter{From: &asOf, To: &asOf}
}

// CurrentMonth matches the legs in asOf's calendar month.
func CurrentMonth(asOf civil.Date) Filter {
	first := civil.Date{Year: asOf.Year, Month: asOf.Month, Day: 1}
	last := civil.DateOf(time.Date(asOf.Year, asOf.Month+1, 0, 0, 0, 0, 0, time.UTC))
	return Filter{From: &first, To: &last}
}

// Match reports whether leg passes the filter. Both bounds are inclusive.
func (f Filter) Match(leg models.TripLeg) bool {
	if f.From != nil && leg.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && leg.Date.After(*f.To) {
		return false
	}
	if len(f.Drivers) > 0 && !slices.Contains(f.Drivers, leg.Driver) {
		return false
	}
	return true
}

// FilterLegs returns copies of the matching legs in list order.
func FilterLegs(legs []models.TripLeg, f Filter) []models.TripLeg {
	out := make([]models.TripLeg, 0, len(legs))
	for _, leg := range legs {
		if f.Match(leg) {
			out = append(out, leg.Clone())
		}
	}
	SortLegs(out)
	return out
}

// SortLegs orders legs by date, direction (Ida before Vuelta) and driver.
// Ties keep their existing order.
func SortLegs(legs []models.TripLeg) {
	slices.SortStableFunc(legs, func(a, b models.TripLeg) int {
		if c := compareDates(a.Date, b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Direction, b.Direction); c != 0 {
			return c
		}
		return cmp.Compare(a.Driver, b.Driver)
	})
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
