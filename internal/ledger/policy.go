package ledger

import (
	"slices"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/mmynk/carpool/internal/models"
)

// MaxLegAmount caps what a single leg may bill in total, so ledger sums over
// many legs stay well inside int64.
const MaxLegAmount int64 = 1 << 40

// Policy holds the injected rules a leg is validated against.
type Policy struct {
	Roster models.Roster

	// EnforceRoster rejects drivers and passengers outside the roster.
	EnforceRoster bool

	// DriverPays keeps the driver in the passenger list when given, so the
	// driver is billed like any rider (the self allocation nets to zero).
	DriverPays bool
}

// NormalizePassengers trims names, drops blanks and duplicates, and removes
// the driver unless the driver-pays policy is on. Order is preserved.
func (p Policy) NormalizePassengers(driver string, passengers []string) []string {
	out := make([]string, 0, len(passengers))
	for _, name := range passengers {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		if name == driver && !p.DriverPays {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Validate checks a leg that is about to enter the store.
// Legacy legs may carry the driver among the passengers; that is tolerated,
// but at least one rider other than the driver is always required.
func (p Policy) Validate(leg models.TripLeg) error {
	if leg.Date == (civil.Date{}) || !leg.Date.IsValid() {
		return &ValidationError{Field: "date", Value: leg.Date.String(), Reason: "a calendar date is required"}
	}
	if !leg.Direction.Valid() {
		return &ValidationError{Field: "direction", Value: leg.Direction.String(), Reason: "must be Ida or Vuelta"}
	}
	if err := validateName("driver", leg.Driver); err != nil {
		return err
	}
	if leg.FarePerLeg < 0 {
		return &ValidationError{Field: "fare_per_leg", Value: strconv.FormatInt(leg.FarePerLeg, 10), Reason: "must not be negative"}
	}

	riders := 0
	for _, name := range leg.Passengers {
		if err := validateName("passengers", name); err != nil {
			return err
		}
		if name != leg.Driver {
			riders++
		}
	}
	if riders == 0 {
		return &ValidationError{Field: "passengers", Reason: "at least one rider besides the driver is required"}
	}
	if leg.FarePerLeg > MaxLegAmount/int64(len(leg.Passengers)) {
		return &ValidationError{
			Field:  "fare_per_leg",
			Value:  strconv.FormatInt(leg.FarePerLeg, 10),
			Reason: "leg total exceeds " + strconv.FormatInt(MaxLegAmount, 10),
		}
	}

	if p.EnforceRoster {
		if !p.Roster.IsDriver(leg.Driver) {
			return &ValidationError{Field: "driver", Value: leg.Driver, Reason: "not a configured driver"}
		}
		for _, name := range leg.Passengers {
			if !p.Roster.IsParticipant(name) {
				return &ValidationError{Field: "passengers", Value: name, Reason: "not on the roster"}
			}
		}
	}
	return nil
}

// Names end up in a delimited snapshot column, so the delimiters are reserved.
func validateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: field, Reason: "name is required"}
	}
	if strings.ContainsAny(name, ",;") {
		return &ValidationError{Field: field, Value: name, Reason: "name must not contain ',' or ';'"}
	}
	return nil
}
