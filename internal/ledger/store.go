// Package ledger owns the canonical collection of trip legs.
//
// The Store is a plain in-memory value owned by one session. It has no
// locking: callers serialize access (see internal/session).
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/mmynk/carpool/internal/models"
)

// NewTrip is what a caller submits to record one leg or a round trip.
type NewTrip struct {
	Date       civil.Date
	Selection  models.LegSelection
	Driver     string
	Passengers []string
	FarePerLeg int64
	Vehicle    string
	Notes      string
}

// LegUpdate is a field-level edit; nil fields are left unchanged.
type LegUpdate struct {
	Date       *civil.Date
	Direction  *models.Direction
	Driver     *string
	Passengers *[]string
	FarePerLeg *int64
	Vehicle    *string
	Notes      *string
}

// MaxLegID is the largest id the store assigns or adopts. Imported ids above
// it are treated as invalid and reassigned.
const MaxLegID int64 = 1<<53 - 1

// Store holds trip legs in insertion order and assigns their ids.
type Store struct {
	policy Policy
	legs   []models.TripLeg
	nextID int64
}

// NewStore creates an empty store validating against policy.
func NewStore(policy Policy) *Store {
	return &Store{policy: policy, nextID: 1}
}

// Policy returns the rules the store validates with.
func (s *Store) Policy() Policy {
	return s.policy
}

// Len returns the number of legs in the store.
func (s *Store) Len() int {
	return len(s.legs)
}

// AddRoundTrip records one leg, or two legs (Ida then Vuelta) sharing every
// field when the selection is SelectBoth. Nothing is stored unless every leg
// validates.
func (s *Store) AddRoundTrip(trip NewTrip) ([]models.TripLeg, error) {
	dirs := trip.Selection.Directions()
	if len(dirs) == 0 {
		return nil, &ValidationError{Field: "direction", Reason: "choose Ida, Vuelta or both"}
	}

	if s.nextID > MaxLegID-int64(len(dirs))+1 {
		return nil, &ValidationError{Field: "id", Value: strconv.FormatInt(s.nextID, 10), Reason: "no leg ids left"}
	}

	driver := strings.TrimSpace(trip.Driver)
	passengers := s.policy.NormalizePassengers(driver, trip.Passengers)
	vehicle := strings.TrimSpace(trip.Vehicle)
	if vehicle == "" {
		vehicle = driver
	}

	created := make([]models.TripLeg, 0, len(dirs))
	for i, dir := range dirs {
		leg := models.TripLeg{
			ID:         s.nextID + int64(i),
			Date:       trip.Date,
			Direction:  dir,
			Driver:     driver,
			Passengers: slices.Clone(passengers),
			FarePerLeg: trip.FarePerLeg,
			Vehicle:    vehicle,
			Notes:      cleanNotes(trip.Notes),
		}
		if err := s.policy.Validate(leg); err != nil {
			return nil, err
		}
		created = append(created, leg)
	}

	s.nextID += int64(len(created))
	s.legs = append(s.legs, created...)
	return cloneLegs(created), nil
}

// Get returns the leg with the given id.
func (s *Store) Get(id int64) (models.TripLeg, error) {
	i := s.index(id)
	if i < 0 {
		return models.TripLeg{}, &NotFoundError{ID: id}
	}
	return s.legs[i].Clone(), nil
}

// Update applies a field-level edit. The id never changes and the edited leg
// is validated as a whole before it replaces the stored one.
func (s *Store) Update(id int64, upd LegUpdate) (models.TripLeg, error) {
	i := s.index(id)
	if i < 0 {
		return models.TripLeg{}, &NotFoundError{ID: id}
	}
	leg := s.legs[i].Clone()

	if upd.Date != nil {
		leg.Date = *upd.Date
	}
	if upd.Direction != nil {
		leg.Direction = *upd.Direction
	}
	if upd.Driver != nil {
		driver := strings.TrimSpace(*upd.Driver)
		// A vehicle that was just the driver's default follows the new driver.
		if upd.Vehicle == nil && leg.Vehicle == leg.Driver {
			leg.Vehicle = driver
		}
		leg.Driver = driver
		leg.Passengers = s.policy.NormalizePassengers(driver, leg.Passengers)
	}
	if upd.Passengers != nil {
		leg.Passengers = s.policy.NormalizePassengers(leg.Driver, *upd.Passengers)
	}
	if upd.FarePerLeg != nil {
		leg.FarePerLeg = *upd.FarePerLeg
	}
	if upd.Vehicle != nil {
		leg.Vehicle = strings.TrimSpace(*upd.Vehicle)
		if leg.Vehicle == "" {
			leg.Vehicle = leg.Driver
		}
	}
	if upd.Notes != nil {
		leg.Notes = cleanNotes(*upd.Notes)
	}

	if err := s.policy.Validate(leg); err != nil {
		return models.TripLeg{}, err
	}
	s.legs[i] = leg
	return leg.Clone(), nil
}

// Remove deletes the legs with the given ids and returns how many existed.
// Unknown ids are ignored.
func (s *Store) Remove(ids ...int64) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	before := len(s.legs)
	s.legs = slices.DeleteFunc(s.legs, func(leg models.TripLeg) bool {
		return drop[leg.ID]
	})
	return before - len(s.legs)
}

// List returns the legs matching f ordered by date, direction and driver.
func (s *Store) List(f Filter) []models.TripLeg {
	return FilterLegs(s.legs, f)
}

// Snapshot returns every leg in insertion order, for persistence.
func (s *Store) Snapshot() []models.TripLeg {
	return cloneLegs(s.legs)
}

// ReplaceAll swaps the whole content of the store for legs, as an import does.
// Every leg is validated first; on any problem the store is left untouched.
// If any id is missing, non-positive or duplicated, ids are reassigned 1..N in
// the given order; otherwise they are kept and the counter moves past the max.
func (s *Store) ReplaceAll(legs []models.TripLeg) error {
	var problems []RowProblem
	for i, leg := range legs {
		if err := s.policy.Validate(leg); err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				return fmt.Errorf("failed to validate row %d: %w", i+1, err)
			}
			reason := ve.Reason
			if ve.Value != "" {
				reason = fmt.Sprintf("%q %s", ve.Value, ve.Reason)
			}
			problems = append(problems, RowProblem{Row: i + 1, Column: ve.Field, Reason: reason})
		}
	}
	if len(problems) > 0 {
		return &ImportFormatError{Problems: problems}
	}

	replaced := cloneLegs(legs)
	if needsNewIDs(replaced) {
		for i := range replaced {
			replaced[i].ID = int64(i + 1)
		}
	}

	var maxID int64
	for _, leg := range replaced {
		maxID = max(maxID, leg.ID)
	}
	s.legs = replaced
	s.nextID = max(s.nextID, maxID+1)
	return nil
}

func (s *Store) index(id int64) int {
	return slices.IndexFunc(s.legs, func(leg models.TripLeg) bool {
		return leg.ID == id
	})
}

func cleanNotes(notes string) string {
	return strings.TrimSpace(models.NormalizeNewlines(notes))
}

func needsNewIDs(legs []models.TripLeg) bool {
	seen := make(map[int64]bool, len(legs))
	for _, leg := range legs {
		if leg.ID <= 0 || leg.ID > MaxLegID || seen[leg.ID] {
			return true
		}
		seen[leg.ID] = true
	}
	return false
}

func cloneLegs(legs []models.TripLeg) []models.TripLeg {
	out := make([]models.TripLeg, len(legs))
	for i, leg := range legs {
		out[i] = leg.Clone()
	}
	return out
}
