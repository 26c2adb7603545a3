package models

import (
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
)

// Direction is the way a leg travels between the two towns.
type Direction int

const (
	// Outbound is the morning leg ("Ida").
	Outbound Direction = iota + 1
	// Return is the way back ("Vuelta").
	Return
)

// String returns the label used in snapshots and reports.
func (d Direction) String() string {
	switch d {
	case Outbound:
		return "Ida"
	case Return:
		return "Vuelta"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == Outbound || d == Return
}

// ParseDirection accepts the snapshot labels as well as the English names.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ida", "outbound", "out":
		return Outbound, nil
	case "vuelta", "return", "back":
		return Return, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// LegSelection is what the caller picks when recording a trip: one leg or both.
type LegSelection int

const (
	SelectOutbound LegSelection = iota + 1
	SelectReturn
	SelectBoth
)

// Directions expands the selection into the legs to create, outbound first.
func (s LegSelection) Directions() []Direction {
	switch s {
	case SelectOutbound:
		return []Direction{Outbound}
	case SelectReturn:
		return []Direction{Return}
	case SelectBoth:
		return []Direction{Outbound, Return}
	default:
		return nil
	}
}

// ParseLegSelection accepts "outbound", "return" or "both" (and the Spanish labels).
func ParseLegSelection(s string) (LegSelection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ida", "outbound", "out":
		return SelectOutbound, nil
	case "vuelta", "return", "back":
		return SelectReturn, nil
	case "both", "ambos", "ida y vuelta", "round":
		return SelectBoth, nil
	}
	return 0, fmt.Errorf("unknown leg selection %q", s)
}

// TripLeg is one directional trip on a given date by one driver.
type TripLeg struct {
	// ID is assigned by the ledger store and never changes.
	ID int64

	// Date is the calendar day of the leg.
	Date civil.Date

	Direction Direction

	// Driver is the participant who drove and collects the fares.
	Driver string

	// Passengers are the riders billed for this leg, in the order they were given.
	// The driver only appears here on imported legacy rows or when the
	// driver-pays policy is enabled.
	Passengers []string

	// FarePerLeg is frozen when the leg is created; later changes to the
	// default fare never touch it.
	FarePerLeg int64

	// Vehicle defaults to the driver's name.
	Vehicle string

	Notes string
}

// AmountForLeg is the total the driver collects for this leg.
func (l TripLeg) AmountForLeg() int64 {
	return l.FarePerLeg * int64(len(l.Passengers))
}

// NormalizeNewlines rewrites CRLF and lone CR line breaks as LF, the only
// form a CSV snapshot reads back.
func NormalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

// Clone returns a copy that shares no memory with l.
func (l TripLeg) Clone() TripLeg {
	l.Passengers = slices.Clone(l.Passengers)
	return l
}
