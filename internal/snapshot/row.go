// Package snapshot converts between trip legs and the raw rows persistence
// backends store: id, date, direction, driver, passengers, fare_per_leg,
// vehicle, notes. Every value in a raw row is a string.
package snapshot

import (
	"strconv"
	"strings"

	"github.com/mmynk/carpool/internal/models"
)

// Column names, in the order rows are written.
const (
	ColID         = "id"
	ColDate       = "date"
	ColDirection  = "direction"
	ColDriver     = "driver"
	ColPassengers = "passengers"
	ColFare       = "fare_per_leg"
	ColVehicle    = "vehicle"
	ColNotes      = "notes"
)

// Columns is the header written by every backend.
var Columns = []string{ColID, ColDate, ColDirection, ColDriver, ColPassengers, ColFare, ColVehicle, ColNotes}

// aliases maps older header spellings onto the current column names.
var aliases = map[string]string{
	"row_id":       ColID,
	"leg":          ColDirection,
	"car":          ColVehicle,
	"fare":         ColFare,
	"fareperleg":   ColFare,
	"fare_per_leg": ColFare,
}

const passengerSeparator = ", "

// Row is one raw snapshot record.
type Row struct {
	ID         string
	Date       string
	Direction  string
	Driver     string
	Passengers string
	FarePerLeg string
	Vehicle    string
	Notes      string
}

// Values returns the cells in Columns order.
func (r Row) Values() []string {
	return []string{r.ID, r.Date, r.Direction, r.Driver, r.Passengers, r.FarePerLeg, r.Vehicle, r.Notes}
}

// RowFromValues is the inverse of Values. Missing trailing cells are empty.
func RowFromValues(values []string) Row {
	cell := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	return Row{
		ID:         cell(0),
		Date:       cell(1),
		Direction:  cell(2),
		Driver:     cell(3),
		Passengers: cell(4),
		FarePerLeg: cell(5),
		Vehicle:    cell(6),
		Notes:      cell(7),
	}
}

// FormatRow serializes a leg.
func FormatRow(leg models.TripLeg) Row {
	return Row{
		ID:         strconv.FormatInt(leg.ID, 10),
		Date:       leg.Date.String(),
		Direction:  leg.Direction.String(),
		Driver:     leg.Driver,
		Passengers: strings.Join(leg.Passengers, passengerSeparator),
		FarePerLeg: strconv.FormatInt(leg.FarePerLeg, 10),
		Vehicle:    leg.Vehicle,
		Notes:      leg.Notes,
	}
}

// FormatRows serializes legs in order.
func FormatRows(legs []models.TripLeg) []Row {
	rows := make([]Row, len(legs))
	for i, leg := range legs {
		rows[i] = FormatRow(leg)
	}
	return rows
}

// splitPassengers accepts both "," and ";" as separators.
func splitPassengers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
