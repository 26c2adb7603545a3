package snapshot

import (
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mmynk/carpool/internal/ledger"
	"github.com/mmynk/carpool/internal/models"
)

// Table is a header plus records, as read from a CSV file.
type Table struct {
	Header  []string
	Records [][]string
}

// DecodeOptions tunes how missing columns are defaulted.
type DecodeOptions struct {
	// DefaultFare is used for every row when the fare column is absent
	// altogether. A fare cell that is present but not a number becomes 0.
	DefaultFare int64
}

var requiredColumns = []string{ColDate, ColDriver, ColPassengers}

var dateLayouts = []string{"2006/01/02", "2006-01-02 15:04:05", time.RFC3339}

// parsedRow holds the typed values of one record once it passed validation.
type parsedRow struct {
	id         int64
	date       civil.Date
	direction  models.Direction
	driver     string
	passengers []string
	fare       int64
	vehicle    string
	notes      string
}

// Decode turns a table into legs in two phases: structural validation of the
// header and every record, collecting all problems, then pure construction.
// Nothing is built unless the whole table is valid.
func Decode(t Table, opts DecodeOptions) ([]models.TripLeg, error) {
	index, problems := mapHeader(t.Header)
	if len(problems) > 0 {
		return nil, &ledger.ImportFormatError{Problems: problems}
	}

	parsed := make([]parsedRow, 0, len(t.Records))
	for i, record := range t.Records {
		row, rowProblems := parseRecord(i+1, record, index, opts)
		problems = append(problems, rowProblems...)
		parsed = append(parsed, row)
	}
	if len(problems) > 0 {
		return nil, &ledger.ImportFormatError{Problems: problems}
	}

	return build(parsed), nil
}

// DecodeRows decodes rows already in the Columns layout.
func DecodeRows(rows []Row, opts DecodeOptions) ([]models.TripLeg, error) {
	t := Table{Header: Columns, Records: make([][]string, len(rows))}
	for i, r := range rows {
		t.Records[i] = r.Values()
	}
	return Decode(t, opts)
}

// ParseRow decodes a single row.
func ParseRow(r Row) (models.TripLeg, error) {
	legs, err := DecodeRows([]Row{r}, DecodeOptions{})
	if err != nil {
		return models.TripLeg{}, err
	}
	return legs[0], nil
}

func mapHeader(header []string) (map[string]int, []ledger.RowProblem) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var problems []ledger.RowProblem
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			problems = append(problems, ledger.RowProblem{Row: 0, Column: col, Reason: "missing required column"})
		}
	}
	return index, problems
}

func parseRecord(rowNum int, record []string, index map[string]int, opts DecodeOptions) (parsedRow, []ledger.RowProblem) {
	cell := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok {
			return "", false
		}
		if i >= len(record) {
			return "", true
		}
		return record[i], true
	}
	var problems []ledger.RowProblem
	fail := func(col, reason string) {
		problems = append(problems, ledger.RowProblem{Row: rowNum, Column: col, Reason: reason})
	}

	var row parsedRow

	idCell, _ := cell(ColID)
	row.id = coerceInt(idCell)

	dateCell, _ := cell(ColDate)
	d, err := parseDate(dateCell)
	if err != nil {
		fail(ColDate, "not a date: "+strconv.Quote(dateCell))
	}
	row.date = d

	// Rows from files without a direction column are outbound legs.
	row.direction = models.Outbound
	if dirCell, ok := cell(ColDirection); ok && strings.TrimSpace(dirCell) != "" {
		dir, err := models.ParseDirection(dirCell)
		if err != nil {
			fail(ColDirection, err.Error())
		}
		row.direction = dir
	}

	driverCell, _ := cell(ColDriver)
	row.driver = strings.TrimSpace(driverCell)
	if row.driver == "" {
		fail(ColDriver, "driver is required")
	}

	passengerCell, _ := cell(ColPassengers)
	row.passengers = splitPassengers(passengerCell)
	if len(row.passengers) == 0 {
		fail(ColPassengers, "at least one passenger is required")
	}

	if fareCell, ok := cell(ColFare); ok {
		row.fare = coerceInt(fareCell)
	} else {
		row.fare = opts.DefaultFare
	}
	if row.fare < 0 {
		fail(ColFare, "fare must not be negative")
	}

	vehicleCell, _ := cell(ColVehicle)
	row.vehicle = strings.TrimSpace(vehicleCell)
	if row.vehicle == "" {
		row.vehicle = row.driver
	}

	notesCell, _ := cell(ColNotes)
	row.notes = models.NormalizeNewlines(notesCell)
	return row, problems
}

func build(rows []parsedRow) []models.TripLeg {
	legs := make([]models.TripLeg, len(rows))
	for i, r := range rows {
		legs[i] = models.TripLeg{
			ID:         r.id,
			Date:       r.date,
			Direction:  r.direction,
			Driver:     r.driver,
			Passengers: r.passengers,
			FarePerLeg: r.fare,
			Vehicle:    r.vehicle,
			Notes:      r.notes,
		}
	}
	return legs
}

func parseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	d, err := civil.ParseDate(s)
	if err == nil {
		return d, nil
	}
	for _, layout := range dateLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, err
}

// coerceInt reads integers, and floats with no fractional part; anything
// else is 0.
func coerceInt(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return int64(f)
	}
	return 0
}
