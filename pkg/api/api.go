// Package api holds the wire messages of the carpool.v1 services.
//
// Messages are plain structs encoded as JSON (see Codec); field names follow
// the lowerCamelCase convention of protobuf JSON.
package api

// Leg is one trip leg as seen by clients.
type Leg struct {
	ID           int64    `json:"id"`
	Date         string   `json:"date"`      // yyyy-mm-dd
	Direction    string   `json:"direction"` // "Ida" or "Vuelta"
	Driver       string   `json:"driver"`
	Passengers   []string `json:"passengers"`
	FarePerLeg   int64    `json:"farePerLeg"`
	AmountForLeg int64    `json:"amountForLeg"`
	Vehicle      string   `json:"vehicle"`
	Notes        string   `json:"notes,omitempty"`
}

// LegFilter narrows a listing. Empty fields do not filter.
type LegFilter struct {
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
	Drivers []string `json:"drivers,omitempty"`
}

type AddTripRequest struct {
	Date string `json:"date"`
	// Direction is "Ida", "Vuelta" or "both".
	Direction  string   `json:"direction"`
	Driver     string   `json:"driver"`
	Passengers []string `json:"passengers"`
	// FarePerLeg defaults to the configured fare when omitted.
	FarePerLeg *int64 `json:"farePerLeg,omitempty"`
	Vehicle    string `json:"vehicle,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type AddTripResponse struct {
	Legs []Leg `json:"legs"`
}

// UpdateLegRequest changes only the fields that are set.
type UpdateLegRequest struct {
	ID         int64     `json:"id"`
	Date       *string   `json:"date,omitempty"`
	Direction  *string   `json:"direction,omitempty"`
	Driver     *string   `json:"driver,omitempty"`
	Passengers *[]string `json:"passengers,omitempty"`
	FarePerLeg *int64    `json:"farePerLeg,omitempty"`
	Vehicle    *string   `json:"vehicle,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
}

type UpdateLegResponse struct {
	Leg Leg `json:"leg"`
}

type RemoveLegsRequest struct {
	IDs []int64 `json:"ids"`
}

type RemoveLegsResponse struct {
	Removed int `json:"removed"`
}

type ListLegsRequest struct {
	Filter LegFilter `json:"filter"`
}

type ListLegsResponse struct {
	Legs []Leg `json:"legs"`
}

type GetSummaryRequest struct {
	Filter LegFilter `json:"filter"`
	// Period is "all" (default), "today" or "month".
	Period string `json:"period,omitempty"`
	// AsOf anchors today/month; defaults to the server's current date.
	AsOf string `json:"asOf,omitempty"`
}

// NamedAmount is one entry of a per-person total.
type NamedAmount struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// Matrix holds what each passenger owes each driver; Rows follow Passengers
// and each row follows Drivers.
type Matrix struct {
	Passengers []string  `json:"passengers"`
	Drivers    []string  `json:"drivers"`
	Rows       [][]int64 `json:"rows"`
}

type Balance struct {
	Participant string `json:"participant"`
	Owed        int64  `json:"owed"`
	Collectable int64  `json:"collectable"`
	Net         int64  `json:"net"`
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type GetSummaryResponse struct {
	AsOf         string        `json:"asOf"`
	Currency     string        `json:"currency"`
	Legs         int           `json:"legs"`
	Total        int64         `json:"total"`
	DriverTotals []NamedAmount `json:"driverTotals"`
	PersonOwed   []NamedAmount `json:"personOwed"`
	Matrix       Matrix        `json:"matrix"`
	Balances     []Balance     `json:"balances"`
	Transfers    []Transfer    `json:"transfers"`
}

type Settings struct {
	DefaultFare   int64    `json:"defaultFare"`
	Currency      string   `json:"currency"`
	Participants  []string `json:"participants"`
	Drivers       []string `json:"drivers"`
	DriverPays    bool     `json:"driverPays"`
	EnforceRoster bool     `json:"enforceRoster"`
	Backend       string   `json:"backend"`
}

type GetSettingsRequest struct{}

type GetSettingsResponse struct {
	Settings Settings `json:"settings"`
}

type UpdateSettingsRequest struct {
	DefaultFare *int64 `json:"defaultFare,omitempty"`
}

type UpdateSettingsResponse struct {
	Settings Settings `json:"settings"`
}

type ExportSnapshotRequest struct {
	// Backup names the file with a timestamp instead of trips.csv.
	Backup bool `json:"backup,omitempty"`
}

type ExportSnapshotResponse struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"` // CSV, base64 in JSON
}

type ImportSnapshotRequest struct {
	Content []byte `json:"content"`
}

type ImportSnapshotResponse struct {
	Imported int `json:"imported"`
}

type ExportReportRequest struct {
	Filter LegFilter `json:"filter"`
	Period string    `json:"period,omitempty"`
	AsOf   string    `json:"asOf,omitempty"`
}

type ExportReportResponse struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"` // xlsx
}

type ListSavesRequest struct {
	Limit int `json:"limit,omitempty"`
}

type Save struct {
	ID      string `json:"id"`
	SavedAt string `json:"savedAt"` // RFC 3339
	Rows    int    `json:"rows"`
}

type ListSavesResponse struct {
	// Supported is false when the backend keeps no save log.
	Supported bool   `json:"supported"`
	Saves     []Save `json:"saves"`
}

type LoginRequest struct {
	Name       string `json:"name,omitempty"`
	Passphrase string `json:"passphrase"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"` // RFC 3339
}
