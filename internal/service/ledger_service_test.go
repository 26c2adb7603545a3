package service

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/carpool/internal/ledger"
	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/session"
	"github.com/mmynk/carpool/internal/storage/sqlite"
	"github.com/mmynk/carpool/pkg/api"
	"github.com/mmynk/carpool/pkg/api/apiconnect"
)

var testRoster = models.Roster{
	Participants: []string{"Wilson", "Valentina", "JP", "Gerard", "Paula"},
	Drivers:      []string{"Wilson", "Valentina"},
}

// setupTestServer serves a LedgerService backed by a temporary SQLite database.
func setupTestServer(t *testing.T) (apiconnect.LedgerServiceClient, func()) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	sess := session.New(store, session.Options{
		Policy:   ledger.Policy{Roster: testRoster, EnforceRoster: true},
		Settings: session.Settings{DefaultFare: 1250, Currency: "CLP"},
		Now:      func() time.Time { return time.Date(2025, time.January, 10, 18, 0, 0, 0, time.UTC) },
	})
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("failed to load session: %v", err)
	}

	path, handler := apiconnect.NewLedgerServiceHandler(NewLedgerService(sess))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	client := apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL)

	cleanup := func() {
		server.Close()
		store.Close()
	}
	return client, cleanup
}

func addTrip(t *testing.T, client apiconnect.LedgerServiceClient, req *api.AddTripRequest) []api.Leg {
	t.Helper()
	resp, err := client.AddTrip(context.Background(), connect.NewRequest(req))
	if err != nil {
		t.Fatalf("AddTrip failed: %v", err)
	}
	return resp.Msg.Legs
}

func TestAddTrip(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	legs := addTrip(t, client, &api.AddTripRequest{
		Date:       "2025-01-10",
		Direction:  "both",
		Driver:     "Wilson",
		Passengers: []string{"Paula", "Wilson", "JP"},
	})

	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}
	if legs[0].Direction != "Ida" || legs[1].Direction != "Vuelta" {
		t.Errorf("directions: expected Ida, Vuelta, got %s, %s", legs[0].Direction, legs[1].Direction)
	}
	for _, leg := range legs {
		if leg.FarePerLeg != 1250 {
			t.Errorf("leg %d fare: expected 1250, got %d", leg.ID, leg.FarePerLeg)
		}
		if len(leg.Passengers) != 2 {
			t.Errorf("leg %d: expected driver to be dropped from passengers, got %v", leg.ID, leg.Passengers)
		}
		if leg.AmountForLeg != 2500 {
			t.Errorf("leg %d amount: expected 2500, got %d", leg.ID, leg.AmountForLeg)
		}
		if leg.Vehicle != "Wilson" {
			t.Errorf("leg %d vehicle: expected Wilson, got %q", leg.ID, leg.Vehicle)
		}
	}
}

func TestAddTrip_DefaultsDateToToday(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	fare := int64(1500)
	legs := addTrip(t, client, &api.AddTripRequest{
		Direction:  "Vuelta",
		Driver:     "Valentina",
		Passengers: []string{"Gerard"},
		FarePerLeg: &fare,
	})

	if len(legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(legs))
	}
	if legs[0].Date != "2025-01-10" {
		t.Errorf("date: expected 2025-01-10, got %s", legs[0].Date)
	}
	if legs[0].FarePerLeg != 1500 {
		t.Errorf("fare: expected 1500, got %d", legs[0].FarePerLeg)
	}
}

func TestAddTrip_Invalid(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	tests := []struct {
		name string
		req  *api.AddTripRequest
	}{
		{"bad date", &api.AddTripRequest{Date: "10/01/2025", Direction: "Ida", Driver: "Wilson", Passengers: []string{"Paula"}}},
		{"bad direction", &api.AddTripRequest{Date: "2025-01-10", Direction: "sideways", Driver: "Wilson", Passengers: []string{"Paula"}}},
		{"not a driver", &api.AddTripRequest{Date: "2025-01-10", Direction: "Ida", Driver: "Paula", Passengers: []string{"JP"}}},
		{"only the driver", &api.AddTripRequest{Date: "2025-01-10", Direction: "Ida", Driver: "Wilson", Passengers: []string{"Wilson"}}},
		{"stranger", &api.AddTripRequest{Date: "2025-01-10", Direction: "Ida", Driver: "Wilson", Passengers: []string{"Mallory"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.AddTrip(context.Background(), connect.NewRequest(tt.req))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if code := connect.CodeOf(err); code != connect.CodeInvalidArgument {
				t.Errorf("expected InvalidArgument, got %v", code)
			}
		})
	}

	resp, err := client.ListLegs(context.Background(), connect.NewRequest(&api.ListLegsRequest{}))
	if err != nil {
		t.Fatalf("ListLegs failed: %v", err)
	}
	if len(resp.Msg.Legs) != 0 {
		t.Errorf("expected no legs after rejected trips, got %d", len(resp.Msg.Legs))
	}
}

func TestUpdateLeg(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	legs := addTrip(t, client, &api.AddTripRequest{
		Date: "2025-01-08", Direction: "Ida", Driver: "Wilson", Passengers: []string{"Paula"},
	})

	driver := "Valentina"
	passengers := []string{"Paula", "JP"}
	resp, err := client.UpdateLeg(context.Background(), connect.NewRequest(&api.UpdateLegRequest{
		ID:         legs[0].ID,
		Driver:     &driver,
		Passengers: &passengers,
	}))
	if err != nil {
		t.Fatalf("UpdateLeg failed: %v", err)
	}

	leg := resp.Msg.Leg
	if leg.ID != legs[0].ID {
		t.Errorf("id changed: %d -> %d", legs[0].ID, leg.ID)
	}
	if leg.Driver != "Valentina" || leg.Vehicle != "Valentina" {
		t.Errorf("expected driver and vehicle Valentina, got %s / %s", leg.Driver, leg.Vehicle)
	}
	if leg.AmountForLeg != 2500 {
		t.Errorf("amount: expected 2500, got %d", leg.AmountForLeg)
	}
	if leg.Date != "2025-01-08" {
		t.Errorf("date should be unchanged, got %s", leg.Date)
	}
}

func TestUpdateLeg_NotFound(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	notes := "late"
	_, err := client.UpdateLeg(context.Background(), connect.NewRequest(&api.UpdateLegRequest{ID: 42, Notes: &notes}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRemoveLegs(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	legs := addTrip(t, client, &api.AddTripRequest{
		Date: "2025-01-09", Direction: "both", Driver: "Wilson", Passengers: []string{"JP"},
	})

	resp, err := client.RemoveLegs(context.Background(), connect.NewRequest(&api.RemoveLegsRequest{
		IDs: []int64{legs[0].ID, 999},
	}))
	if err != nil {
		t.Fatalf("RemoveLegs failed: %v", err)
	}
	if resp.Msg.Removed != 1 {
		t.Errorf("removed: expected 1, got %d", resp.Msg.Removed)
	}

	list, err := client.ListLegs(context.Background(), connect.NewRequest(&api.ListLegsRequest{}))
	if err != nil {
		t.Fatalf("ListLegs failed: %v", err)
	}
	if len(list.Msg.Legs) != 1 || list.Msg.Legs[0].ID != legs[1].ID {
		t.Errorf("expected only leg %d to remain, got %+v", legs[1].ID, list.Msg.Legs)
	}
}

func TestListLegs_Filter(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-10", Direction: "Vuelta", Driver: "Wilson", Passengers: []string{"JP"}})
	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-02", Direction: "Ida", Driver: "Valentina", Passengers: []string{"JP"}})
	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-10", Direction: "Ida", Driver: "Wilson", Passengers: []string{"Paula"}})

	resp, err := client.ListLegs(context.Background(), connect.NewRequest(&api.ListLegsRequest{
		Filter: api.LegFilter{From: "2025-01-05", Drivers: []string{"Wilson"}},
	}))
	if err != nil {
		t.Fatalf("ListLegs failed: %v", err)
	}
	if len(resp.Msg.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(resp.Msg.Legs))
	}
	if resp.Msg.Legs[0].Direction != "Ida" || resp.Msg.Legs[1].Direction != "Vuelta" {
		t.Errorf("expected Ida before Vuelta, got %s, %s", resp.Msg.Legs[0].Direction, resp.Msg.Legs[1].Direction)
	}

	_, err = client.ListLegs(context.Background(), connect.NewRequest(&api.ListLegsRequest{
		Filter: api.LegFilter{From: "2025-01-10", To: "2025-01-01"},
	}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument for inverted range, got %v", err)
	}
}

func TestGetSummary(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-10", Direction: "both", Driver: "Wilson", Passengers: []string{"Paula", "JP"}})
	addTrip(t, client, &api.AddTripRequest{Date: "2024-12-30", Direction: "Ida", Driver: "Valentina", Passengers: []string{"Paula"}})

	resp, err := client.GetSummary(context.Background(), connect.NewRequest(&api.GetSummaryRequest{}))
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	s := resp.Msg
	if s.Legs != 3 {
		t.Errorf("legs: expected 3, got %d", s.Legs)
	}
	if s.Total != 6250 {
		t.Errorf("total: expected 6250, got %d", s.Total)
	}
	if s.Currency != "CLP" || s.AsOf != "2025-01-10" {
		t.Errorf("expected CLP as of 2025-01-10, got %s as of %s", s.Currency, s.AsOf)
	}

	owed := map[string]int64{}
	for _, p := range s.PersonOwed {
		owed[p.Name] = p.Amount
	}
	if owed["Paula"] != 3750 || owed["JP"] != 2500 {
		t.Errorf("person owed: expected Paula 3750 and JP 2500, got %v", owed)
	}

	if len(s.Matrix.Rows) != len(s.Matrix.Passengers) {
		t.Fatalf("matrix has %d rows for %d passengers", len(s.Matrix.Rows), len(s.Matrix.Passengers))
	}
	for i, p := range s.Matrix.Passengers {
		var sum int64
		for _, v := range s.Matrix.Rows[i] {
			sum += v
		}
		if sum != owed[p] {
			t.Errorf("matrix row %s sums to %d, expected %d", p, sum, owed[p])
		}
	}

	var net int64
	for _, b := range s.Balances {
		net += b.Net
	}
	if net != 0 {
		t.Errorf("balances should net to zero, got %d", net)
	}

	month, err := client.GetSummary(context.Background(), connect.NewRequest(&api.GetSummaryRequest{Period: "month"}))
	if err != nil {
		t.Fatalf("GetSummary(month) failed: %v", err)
	}
	if month.Msg.Total != 5000 {
		t.Errorf("month total: expected 5000, got %d", month.Msg.Total)
	}

	past, err := client.GetSummary(context.Background(), connect.NewRequest(&api.GetSummaryRequest{Period: "today", AsOf: "2024-12-30"}))
	if err != nil {
		t.Fatalf("GetSummary(today) failed: %v", err)
	}
	if past.Msg.Total != 1250 {
		t.Errorf("2024-12-30 total: expected 1250, got %d", past.Msg.Total)
	}

	_, err = client.GetSummary(context.Background(), connect.NewRequest(&api.GetSummaryRequest{Period: "week"}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument for unknown period, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := client.GetSettings(context.Background(), connect.NewRequest(&api.GetSettingsRequest{}))
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if resp.Msg.Settings.DefaultFare != 1250 || resp.Msg.Settings.Backend != "sqlite" {
		t.Errorf("unexpected settings: %+v", resp.Msg.Settings)
	}
	if len(resp.Msg.Settings.Drivers) != 2 {
		t.Errorf("drivers: expected 2, got %v", resp.Msg.Settings.Drivers)
	}

	legs := addTrip(t, client, &api.AddTripRequest{Date: "2025-01-07", Direction: "Ida", Driver: "Wilson", Passengers: []string{"JP"}})

	fare := int64(1400)
	upd, err := client.UpdateSettings(context.Background(), connect.NewRequest(&api.UpdateSettingsRequest{DefaultFare: &fare}))
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if upd.Msg.Settings.DefaultFare != 1400 {
		t.Errorf("default fare: expected 1400, got %d", upd.Msg.Settings.DefaultFare)
	}

	// Existing legs keep their frozen fare.
	list, err := client.ListLegs(context.Background(), connect.NewRequest(&api.ListLegsRequest{}))
	if err != nil {
		t.Fatalf("ListLegs failed: %v", err)
	}
	if list.Msg.Legs[0].ID != legs[0].ID || list.Msg.Legs[0].FarePerLeg != 1250 {
		t.Errorf("expected leg %d to keep fare 1250, got %+v", legs[0].ID, list.Msg.Legs[0])
	}

	next := addTrip(t, client, &api.AddTripRequest{Date: "2025-01-08", Direction: "Ida", Driver: "Wilson", Passengers: []string{"JP"}})
	if next[0].FarePerLeg != 1400 {
		t.Errorf("new leg fare: expected 1400, got %d", next[0].FarePerLeg)
	}

	negative := int64(-1)
	_, err = client.UpdateSettings(context.Background(), connect.NewRequest(&api.UpdateSettingsRequest{DefaultFare: &negative}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument for negative fare, got %v", err)
	}
}

func TestSnapshotExportImport(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-10", Direction: "both", Driver: "Wilson", Passengers: []string{"Paula", "JP"}})

	export, err := client.ExportSnapshot(context.Background(), connect.NewRequest(&api.ExportSnapshotRequest{}))
	if err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}
	if export.Msg.Filename != "trips.csv" {
		t.Errorf("filename: expected trips.csv, got %s", export.Msg.Filename)
	}
	if !bytes.HasPrefix(export.Msg.Content, []byte("id,date,direction,driver,passengers,fare_per_leg,vehicle,notes")) {
		t.Errorf("unexpected CSV header: %q", export.Msg.Content)
	}
	if !strings.Contains(string(export.Msg.Content), `"Paula, JP"`) {
		t.Errorf("expected quoted passenger list in %q", export.Msg.Content)
	}

	backup, err := client.ExportSnapshot(context.Background(), connect.NewRequest(&api.ExportSnapshotRequest{Backup: true}))
	if err != nil {
		t.Fatalf("ExportSnapshot(backup) failed: %v", err)
	}
	if !strings.HasPrefix(backup.Msg.Filename, "trips_") || !strings.HasSuffix(backup.Msg.Filename, ".csv") {
		t.Errorf("unexpected backup filename %s", backup.Msg.Filename)
	}

	legacy := "row_id,date,leg,driver,passengers,car\n" +
		"7,2024-11-04,Ida,Valentina,\"Paula, Gerard\",\n" +
		"8,2024-11-04,Vuelta,Valentina,Paula,\n"
	imp, err := client.ImportSnapshot(context.Background(), connect.NewRequest(&api.ImportSnapshotRequest{Content: []byte(legacy)}))
	if err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	if imp.Msg.Imported != 2 {
		t.Errorf("imported: expected 2, got %d", imp.Msg.Imported)
	}

	list, err := client.ListLegs(context.Background(), connect.NewRequest(&api.ListLegsRequest{}))
	if err != nil {
		t.Fatalf("ListLegs failed: %v", err)
	}
	if len(list.Msg.Legs) != 2 {
		t.Fatalf("expected imported legs to replace the ledger, got %d legs", len(list.Msg.Legs))
	}
	if list.Msg.Legs[0].FarePerLeg != 1250 || list.Msg.Legs[0].Vehicle != "Valentina" {
		t.Errorf("expected default fare and driver vehicle, got %+v", list.Msg.Legs[0])
	}
}

func TestImportSnapshot_Malformed(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-10", Direction: "Ida", Driver: "Wilson", Passengers: []string{"Paula"}})

	bad := "id,date,direction,driver,passengers\n1,someday,Ida,Wilson,Paula\n"
	_, err := client.ImportSnapshot(context.Background(), connect.NewRequest(&api.ImportSnapshotRequest{Content: []byte(bad)}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("expected the failing row in %q", err.Error())
	}

	list, err := client.ListLegs(context.Background(), connect.NewRequest(&api.ListLegsRequest{}))
	if err != nil {
		t.Fatalf("ListLegs failed: %v", err)
	}
	if len(list.Msg.Legs) != 1 {
		t.Errorf("expected ledger untouched, got %d legs", len(list.Msg.Legs))
	}
}

func TestExportReport(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-10", Direction: "both", Driver: "Wilson", Passengers: []string{"Paula", "JP"}})

	resp, err := client.ExportReport(context.Background(), connect.NewRequest(&api.ExportReportRequest{}))
	if err != nil {
		t.Fatalf("ExportReport failed: %v", err)
	}
	if !strings.HasSuffix(resp.Msg.Filename, ".xlsx") {
		t.Errorf("unexpected filename %s", resp.Msg.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(resp.Msg.Content))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Por conductor")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) < 2 || rows[1][0] != "Wilson" || rows[1][1] != "5000" {
		t.Errorf("unexpected driver sheet: %v", rows)
	}
}

func TestListSaves(t *testing.T) {
	client, cleanup := setupTestServer(t)
	defer cleanup()

	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-10", Direction: "Ida", Driver: "Wilson", Passengers: []string{"Paula"}})
	addTrip(t, client, &api.AddTripRequest{Date: "2025-01-10", Direction: "Vuelta", Driver: "Wilson", Passengers: []string{"Paula"}})

	resp, err := client.ListSaves(context.Background(), connect.NewRequest(&api.ListSavesRequest{Limit: 10}))
	if err != nil {
		t.Fatalf("ListSaves failed: %v", err)
	}
	if !resp.Msg.Supported {
		t.Fatal("expected the SQLite backend to keep a save log")
	}
	if len(resp.Msg.Saves) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(resp.Msg.Saves))
	}
	if resp.Msg.Saves[0].Rows != 2 || resp.Msg.Saves[1].Rows != 1 {
		t.Errorf("expected newest save first, got %+v", resp.Msg.Saves)
	}
}
