package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"connectrpc.com/connect"

	"github.com/mmynk/carpool/internal/calculator"
	"github.com/mmynk/carpool/internal/ledger"
	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/report"
	"github.com/mmynk/carpool/internal/session"
	"github.com/mmynk/carpool/pkg/api"
	"github.com/mmynk/carpool/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService on top of a session.
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler
	session *session.Session
	now     func() time.Time
}

// NewLedgerService creates a new LedgerService serving sess.
func NewLedgerService(sess *session.Session) *LedgerService {
	return &LedgerService{session: sess, now: time.Now}
}

// AddTrip records one leg or a round trip.
func (s *LedgerService) AddTrip(ctx context.Context, req *connect.Request[api.AddTripRequest]) (*connect.Response[api.AddTripResponse], error) {
	slog.Info("AddTrip request received",
		"date", req.Msg.Date,
		"direction", req.Msg.Direction,
		"driver", req.Msg.Driver,
		"passengers_count", len(req.Msg.Passengers),
	)

	date := s.session.Today()
	if strings.TrimSpace(req.Msg.Date) != "" {
		d, err := parseDate("date", req.Msg.Date)
		if err != nil {
			return nil, err
		}
		date = d
	}

	selection, err := models.ParseLegSelection(req.Msg.Direction)
	if err != nil {
		return nil, invalidArgument("direction", req.Msg.Direction, "expected Ida, Vuelta or both")
	}

	legs, err := s.session.AddTrip(ctx, ledger.NewTrip{
		Date:       date,
		Selection:  selection,
		Driver:     req.Msg.Driver,
		Passengers: req.Msg.Passengers,
		Vehicle:    req.Msg.Vehicle,
		Notes:      req.Msg.Notes,
	}, req.Msg.FarePerLeg)
	if err != nil {
		slog.Error("AddTrip failed", "error", err)
		return nil, connectError(err)
	}

	slog.Info("Trip added", "legs", len(legs))

	return connect.NewResponse(&api.AddTripResponse{Legs: toAPILegs(legs)}), nil
}

// UpdateLeg edits the fields set in the request.
func (s *LedgerService) UpdateLeg(ctx context.Context, req *connect.Request[api.UpdateLegRequest]) (*connect.Response[api.UpdateLegResponse], error) {
	slog.Info("UpdateLeg request received", "leg_id", req.Msg.ID)

	upd := ledger.LegUpdate{
		Driver:     req.Msg.Driver,
		Passengers: req.Msg.Passengers,
		FarePerLeg: req.Msg.FarePerLeg,
		Vehicle:    req.Msg.Vehicle,
		Notes:      req.Msg.Notes,
	}
	if req.Msg.Date != nil {
		d, err := parseDate("date", *req.Msg.Date)
		if err != nil {
			return nil, err
		}
		upd.Date = &d
	}
	if req.Msg.Direction != nil {
		dir, err := models.ParseDirection(*req.Msg.Direction)
		if err != nil {
			return nil, invalidArgument("direction", *req.Msg.Direction, "expected Ida or Vuelta")
		}
		upd.Direction = &dir
	}

	leg, err := s.session.UpdateLeg(ctx, req.Msg.ID, upd)
	if err != nil {
		slog.Error("UpdateLeg failed", "leg_id", req.Msg.ID, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.UpdateLegResponse{Leg: toAPILeg(leg)}), nil
}

// RemoveLegs deletes legs by id. Unknown ids are ignored.
func (s *LedgerService) RemoveLegs(ctx context.Context, req *connect.Request[api.RemoveLegsRequest]) (*connect.Response[api.RemoveLegsResponse], error) {
	slog.Info("RemoveLegs request received", "ids", req.Msg.IDs)

	removed, err := s.session.RemoveLegs(ctx, req.Msg.IDs...)
	if err != nil {
		slog.Error("RemoveLegs failed", "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.RemoveLegsResponse{Removed: removed}), nil
}

// ListLegs returns the matching legs sorted by date, direction and driver.
func (s *LedgerService) ListLegs(ctx context.Context, req *connect.Request[api.ListLegsRequest]) (*connect.Response[api.ListLegsResponse], error) {
	filter, err := toFilter(req.Msg.Filter)
	if err != nil {
		return nil, err
	}

	legs := s.session.Legs(filter)
	slog.Info("ListLegs successful", "count", len(legs))

	return connect.NewResponse(&api.ListLegsResponse{Legs: toAPILegs(legs)}), nil
}

// GetSummary aggregates the matching legs over the requested period.
func (s *LedgerService) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	filter, period, asOf, err := s.summaryArgs(req.Msg.Filter, req.Msg.Period, req.Msg.AsOf)
	if err != nil {
		return nil, err
	}

	summary := s.session.Summary(filter, period, asOf)
	slog.Info("GetSummary successful", "legs", summary.Legs, "total", summary.Total)

	return connect.NewResponse(toAPISummary(summary, asOf, s.session.Settings().Currency)), nil
}

// GetSettings returns the defaults and roster in effect.
func (s *LedgerService) GetSettings(ctx context.Context, req *connect.Request[api.GetSettingsRequest]) (*connect.Response[api.GetSettingsResponse], error) {
	return connect.NewResponse(&api.GetSettingsResponse{Settings: s.settings()}), nil
}

// UpdateSettings changes the default fare for future trips.
func (s *LedgerService) UpdateSettings(ctx context.Context, req *connect.Request[api.UpdateSettingsRequest]) (*connect.Response[api.UpdateSettingsResponse], error) {
	if req.Msg.DefaultFare != nil {
		slog.Info("UpdateSettings request received", "default_fare", *req.Msg.DefaultFare)
		if err := s.session.SetDefaultFare(*req.Msg.DefaultFare); err != nil {
			return nil, connectError(err)
		}
	}

	return connect.NewResponse(&api.UpdateSettingsResponse{Settings: s.settings()}), nil
}

// ExportSnapshot returns the whole ledger as CSV.
func (s *LedgerService) ExportSnapshot(ctx context.Context, req *connect.Request[api.ExportSnapshotRequest]) (*connect.Response[api.ExportSnapshotResponse], error) {
	var buf bytes.Buffer
	if err := s.session.ExportCSV(&buf); err != nil {
		slog.Error("ExportSnapshot failed", "error", err)
		return nil, connectError(err)
	}

	filename := session.SnapshotFilename
	if req.Msg.Backup {
		filename = session.BackupName(s.now())
	}

	slog.Info("Snapshot exported", "filename", filename, "bytes", buf.Len())

	return connect.NewResponse(&api.ExportSnapshotResponse{
		Filename: filename,
		Content:  buf.Bytes(),
	}), nil
}

// ImportSnapshot replaces the ledger with an uploaded CSV snapshot.
func (s *LedgerService) ImportSnapshot(ctx context.Context, req *connect.Request[api.ImportSnapshotRequest]) (*connect.Response[api.ImportSnapshotResponse], error) {
	slog.Info("ImportSnapshot request received", "bytes", len(req.Msg.Content))

	if len(req.Msg.Content) == 0 {
		return nil, invalidArgument("content", "", "must not be empty")
	}

	n, err := s.session.ImportCSV(ctx, bytes.NewReader(req.Msg.Content))
	if err != nil {
		slog.Error("ImportSnapshot failed", "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.ImportSnapshotResponse{Imported: n}), nil
}

// ExportReport renders the summary as an Excel workbook.
func (s *LedgerService) ExportReport(ctx context.Context, req *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error) {
	filter, period, asOf, err := s.summaryArgs(req.Msg.Filter, req.Msg.Period, req.Msg.AsOf)
	if err != nil {
		return nil, err
	}

	summary := s.session.Summary(filter, period, asOf)

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, report.Tables(summary)); err != nil {
		slog.Error("ExportReport failed", "error", err)
		return nil, connectError(err)
	}

	filename := report.Filename(s.now())
	slog.Info("Report exported", "filename", filename, "legs", summary.Legs)

	return connect.NewResponse(&api.ExportReportResponse{
		Filename: filename,
		Content:  buf.Bytes(),
	}), nil
}

// ListSaves lists recent snapshot saves when the backend logs them.
func (s *LedgerService) ListSaves(ctx context.Context, req *connect.Request[api.ListSavesRequest]) (*connect.Response[api.ListSavesResponse], error) {
	saves, supported, err := s.session.History(ctx, req.Msg.Limit)
	if err != nil {
		slog.Error("ListSaves failed", "error", err)
		return nil, connectError(err)
	}

	out := make([]api.Save, len(saves))
	for i, rec := range saves {
		out[i] = api.Save{
			ID:      rec.ID,
			SavedAt: rec.SavedAt.UTC().Format(time.RFC3339),
			Rows:    rec.Rows,
		}
	}

	return connect.NewResponse(&api.ListSavesResponse{Supported: supported, Saves: out}), nil
}

func (s *LedgerService) summaryArgs(f api.LegFilter, p, asOfStr string) (ledger.Filter, calculator.Period, civil.Date, error) {
	filter, err := toFilter(f)
	if err != nil {
		return filter, 0, civil.Date{}, err
	}
	period, err := toPeriod(p)
	if err != nil {
		return filter, 0, civil.Date{}, err
	}
	asOf := s.session.Today()
	if strings.TrimSpace(asOfStr) != "" {
		if asOf, err = parseDate("as_of", asOfStr); err != nil {
			return filter, 0, civil.Date{}, err
		}
	}
	return filter, period, asOf, nil
}

func (s *LedgerService) settings() api.Settings {
	settings := s.session.Settings()
	policy := s.session.Policy()
	return api.Settings{
		DefaultFare:   settings.DefaultFare,
		Currency:      settings.Currency,
		Participants:  policy.Roster.Everyone(),
		Drivers:       policy.Roster.DriverColumns(),
		DriverPays:    policy.DriverPays,
		EnforceRoster: policy.EnforceRoster,
		Backend:       s.session.Backend(),
	}
}
