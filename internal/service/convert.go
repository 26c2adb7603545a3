package service

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"connectrpc.com/connect"

	"github.com/mmynk/carpool/internal/auth"
	"github.com/mmynk/carpool/internal/calculator"
	"github.com/mmynk/carpool/internal/ledger"
	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/pkg/api"
)

// connectError maps a domain error onto a Connect code.
func connectError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrImportFormat):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledger.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrPersistence):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, auth.ErrUnknownName):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(field, value, reason string) error {
	return connect.NewError(connect.CodeInvalidArgument,
		&ledger.ValidationError{Field: field, Value: value, Reason: reason})
}

func parseDate(field, s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, invalidArgument(field, s, "expected yyyy-mm-dd")
	}
	return d, nil
}

func toFilter(f api.LegFilter) (ledger.Filter, error) {
	var out ledger.Filter
	if f.From != "" {
		d, err := parseDate("from", f.From)
		if err != nil {
			return out, err
		}
		out.From = &d
	}
	if f.To != "" {
		d, err := parseDate("to", f.To)
		if err != nil {
			return out, err
		}
		out.To = &d
	}
	if out.From != nil && out.To != nil && out.To.Before(*out.From) {
		return out, invalidArgument("to", f.To, fmt.Sprintf("before from %s", f.From))
	}
	for _, d := range f.Drivers {
		if d = strings.TrimSpace(d); d != "" {
			out.Drivers = append(out.Drivers, d)
		}
	}
	return out, nil
}

func toPeriod(s string) (calculator.Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return calculator.PeriodAll, nil
	case "today":
		return calculator.PeriodToday, nil
	case "month":
		return calculator.PeriodMonth, nil
	}
	return 0, invalidArgument("period", s, "expected all, today or month")
}

func toAPILeg(leg models.TripLeg) api.Leg {
	passengers := leg.Passengers
	if passengers == nil {
		passengers = []string{}
	}
	return api.Leg{
		ID:           leg.ID,
		Date:         leg.Date.String(),
		Direction:    leg.Direction.String(),
		Driver:       leg.Driver,
		Passengers:   passengers,
		FarePerLeg:   leg.FarePerLeg,
		AmountForLeg: leg.AmountForLeg(),
		Vehicle:      leg.Vehicle,
		Notes:        leg.Notes,
	}
}

func toAPILegs(legs []models.TripLeg) []api.Leg {
	out := make([]api.Leg, len(legs))
	for i, leg := range legs {
		out[i] = toAPILeg(leg)
	}
	return out
}

func toAPISummary(s calculator.Summary, asOf civil.Date, currency string) *api.GetSummaryResponse {
	resp := &api.GetSummaryResponse{
		AsOf:         asOf.String(),
		Currency:     currency,
		Legs:         s.Legs,
		Total:        s.Total,
		DriverTotals: make([]api.NamedAmount, 0, len(s.Matrix.Drivers)),
		PersonOwed:   make([]api.NamedAmount, 0, len(s.Matrix.Passengers)),
		Matrix: api.Matrix{
			Passengers: s.Matrix.Passengers,
			Drivers:    s.Matrix.Drivers,
			Rows:       make([][]int64, len(s.Matrix.Passengers)),
		},
		Balances:  make([]api.Balance, len(s.Balances)),
		Transfers: make([]api.Transfer, len(s.Transfers)),
	}
	for _, d := range s.Matrix.Drivers {
		resp.DriverTotals = append(resp.DriverTotals, api.NamedAmount{Name: d, Amount: s.DriverTotals[d]})
	}
	for i, p := range s.Matrix.Passengers {
		resp.PersonOwed = append(resp.PersonOwed, api.NamedAmount{Name: p, Amount: s.PersonOwed[p]})
		resp.Matrix.Rows[i] = s.Matrix.Row(p)
	}
	for i, b := range s.Balances {
		resp.Balances[i] = api.Balance{
			Participant: b.Participant,
			Owed:        b.Owed,
			Collectable: b.Collectable,
			Net:         b.Net,
		}
	}
	for i, t := range s.Transfers {
		resp.Transfers[i] = api.Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return resp
}
