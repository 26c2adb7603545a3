package calculator

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/carpool/internal/models"
)

var roster = models.Roster{
	Participants: []string{"Wilson", "Valentina", "JP", "Gerard", "Paula"},
	Drivers:      []string{"Wilson", "Valentina"},
}

func day(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func leg(id int64, d civil.Date, dir models.Direction, driver string, fare int64, passengers ...string) models.TripLeg {
	return models.TripLeg{ID: id, Date: d, Direction: dir, Driver: driver, Passengers: passengers, FarePerLeg: fare, Vehicle: driver}
}

func sumNet(balances []MemberBalance) int64 {
	var sum int64
	for _, b := range balances {
		sum += b.Net
	}
	return sum
}

func TestAllocate(t *testing.T) {
	l := leg(4, day(2025, 1, 10), models.Outbound, "Wilson", 1250, "Paula", "JP")

	allocs := Allocate(l)
	assert.Equal(t, []Allocation{
		{LegID: 4, Passenger: "Paula", Driver: "Wilson", Amount: 1250},
		{LegID: 4, Passenger: "JP", Driver: "Wilson", Amount: 1250},
	}, allocs)

	var total int64
	for _, a := range allocs {
		total += a.Amount
	}
	assert.Equal(t, l.AmountForLeg(), total)
}

func TestRoundTripScenario(t *testing.T) {
	legs := []models.TripLeg{
		leg(1, day(2025, 1, 10), models.Outbound, "Wilson", 1250, "Paula", "JP"),
		leg(2, day(2025, 1, 10), models.Return, "Wilson", 1250, "Paula", "JP"),
	}

	s := Summarize(legs, roster)

	assert.Equal(t, 2, s.Legs)
	assert.Equal(t, int64(5000), s.Total)
	assert.Equal(t, int64(5000), s.DriverTotals["Wilson"])
	assert.Equal(t, int64(0), s.DriverTotals["Valentina"])
	assert.Equal(t, int64(2500), s.PersonOwed["Paula"])
	assert.Equal(t, int64(2500), s.PersonOwed["JP"])
	assert.Equal(t, int64(2500), s.Matrix.At("Paula", "Wilson"))
	assert.Equal(t, int64(0), s.Matrix.At("Paula", "Valentina"))

	net := NetBalances(legs, roster)
	assert.Equal(t, int64(5000), net["Wilson"])
	assert.Equal(t, int64(-2500), net["Paula"])
	assert.Equal(t, int64(0), net["Gerard"])
}

func TestRosterCompleteness(t *testing.T) {
	for _, legs := range [][]models.TripLeg{nil, {leg(1, day(2025, 1, 10), models.Outbound, "Wilson", 1250, "JP")}} {
		owed := PersonOwed(legs, roster)
		m := BuildMatrix(legs, roster)
		for _, p := range roster.Participants {
			_, ok := owed[p]
			assert.True(t, ok, "PersonOwed missing %s", p)
			assert.Contains(t, m.Passengers, p)
			assert.Len(t, m.Row(p), len(roster.Drivers))
		}
		assert.Equal(t, roster.Drivers, m.Drivers)
	}
}

func TestZeroSum(t *testing.T) {
	tests := []struct {
		name string
		legs []models.TripLeg
	}{
		{name: "empty"},
		{name: "mixed drivers", legs: []models.TripLeg{
			leg(1, day(2025, 1, 10), models.Outbound, "Wilson", 1250, "Paula", "JP", "Valentina"),
			leg(2, day(2025, 1, 10), models.Return, "Valentina", 1300, "Wilson", "Gerard"),
			leg(3, day(2025, 1, 11), models.Outbound, "Valentina", 0, "Paula"),
		}},
		{name: "self allocation", legs: []models.TripLeg{
			leg(1, day(2025, 1, 10), models.Outbound, "Wilson", 1250, "Wilson", "Paula"),
		}},
		{name: "participant outside the roster", legs: []models.TripLeg{
			leg(1, day(2025, 1, 10), models.Outbound, "Wilson", 900, "Invitada"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances := Balances(tt.legs, roster)
			assert.Equal(t, int64(0), sumNet(balances))

			var netSum int64
			for _, v := range NetBalances(tt.legs, roster) {
				netSum += v
			}
			assert.Equal(t, int64(0), netSum)
		})
	}
}

func TestSelfAllocationNetsToZero(t *testing.T) {
	legs := []models.TripLeg{leg(1, day(2025, 1, 10), models.Outbound, "Wilson", 1250, "Wilson", "Paula")}

	s := Summarize(legs, roster)
	assert.Equal(t, int64(2500), s.DriverTotals["Wilson"])
	assert.Equal(t, int64(1250), s.PersonOwed["Wilson"])
	assert.Equal(t, int64(1250), s.Matrix.At("Wilson", "Wilson"))

	net := NetBalances(legs, roster)
	assert.Equal(t, int64(1250), net["Wilson"], "only Paula's fare is a real credit")
	assert.Equal(t, int64(-1250), net["Paula"])
}

func TestDriverTotalsMatchMatrixColumns(t *testing.T) {
	legs := []models.TripLeg{
		leg(1, day(2025, 1, 10), models.Outbound, "Wilson", 1250, "Paula", "JP"),
		leg(2, day(2025, 1, 12), models.Return, "Valentina", 1000, "Gerard", "Wilson", "JP"),
	}
	s := Summarize(legs, roster)
	for _, d := range s.Matrix.Drivers {
		var col int64
		for _, p := range s.Matrix.Passengers {
			col += s.Matrix.At(p, d)
		}
		assert.Equal(t, s.DriverTotals[d], col, "column %s", d)
	}
}

func TestTransfers(t *testing.T) {
	balances := []MemberBalance{
		{Participant: "Wilson", Net: 5000},
		{Participant: "Valentina", Net: 1000},
		{Participant: "Paula", Net: -2500},
		{Participant: "JP", Net: -3500},
		{Participant: "Gerard", Net: 0},
	}

	edges := Transfers(balances)
	require.Equal(t, []DebtEdge{
		{From: "JP", To: "Wilson", Amount: 3500},
		{From: "Paula", To: "Wilson", Amount: 1500},
		{From: "Paula", To: "Valentina", Amount: 1000},
	}, edges)

	paid := map[string]int64{}
	for _, e := range edges {
		paid[e.From] -= e.Amount
		paid[e.To] += e.Amount
	}
	for _, b := range balances {
		assert.Equal(t, b.Net, paid[b.Participant], b.Participant)
	}
}

func TestTransfers_Settled(t *testing.T) {
	assert.Empty(t, Transfers([]MemberBalance{{Participant: "Wilson"}, {Participant: "JP"}}))
}

func TestPeriodViews(t *testing.T) {
	legs := []models.TripLeg{
		leg(1, day(2025, 1, 31), models.Outbound, "Wilson", 1250, "Paula"),
		leg(2, day(2025, 2, 10), models.Outbound, "Wilson", 1250, "Paula", "JP"),
		leg(3, day(2025, 2, 10), models.Return, "Valentina", 1250, "Paula"),
		leg(4, day(2025, 2, 20), models.Outbound, "Wilson", 1250, "JP"),
	}
	asOf := day(2025, 2, 10)

	today := Today(legs, roster, asOf)
	assert.Equal(t, 2, today.Legs)
	assert.Equal(t, int64(2500), today.PersonOwed["Paula"])

	month := CurrentMonth(legs, roster, asOf)
	assert.Equal(t, 3, month.Legs)
	assert.Equal(t, int64(3750), month.DriverTotals["Wilson"])

	all := SummarizePeriod(legs, roster, PeriodAll, asOf)
	assert.Equal(t, 4, all.Legs)
	assert.Equal(t, month, SummarizePeriod(legs, roster, PeriodMonth, asOf))
}

func TestFareFreeze(t *testing.T) {
	// A leg keeps its own fare; there is no global default in the aggregation.
	legs := []models.TripLeg{
		leg(1, day(2025, 1, 10), models.Outbound, "Wilson", 1250, "Paula"),
		leg(2, day(2025, 3, 10), models.Outbound, "Wilson", 1500, "Paula"),
	}
	assert.Equal(t, int64(2750), PersonOwed(legs, roster)["Paula"])
}
