package calculator

import (
	"cmp"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/mmynk/carpool/internal/ledger"
	"github.com/mmynk/carpool/internal/models"
)

// MemberBalance represents the balance information for one participant.
type MemberBalance struct {
	Participant string
	Owed        int64 // sum of allocations where they rode
	Collectable int64 // sum of allocations where they drove
	Net         int64 // Positive = is owed money, Negative = owes money
}

// DebtEdge represents a payment that settles part of the balances.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount int64
}

// Matrix is the dense passenger × driver table of summed allocations.
type Matrix struct {
	Passengers []string
	Drivers    []string
	cells      map[string]map[string]int64
}

// At returns what passenger owes driver; zero for any pair without rides.
func (m Matrix) At(passenger, driver string) int64 {
	return m.cells[passenger][driver]
}

// Row returns the amounts passenger owes, one per entry of m.Drivers.
func (m Matrix) Row(passenger string) []int64 {
	row := make([]int64, len(m.Drivers))
	for i, d := range m.Drivers {
		row[i] = m.At(passenger, d)
	}
	return row
}

// Summary bundles every aggregation over one set of legs.
type Summary struct {
	Legs         int
	Total        int64
	DriverTotals map[string]int64
	PersonOwed   map[string]int64
	Matrix       Matrix
	Balances     []MemberBalance
	Transfers    []DebtEdge
}

// Period selects the legs a summary is computed over.
type Period int

const (
	PeriodAll Period = iota
	PeriodToday
	PeriodMonth
)

// DriverTotals sums AmountForLeg per driver. Every roster driver is present.
func DriverTotals(legs []models.TripLeg, roster models.Roster) map[string]int64 {
	totals := zeroFill(driverOrder(legs, roster))
	for _, leg := range legs {
		totals[leg.Driver] += leg.AmountForLeg()
	}
	return totals
}

// PersonOwed sums what each participant owes as a passenger. Every roster
// participant is present, even with nothing owed.
func PersonOwed(legs []models.TripLeg, roster models.Roster) map[string]int64 {
	owed := zeroFill(participantOrder(legs, roster))
	for _, a := range AllocateAll(legs) {
		owed[a.Passenger] += a.Amount
	}
	return owed
}

// BuildMatrix sums allocations per (passenger, driver) pair, zero-filled over
// the roster and every configured driver.
func BuildMatrix(legs []models.TripLeg, roster models.Roster) Matrix {
	m := Matrix{
		Passengers: participantOrder(legs, roster),
		Drivers:    driverOrder(legs, roster),
		cells:      make(map[string]map[string]int64),
	}
	for _, p := range m.Passengers {
		m.cells[p] = zeroFill(m.Drivers)
	}
	for _, a := range AllocateAll(legs) {
		m.cells[a.Passenger][a.Driver] += a.Amount
	}
	return m
}

// NetBalances returns collectable minus owed per participant. The values
// always sum to zero.
func NetBalances(legs []models.TripLeg, roster models.Roster) map[string]int64 {
	net := make(map[string]int64)
	for _, b := range Balances(legs, roster) {
		net[b.Participant] = b.Net
	}
	return net
}

// Balances computes each participant's owed and collectable totals, in roster
// order followed by anyone only seen in the legs.
//
// Algorithm:
// - For each allocation: the passenger owes the amount, the driver collects it
// - A self allocation lands on both sides of the same person and cancels out
// - net = collectable - owed
func Balances(legs []models.TripLeg, roster models.Roster) []MemberBalance {
	order := participantOrder(legs, roster)
	balances := make(map[string]*MemberBalance, len(order))
	for _, name := range order {
		balances[name] = &MemberBalance{Participant: name}
	}

	for _, a := range AllocateAll(legs) {
		balances[a.Passenger].Owed += a.Amount
		balances[a.Driver].Collectable += a.Amount
	}

	out := make([]MemberBalance, 0, len(order))
	for _, name := range order {
		bal := balances[name]
		bal.Net = bal.Collectable - bal.Owed
		out = append(out, *bal)
	}
	return out
}

// Transfers turns net balances into payments that settle everyone.
//
// Greedy algorithm: match the largest debtor with the largest creditor,
// settle the smaller of the two amounts, repeat. Ties are broken by name so
// the result is deterministic.
func Transfers(balances []MemberBalance) []DebtEdge {
	var creditors, debtors []MemberBalance
	for _, bal := range balances {
		if bal.Net > 0 {
			creditors = append(creditors, bal)
		} else if bal.Net < 0 {
			debtors = append(debtors, bal)
		}
	}
	slices.SortFunc(creditors, func(a, b MemberBalance) int {
		return cmp.Or(cmp.Compare(b.Net, a.Net), cmp.Compare(a.Participant, b.Participant))
	})
	slices.SortFunc(debtors, func(a, b MemberBalance) int {
		return cmp.Or(cmp.Compare(a.Net, b.Net), cmp.Compare(a.Participant, b.Participant))
	})

	var edges []DebtEdge
	i, j := 0, 0
	debt := make([]int64, len(debtors))
	credit := make([]int64, len(creditors))
	for k, d := range debtors {
		debt[k] = -d.Net
	}
	for k, c := range creditors {
		credit[k] = c.Net
	}

	for i < len(debtors) && j < len(creditors) {
		amount := min(debt[i], credit[j])
		edges = append(edges, DebtEdge{
			From:   debtors[i].Participant,
			To:     creditors[j].Participant,
			Amount: amount,
		})

		debt[i] -= amount
		credit[j] -= amount
		if debt[i] == 0 {
			i++
		}
		if credit[j] == 0 {
			j++
		}
	}
	return edges
}

// Summarize runs every aggregation over legs.
func Summarize(legs []models.TripLeg, roster models.Roster) Summary {
	var total int64
	for _, leg := range legs {
		total += leg.AmountForLeg()
	}
	balances := Balances(legs, roster)
	return Summary{
		Legs:         len(legs),
		Total:        total,
		DriverTotals: DriverTotals(legs, roster),
		PersonOwed:   PersonOwed(legs, roster),
		Matrix:       BuildMatrix(legs, roster),
		Balances:     balances,
		Transfers:    Transfers(balances),
	}
}

// SummarizePeriod filters legs by date relative to asOf, then summarizes.
func SummarizePeriod(legs []models.TripLeg, roster models.Roster, period Period, asOf civil.Date) Summary {
	switch period {
	case PeriodToday:
		return Today(legs, roster, asOf)
	case PeriodMonth:
		return CurrentMonth(legs, roster, asOf)
	default:
		return Summarize(legs, roster)
	}
}

// Today summarizes the legs dated asOf.
func Today(legs []models.TripLeg, roster models.Roster, asOf civil.Date) Summary {
	return Summarize(ledger.FilterLegs(legs, ledger.Today(asOf)), roster)
}

// CurrentMonth summarizes the legs in asOf's calendar month.
func CurrentMonth(legs []models.TripLeg, roster models.Roster, asOf civil.Date) Summary {
	return Summarize(ledger.FilterLegs(legs, ledger.CurrentMonth(asOf)), roster)
}

// participantOrder lists roster participants, then anyone else who appears
// in the legs, in first-seen order.
func participantOrder(legs []models.TripLeg, roster models.Roster) []string {
	order := roster.Everyone()
	for _, leg := range legs {
		order = appendMissing(order, leg.Driver)
		for _, p := range leg.Passengers {
			order = appendMissing(order, p)
		}
	}
	return order
}

// driverOrder lists the configured drivers, then any other driver in the legs.
func driverOrder(legs []models.TripLeg, roster models.Roster) []string {
	order := roster.DriverColumns()
	for _, leg := range legs {
		order = appendMissing(order, leg.Driver)
	}
	return order
}

func appendMissing(names []string, name string) []string {
	if slices.Contains(names, name) {
		return names
	}
	return append(names, name)
}

func zeroFill(names []string) map[string]int64 {
	m := make(map[string]int64, len(names))
	for _, name := range names {
		m[name] = 0
	}
	return m
}
