package calculator

import "github.com/mmynk/carpool/internal/models"

// Allocation is one passenger's debt to one driver for one leg.
type Allocation struct {
	LegID     int64
	Passenger string // payer
	Driver    string // payee
	Amount    int64
}

// Allocate computes the obligations a leg creates: every passenger owes the
// driver exactly one fare, no matter how many others shared the ride.
//
// A driver listed among the passengers gets a self allocation; the aggregator
// counts it on both sides so it nets to zero.
func Allocate(leg models.TripLeg) []Allocation {
	allocs := make([]Allocation, len(leg.Passengers))
	for i, p := range leg.Passengers {
		allocs[i] = Allocation{
			LegID:     leg.ID,
			Passenger: p,
			Driver:    leg.Driver,
			Amount:    leg.FarePerLeg,
		}
	}
	return allocs
}

// AllocateAll flattens the allocations of every leg, in leg order.
func AllocateAll(legs []models.TripLeg) []Allocation {
	var allocs []Allocation
	for _, leg := range legs {
		allocs = append(allocs, Allocate(leg)...)
	}
	return allocs
}
