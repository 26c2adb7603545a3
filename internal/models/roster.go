package models

import "slices"

// Roster is the fixed, configured set of people sharing the rides.
// Participants are identified by name only.
type Roster struct {
	// Participants is everyone who may ride (drivers included).
	Participants []string

	// Drivers is the subset of participants who own a car.
	// An empty list means any participant may drive.
	Drivers []string
}

// IsParticipant reports whether name is on the roster.
func (r Roster) IsParticipant(name string) bool {
	return slices.Contains(r.Participants, name) || slices.Contains(r.Drivers, name)
}

// IsDriver reports whether name may drive a leg.
func (r Roster) IsDriver(name string) bool {
	if len(r.Drivers) == 0 {
		return slices.Contains(r.Participants, name)
	}
	return slices.Contains(r.Drivers, name)
}

// Everyone returns participants followed by any driver missing from the
// participant list, without duplicates.
func (r Roster) Everyone() []string {
	out := make([]string, 0, len(r.Participants)+len(r.Drivers))
	for _, name := range r.Participants {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	for _, name := range r.Drivers {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// DriverColumns returns the configured drivers, or every participant when
// no driver list is configured.
func (r Roster) DriverColumns() []string {
	if len(r.Drivers) == 0 {
		return slices.Clone(r.Participants)
	}
	return slices.Clone(r.Drivers)
}
